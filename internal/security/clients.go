package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.cancel","shipments.read"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront-web": {ID: "storefront-web", Secret: "storefront-web-secret", Perms: []string{"orders.cancel", "orders.pay", "orders.read", "shipments.read"}, Enabled: true},
	"vendor-portal":  {ID: "vendor-portal", Secret: "vendor-portal-secret", Perms: []string{"orders.ship", "orders.read", "shipments.read"}, Enabled: true},
	"svc-analytics":  {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"orders.read"}, Enabled: true},
}
