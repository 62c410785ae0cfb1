// Package shiprocket wraps the carrier's REST API: token-based auth with a
// cached token refreshed on expiry, shipment creation, pickup-location
// registration and tracking retrieval.
package shiprocket

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/harshbajani/GujaratStore-sub003/internal/usecase"
)

// tokenLifetime is the carrier's documented token validity (10 days); the
// client refreshes a little early to avoid racing the expiry.
const (
	tokenLifetime = 10 * 24 * time.Hour
	tokenMargin   = time.Hour
)

type Config struct {
	BaseURL    string
	Email      string
	Password   string
	WebhookKey string
	ChannelID  string
	Timeout    time.Duration
}

type Client struct {
	httpc      *http.Client
	baseURL    string
	email      string
	password   string
	webhookKey string
	channelID  string

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:      &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		email:      cfg.Email,
		password:   cfg.Password,
		webhookKey: cfg.WebhookKey,
		channelID:  cfg.ChannelID,
	}
}

// authToken returns a cached token, logging in when none is held or the
// held one is about to expire.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp.Add(-tokenMargin)) {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{"email": c.email, "password": c.password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("carrier login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("carrier login status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode carrier login: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("carrier login returned empty token")
	}
	c.token = out.Token
	c.tokenExp = time.Now().Add(tokenLifetime)
	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("carrier request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read carrier response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server-side; drop it so the next call re-authenticates.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return fmt.Errorf("carrier auth expired")
	}
	if resp.StatusCode >= 400 {
		var ce struct {
			Message string `json:"message"`
		}
		if jerr := json.Unmarshal(raw, &ce); jerr == nil && ce.Message != "" {
			return fmt.Errorf("carrier: %s", ce.Message)
		}
		return fmt.Errorf("carrier status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode carrier response: %w", err)
		}
	}
	return nil
}

type createOrderResponse struct {
	OrderID     json.Number `json:"order_id"`
	ShipmentID  json.Number `json:"shipment_id"`
	AWBCode     string      `json:"awb_code"`
	CourierName string      `json:"courier_name"`
	Status      string      `json:"status"`
}

// CreateShipment registers an adhoc order with the carrier. A rejection
// comes back as a structured failure, not an error, so the caller can decide
// on retry without unwrapping.
func (c *Client) CreateShipment(ctx context.Context, req usecase.CarrierShipmentRequest) (usecase.CarrierShipmentResult, error) {
	items := make([]map[string]any, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, map[string]any{
			"name":          it.Name,
			"sku":           it.ProductID,
			"units":         it.Quantity,
			"selling_price": float64(it.PriceCents) / 100,
		})
	}
	payload := map[string]any{
		"order_id":              req.OrderNumber,
		"order_date":            req.OrderDate.Format("2006-01-02 15:04"),
		"pickup_location":       req.PickupLocation,
		"channel_id":            c.channelID,
		"billing_customer_name": req.BillingName,
		"billing_address":       req.Address.Line1,
		"billing_address_2":     req.Address.Line2,
		"billing_city":          req.Address.City,
		"billing_pincode":       req.Address.PinCode,
		"billing_state":         req.Address.State,
		"billing_country":       req.Address.Country,
		"billing_email":         req.BillingEmail,
		"billing_phone":         req.BillingPhone,
		"shipping_is_billing":   true,
		"order_items":           items,
		"payment_method":        "Prepaid",
		"sub_total":             float64(req.SubTotalCents) / 100,
	}

	var out createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/create/adhoc", payload, &out); err != nil {
		return usecase.CarrierShipmentResult{Success: false, Message: err.Error()}, nil
	}
	if out.OrderID.String() == "" || out.OrderID.String() == "0" {
		return usecase.CarrierShipmentResult{Success: false, Message: "carrier did not assign an order id"}, nil
	}
	return usecase.CarrierShipmentResult{
		Success:        true,
		CarrierOrderID: out.OrderID.String(),
		ShipmentID:     out.ShipmentID.String(),
		AWBCode:        out.AWBCode,
		Courier:        out.CourierName,
		RawStatus:      out.Status,
	}, nil
}

// CreatePickupLocation registers a named physical address. The carrier
// requires registration before a shipment can reference the name.
func (c *Client) CreatePickupLocation(ctx context.Context, req usecase.PickupLocationRequest) error {
	payload := map[string]any{
		"pickup_location": req.Name,
		"name":            req.Contact,
		"email":           req.Email,
		"phone":           req.Phone,
		"address":         req.Address,
		"city":            req.City,
		"state":           req.State,
		"country":         req.Country,
		"pin_code":        req.PinCode,
	}
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPost, "/settings/company/addpickup", payload, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("carrier rejected pickup location %q", req.Name)
	}
	return nil
}

type trackingResponse struct {
	TrackingData struct {
		ShipmentTrack []struct {
			CurrentStatus string `json:"current_status"`
			ETD           string `json:"etd"`
		} `json:"shipment_track"`
		ShipmentTrackActivities []struct {
			Status   string `json:"sr-status-label"`
			Activity string `json:"activity"`
			Location string `json:"location"`
			Date     string `json:"date"`
		} `json:"shipment_track_activities"`
	} `json:"tracking_data"`
}

// Track fetches live tracking; the carrier's endpoint is keyed by its order
// id. The nested activity list is flattened into CarrierActivity tuples.
func (c *Client) Track(ctx context.Context, carrierOrderID string) (usecase.CarrierTracking, error) {
	var out trackingResponse
	if err := c.do(ctx, http.MethodGet, "/courier/track?order_id="+carrierOrderID, nil, &out); err != nil {
		return usecase.CarrierTracking{}, err
	}

	tr := usecase.CarrierTracking{}
	if len(out.TrackingData.ShipmentTrack) > 0 {
		tr.RawStatus = out.TrackingData.ShipmentTrack[0].CurrentStatus
		tr.ETA = out.TrackingData.ShipmentTrack[0].ETD
	}
	for _, a := range out.TrackingData.ShipmentTrackActivities {
		at, err := time.Parse("2006-01-02 15:04:05", a.Date)
		if err != nil {
			// The carrier occasionally sends date-only entries.
			at, err = time.Parse("2006-01-02", a.Date)
			if err != nil {
				continue
			}
		}
		tr.Activities = append(tr.Activities, usecase.CarrierActivity{
			Status:   a.Status,
			Activity: a.Activity,
			Location: a.Location,
			Date:     at,
		})
	}
	return tr, nil
}

// OrderIDForShipment recovers the carrier order id linked to a shipment id.
func (c *Client) OrderIDForShipment(ctx context.Context, shipmentID string) (string, error) {
	var out struct {
		Data struct {
			OrderID json.Number `json:"order_id"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/shipments/"+shipmentID, nil, &out); err != nil {
		return "", err
	}
	id := out.Data.OrderID.String()
	if id == "" || id == "0" {
		return "", usecase.ErrOrderNotFound
	}
	return id, nil
}

// VerifyWebhookKey authenticates an inbound carrier webhook by its
// x-api-key header, compared in constant time.
func (c *Client) VerifyWebhookKey(key string) bool {
	if c.webhookKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.webhookKey), []byte(key)) == 1
}

// WebhookPayload is the carrier's push notification shape.
type WebhookPayload struct {
	OrderID          json.Number `json:"order_id"`
	SROrderID        json.Number `json:"sr_order_id"`
	AWB              string      `json:"awb"`
	CurrentStatus    string      `json:"current_status"`
	CurrentTimestamp string      `json:"current_timestamp"`
	Scans            []struct {
		Activity string `json:"activity"`
		Location string `json:"location"`
		Date     string `json:"date"`
	} `json:"scans"`
}

// webhookTimeFormats are the timestamp spellings observed in carrier pushes.
var webhookTimeFormats = []string{
	"2006-01-02 15:04:05",
	"02 Jan 2006 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseWebhook decodes a webhook body into the normalized carrier event.
// Identical bodies always normalize identically: OccurredAt stays zero when
// the timestamp is absent or unparseable, and Digest fingerprints the raw
// body so redeliveries can be recognized downstream.
func ParseWebhook(body []byte) (usecase.CarrierEvent, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return usecase.CarrierEvent{}, fmt.Errorf("decode carrier webhook: %w", err)
	}
	id := p.SROrderID.String()
	if id == "" || id == "0" {
		id = p.OrderID.String()
	}
	sum := sha256.Sum256(body)
	ev := usecase.CarrierEvent{
		CarrierOrderID: id,
		AWBCode:        p.AWB,
		CurrentStatus:  p.CurrentStatus,
		Digest:         hex.EncodeToString(sum[:]),
	}
	for _, layout := range webhookTimeFormats {
		if at, err := time.Parse(layout, p.CurrentTimestamp); err == nil {
			ev.OccurredAt = at
			break
		}
	}
	if len(p.Scans) > 0 {
		last := p.Scans[len(p.Scans)-1]
		ev.Activity = last.Activity
		ev.Location = last.Location
	}
	return ev, nil
}

var _ usecase.Carrier = (*Client)(nil)
