package domain

// Vendor supplies the pickup-location identity for shipment creation.
// PickupLocation/PickupLocationAdded cache a one-time registration call to
// the carrier so the location is not re-registered on every shipment.
type Vendor struct {
	ID                  string
	Name                string
	Email               string
	Phone               string
	AddressLine         string
	City                string
	State               string
	PinCode             string
	Country             string
	PickupLocation      string
	PickupLocationAdded bool
}
