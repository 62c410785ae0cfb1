package domain

import "time"

type Address struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	PinCode   string `json:"pinCode"`
	Country   string `json:"country"`
	IsPrimary bool   `json:"isPrimary"`
}

// User is an external collaborator entity; the order core only needs the
// notification target and shipping address.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Addresses    []Address
	RewardPoints int
	LastActiveAt time.Time
}

// AddressByID returns the address with the given id, or nil.
func (u *User) AddressByID(id string) *Address {
	for i := range u.Addresses {
		if u.Addresses[i].ID == id {
			return &u.Addresses[i]
		}
	}
	return nil
}
