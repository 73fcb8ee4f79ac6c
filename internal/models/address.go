package models

import "time"

// Address status constants
const (
	AddressStatusActive   = "active"
	AddressStatusInactive = "inactive"
)

// DefaultCountry is applied when an address payload omits the country
const DefaultCountry = "India"

// Address represents a customer address. At most one address per customer
// carries IsPrimary.
type Address struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customerId"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	Country    string    `json:"country"`
	Pincode    string    `json:"pincode"`
	IsPrimary  bool      `json:"isPrimary"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AddressPatch holds the optional fields of a partial address update.
// Nil means "leave unchanged"; IsPrimary is a pointer so an explicit
// false survives decoding.
type AddressPatch struct {
	Line1     *string
	Line2     *string
	City      *string
	State     *string
	Country   *string
	Pincode   *string
	IsPrimary *bool
	Status    *string
}

// Empty reports whether the patch carries no fields at all
func (p AddressPatch) Empty() bool {
	return p.Line1 == nil && p.Line2 == nil && p.City == nil && p.State == nil &&
		p.Country == nil && p.Pincode == nil && p.IsPrimary == nil && p.Status == nil
}

// IsValidAddressStatus checks if the address status is valid
func IsValidAddressStatus(status string) bool {
	switch status {
	case AddressStatusActive, AddressStatusInactive:
		return true
	default:
		return false
	}
}
