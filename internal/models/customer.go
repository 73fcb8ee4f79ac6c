package models

import "time"

// Account type constants
const (
	AccountTypeStandard   = "standard"
	AccountTypePremium    = "premium"
	AccountTypeEnterprise = "enterprise"
)

// Customer represents a customer record with its addresses
type Customer struct {
	ID                int64      `json:"id"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Phone             string     `json:"phone"`
	Email             *string    `json:"email,omitempty"`
	AccountType       string     `json:"accountType"`
	HasOnlyOneAddress bool       `json:"hasOnlyOneAddress"`
	Addresses         []*Address `json:"addresses"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CustomerPatch holds the optional fields of a partial customer update.
// Nil means "leave unchanged".
type CustomerPatch struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Email       *string
	AccountType *string
}

// Empty reports whether the patch carries no fields at all
func (p CustomerPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.Email == nil && p.AccountType == nil
}

// CustomerSearchFilter holds search, filtering, sorting and pagination
// options for listing customers
type CustomerSearchFilter struct {
	Q              string
	City           string
	State          string
	Pincode        string
	OnlyOneAddress *bool
	Page           int
	Limit          int
	SortBy         string
	SortDir        string
}

// CustomerList is the paginated result of a customer search
type CustomerList struct {
	Items []*Customer `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Pages int         `json:"pages"`
}

// DeleteResult confirms which customer a delete removed
type DeleteResult struct {
	DeletedID int64 `json:"deletedId"`
}

// IsValidAccountType checks if the account type is valid
func IsValidAccountType(t string) bool {
	switch t {
	case AccountTypeStandard, AccountTypePremium, AccountTypeEnterprise:
		return true
	default:
		return false
	}
}
