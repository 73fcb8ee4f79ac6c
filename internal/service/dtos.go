package service

import "github.com/stackmint/customer-directory/internal/models"

// CreateCustomerRequest is the payload for creating a customer, optionally
// with nested addresses
type CreateCustomerRequest struct {
	FirstName   string                 `json:"firstName" validate:"required"`
	LastName    string                 `json:"lastName" validate:"required"`
	Phone       string                 `json:"phone" validate:"required,min=6"`
	Email       string                 `json:"email" validate:"omitempty,email"`
	AccountType string                 `json:"accountType" validate:"omitempty,oneof=standard premium enterprise"`
	Addresses   []CreateAddressRequest `json:"addresses" validate:"omitempty,dive"`
}

// CreateAddressRequest is the payload for adding an address
type CreateAddressRequest struct {
	Line1     string `json:"line1" validate:"required"`
	Line2     string `json:"line2"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Country   string `json:"country"`
	Pincode   string `json:"pincode" validate:"required"`
	IsPrimary bool   `json:"isPrimary"`
	Status    string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateCustomerRequest is a partial customer patch; nil fields are left
// untouched
type UpdateCustomerRequest struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1"`
	Phone       *string `json:"phone" validate:"omitempty,min=6"`
	Email       *string `json:"email" validate:"omitempty,email"`
	AccountType *string `json:"accountType" validate:"omitempty,oneof=standard premium enterprise"`
}

// UpdateAddressRequest is a partial address patch; nil fields are left
// untouched. IsPrimary is a pointer so an explicit false survives decoding.
type UpdateAddressRequest struct {
	Line1     *string `json:"line1" validate:"omitempty,min=1"`
	Line2     *string `json:"line2"`
	City      *string `json:"city" validate:"omitempty,min=1"`
	State     *string `json:"state" validate:"omitempty,min=1"`
	Country   *string `json:"country"`
	Pincode   *string `json:"pincode" validate:"omitempty,min=1"`
	IsPrimary *bool   `json:"isPrimary"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// toModel converts the request into a customer record, applying defaults.
// The only-one-address flag starts from the nested address count; every
// subsequent address insert recomputes it.
func (r CreateCustomerRequest) toModel() *models.Customer {
	customer := &models.Customer{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Phone:             r.Phone,
		AccountType:       r.AccountType,
		HasOnlyOneAddress: len(r.Addresses) == 1,
	}

	if r.Email != "" {
		email := r.Email
		customer.Email = &email
	}
	if customer.AccountType == "" {
		customer.AccountType = models.AccountTypeStandard
	}

	return customer
}

// toModel converts the request into an address record, applying defaults
func (r CreateAddressRequest) toModel() *models.Address {
	address := &models.Address{
		Line1:     r.Line1,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		Pincode:   r.Pincode,
		IsPrimary: r.IsPrimary,
		Status:    r.Status,
	}

	if r.Line2 != "" {
		line2 := r.Line2
		address.Line2 = &line2
	}
	if address.Country == "" {
		address.Country = models.DefaultCountry
	}
	if address.Status == "" {
		address.Status = models.AddressStatusActive
	}

	return address
}

// Empty reports whether no patch field was supplied
func (r UpdateCustomerRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Phone == nil &&
		r.Email == nil && r.AccountType == nil
}

func (r UpdateCustomerRequest) toPatch() models.CustomerPatch {
	return models.CustomerPatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		Email:       r.Email,
		AccountType: r.AccountType,
	}
}

func (r UpdateAddressRequest) toPatch() models.AddressPatch {
	return models.AddressPatch{
		Line1:     r.Line1,
		Line2:     r.Line2,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		Pincode:   r.Pincode,
		IsPrimary: r.IsPrimary,
		Status:    r.Status,
	}
}
