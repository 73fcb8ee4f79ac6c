package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/stackmint/customer-directory/internal/models"
	"github.com/stackmint/customer-directory/internal/repository"
)

// CustomerService handles customer business logic
type CustomerService interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Search(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error)
	Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, id int64) (*models.DeleteResult, error)
	AddAddress(ctx context.Context, customerID int64, req CreateAddressRequest) (*models.Customer, error)
	UpdateAddress(ctx context.Context, customerID, addressID int64, req UpdateAddressRequest) (*models.Customer, error)
	DeleteAddress(ctx context.Context, customerID, addressID int64) (*models.Customer, error)
	SetOnlyOneAddress(ctx context.Context, customerID int64, value bool) (*models.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	logger *slog.Logger,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		validate:     newValidator(),
		logger:       logger,
	}
}

// Create validates the payload, enforces phone/email uniqueness, then
// persists the customer followed by its nested addresses. At most one
// nested address may be marked primary.
func (s *customerService) Create(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	// Check uniqueness before writing anything
	phoneTaken, err := s.customerRepo.ExistsByPhone(ctx, req.Phone, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}
	if phoneTaken {
		return nil, models.ErrConflictWithMsg(
			fmt.Sprintf("customer with phone %s already exists", req.Phone),
		)
	}

	emailTaken, err := s.customerRepo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return nil, models.ErrConflictWithMsg(
			fmt.Sprintf("customer with email %s already exists", req.Email),
		)
	}

	primaries := 0
	for _, address := range req.Addresses {
		if address.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, models.ErrInvalidInput("only one address can be marked as primary")
	}

	customer := req.toModel()
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		s.logger.Error("failed to create customer",
			slog.String("phone", req.Phone),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	// Each insert runs through the primary-clearing and flag-recompute
	// path, so the last one returns the final hydrated state.
	result := customer
	for _, addressReq := range req.Addresses {
		updated, err := s.customerRepo.AddAddress(ctx, customer.ID, addressReq.toModel())
		if err != nil {
			s.logger.Error("failed to add address",
				slog.Int64("customer_id", customer.ID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("failed to add address: %w", err)
		}
		result = updated
	}

	s.logger.Info("customer created",
		slog.Int64("customer_id", customer.ID),
		slog.String("phone", customer.Phone),
	)

	return result, nil
}

// GetByID retrieves a customer by ID
func (s *customerService) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return customer, nil
}

// Search retrieves customers matching the filter with pagination metadata
func (s *customerService) Search(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error) {
	models.NormalizePagination(&filter.Page, &filter.Limit)

	customers, total, err := s.customerRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search customers: %w", err)
	}

	return models.NewCustomerList(customers, total, filter.Page, filter.Limit), nil
}

// Update applies a partial patch to a customer. At least one field must be
// supplied, and a changed phone/email must not collide with another customer.
func (s *customerService) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*models.Customer, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	if req.Empty() {
		return nil, models.ErrValidationFailed([]string{"at least one field must be provided"})
	}

	if req.Phone != nil {
		taken, err := s.customerRepo.ExistsByPhone(ctx, *req.Phone, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone: %w", err)
		}
		if taken {
			return nil, models.ErrConflictWithMsg(
				fmt.Sprintf("customer with phone %s already exists", *req.Phone),
			)
		}
	}

	if req.Email != nil && *req.Email != "" {
		taken, err := s.customerRepo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return nil, models.ErrConflictWithMsg(
				fmt.Sprintf("customer with email %s already exists", *req.Email),
			)
		}
	}

	customer, err := s.customerRepo.Update(ctx, id, req.toPatch())
	if err != nil {
		s.logger.Error("failed to update customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.logger.Info("customer updated",
		slog.Int64("customer_id", id),
	)

	return customer, nil
}

// Delete removes a customer and, through the cascade, its addresses
func (s *customerService) Delete(ctx context.Context, id int64) (*models.DeleteResult, error) {
	deleted, err := s.customerRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete customer",
			slog.Int64("customer_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to delete customer: %w", err)
	}

	if !deleted {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	s.logger.Info("customer deleted",
		slog.Int64("customer_id", id),
	)

	return &models.DeleteResult{DeletedID: id}, nil
}

// AddAddress validates the payload and inserts the address atomically
func (s *customerService) AddAddress(ctx context.Context, customerID int64, req CreateAddressRequest) (*models.Customer, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.AddAddress(ctx, customerID, req.toModel())
	if err != nil {
		s.logger.Error("failed to add address",
			slog.Int64("customer_id", customerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to add address: %w", err)
	}

	s.logger.Info("address added",
		slog.Int64("customer_id", customerID),
	)

	return customer, nil
}

// UpdateAddress validates the supplied fields and applies the patch to an
// address scoped to its owning customer. The record layer treats an empty
// patch as a refresh: no column changes, flag recomputed, current record back.
func (s *customerService) UpdateAddress(ctx context.Context, customerID, addressID int64, req UpdateAddressRequest) (*models.Customer, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	customer, err := s.customerRepo.UpdateAddress(ctx, customerID, addressID, req.toPatch())
	if err != nil {
		s.logger.Error("failed to update address",
			slog.Int64("customer_id", customerID),
			slog.Int64("address_id", addressID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to update address: %w", err)
	}

	s.logger.Info("address updated",
		slog.Int64("customer_id", customerID),
		slog.Int64("address_id", addressID),
	)

	return customer, nil
}

// DeleteAddress removes an address scoped to its owning customer
func (s *customerService) DeleteAddress(ctx context.Context, customerID, addressID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.DeleteAddress(ctx, customerID, addressID)
	if err != nil {
		s.logger.Error("failed to delete address",
			slog.Int64("customer_id", customerID),
			slog.Int64("address_id", addressID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to delete address: %w", err)
	}

	s.logger.Info("address deleted",
		slog.Int64("customer_id", customerID),
		slog.Int64("address_id", addressID),
	)

	return customer, nil
}

// SetOnlyOneAddress sets the derived flag explicitly; the record layer
// rejects values that contradict the actual address count
func (s *customerService) SetOnlyOneAddress(ctx context.Context, customerID int64, value bool) (*models.Customer, error) {
	customer, err := s.customerRepo.SetOnlyOneAddress(ctx, customerID, value)
	if err != nil {
		s.logger.Error("failed to set only-one-address flag",
			slog.Int64("customer_id", customerID),
			slog.Bool("value", value),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to set only-one-address flag: %w", err)
	}

	s.logger.Info("only-one-address flag set",
		slog.Int64("customer_id", customerID),
		slog.Bool("value", value),
	)

	return customer, nil
}
