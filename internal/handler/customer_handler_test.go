package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"github.com/stackmint/customer-directory/internal/models"
	"github.com/stackmint/customer-directory/internal/service"
)

// mockCustomerService lets each test wire only the calls it expects.
type mockCustomerService struct {
	createFn            func(ctx context.Context, req service.CreateCustomerRequest) (*models.Customer, error)
	getByIDFn           func(ctx context.Context, id int64) (*models.Customer, error)
	searchFn            func(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error)
	updateFn            func(ctx context.Context, id int64, req service.UpdateCustomerRequest) (*models.Customer, error)
	deleteFn            func(ctx context.Context, id int64) (*models.DeleteResult, error)
	addAddressFn        func(ctx context.Context, customerID int64, req service.CreateAddressRequest) (*models.Customer, error)
	updateAddressFn     func(ctx context.Context, customerID, addressID int64, req service.UpdateAddressRequest) (*models.Customer, error)
	deleteAddressFn     func(ctx context.Context, customerID, addressID int64) (*models.Customer, error)
	setOnlyOneAddressFn func(ctx context.Context, customerID int64, value bool) (*models.Customer, error)
}

var errUnexpectedCall = errors.New("unexpected service call")

func (m *mockCustomerService) Create(ctx context.Context, req service.CreateCustomerRequest) (*models.Customer, error) {
	if m.createFn == nil {
		return nil, errUnexpectedCall
	}
	return m.createFn(ctx, req)
}

func (m *mockCustomerService) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	if m.getByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockCustomerService) Search(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error) {
	if m.searchFn == nil {
		return nil, errUnexpectedCall
	}
	return m.searchFn(ctx, filter)
}

func (m *mockCustomerService) Update(ctx context.Context, id int64, req service.UpdateCustomerRequest) (*models.Customer, error) {
	if m.updateFn == nil {
		return nil, errUnexpectedCall
	}
	return m.updateFn(ctx, id, req)
}

func (m *mockCustomerService) Delete(ctx context.Context, id int64) (*models.DeleteResult, error) {
	if m.deleteFn == nil {
		return nil, errUnexpectedCall
	}
	return m.deleteFn(ctx, id)
}

func (m *mockCustomerService) AddAddress(ctx context.Context, customerID int64, req service.CreateAddressRequest) (*models.Customer, error) {
	if m.addAddressFn == nil {
		return nil, errUnexpectedCall
	}
	return m.addAddressFn(ctx, customerID, req)
}

func (m *mockCustomerService) UpdateAddress(ctx context.Context, customerID, addressID int64, req service.UpdateAddressRequest) (*models.Customer, error) {
	if m.updateAddressFn == nil {
		return nil, errUnexpectedCall
	}
	return m.updateAddressFn(ctx, customerID, addressID, req)
}

func (m *mockCustomerService) DeleteAddress(ctx context.Context, customerID, addressID int64) (*models.Customer, error) {
	if m.deleteAddressFn == nil {
		return nil, errUnexpectedCall
	}
	return m.deleteAddressFn(ctx, customerID, addressID)
}

func (m *mockCustomerService) SetOnlyOneAddress(ctx context.Context, customerID int64, value bool) (*models.Customer, error) {
	if m.setOnlyOneAddressFn == nil {
		return nil, errUnexpectedCall
	}
	return m.setOnlyOneAddressFn(ctx, customerID, value)
}

func newTestRouter(svc service.CustomerService) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewCustomerHandler(svc, logger)

	r := chi.NewRouter()
	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.CreateCustomer)
		r.Get("/", h.ListCustomers)
		r.Get("/{id}", h.GetCustomer)
		r.Patch("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
		r.Post("/{id}/addresses", h.AddAddress)
		r.Patch("/{id}/addresses/{addressId}", h.UpdateAddress)
		r.Delete("/{id}/addresses/{addressId}", h.DeleteAddress)
		r.Patch("/{id}/only-one-address", h.SetOnlyOneAddress)
	})
	return r
}

func performRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestCreateCustomerReturnsCreated(t *testing.T) {
	svc := &mockCustomerService{
		createFn: func(ctx context.Context, req service.CreateCustomerRequest) (*models.Customer, error) {
			if req.FirstName != "Ravi" || req.Phone != "9876543210" {
				t.Errorf("unexpected request payload: %+v", req)
			}
			return &models.Customer{ID: 1, FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone, AccountType: models.AccountTypeStandard, Addresses: []*models.Address{}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPost, "/customers",
		`{"firstName":"Ravi","lastName":"Kumar","phone":"9876543210"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var customer models.Customer
	if err := json.NewDecoder(rec.Body).Decode(&customer); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if customer.ID != 1 {
		t.Errorf("expected customer ID 1, got %d", customer.ID)
	}
	if customer.Addresses == nil {
		t.Error("expected addresses to serialize as an array")
	}
}

func TestCreateCustomerRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(&mockCustomerService{})

	rec := performRequest(t, router, http.MethodPost, "/customers", `{"firstName":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %q", resp.Error.Code)
	}
}

func TestCreateCustomerValidationFailurePropagatesDetails(t *testing.T) {
	details := []string{"firstName is required", "phone is required"}
	svc := &mockCustomerService{
		createFn: func(ctx context.Context, req service.CreateCustomerRequest) (*models.Customer, error) {
			return nil, models.ErrValidationFailed(details)
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPost, "/customers", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %q", resp.Error.Code)
	}
	if len(resp.Error.Details) != len(details) {
		t.Fatalf("expected %d details, got %d: %v", len(details), len(resp.Error.Details), resp.Error.Details)
	}
	for i, want := range details {
		if resp.Error.Details[i] != want {
			t.Errorf("detail %d: expected %q, got %q", i, want, resp.Error.Details[i])
		}
	}
}

func TestGetCustomerRejectsNonNumericID(t *testing.T) {
	router := newTestRouter(&mockCustomerService{})

	rec := performRequest(t, router, http.MethodGet, "/customers/abc", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "INVALID_ID" {
		t.Errorf("expected code INVALID_ID, got %q", resp.Error.Code)
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	svc := &mockCustomerService{
		getByIDFn: func(ctx context.Context, id int64) (*models.Customer, error) {
			return nil, models.ErrNotFoundWithMsg("customer with ID 42 not found")
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodGet, "/customers/42", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %q", resp.Error.Code)
	}
}

func TestListCustomersParsesQueryParameters(t *testing.T) {
	var captured models.CustomerSearchFilter
	svc := &mockCustomerService{
		searchFn: func(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error) {
			captured = filter
			return &models.CustomerList{Items: []*models.Customer{}, Page: filter.Page, Limit: filter.Limit}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodGet,
		"/customers?q=ravi&city=Pune&state=Maharashtra&pincode=411001&onlyOneAddress=true&page=2&limit=5&sortBy=firstName&sortDir=asc", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Q != "ravi" || captured.City != "Pune" || captured.State != "Maharashtra" || captured.Pincode != "411001" {
		t.Errorf("unexpected filter values: %+v", captured)
	}
	if captured.OnlyOneAddress == nil || !*captured.OnlyOneAddress {
		t.Error("expected onlyOneAddress filter to be true")
	}
	if captured.Page != 2 || captured.Limit != 5 {
		t.Errorf("expected page 2 limit 5, got page %d limit %d", captured.Page, captured.Limit)
	}
	if captured.SortBy != "firstName" || captured.SortDir != "asc" {
		t.Errorf("unexpected sort values: %+v", captured)
	}
}

func TestListCustomersIgnoresMalformedFlagFilter(t *testing.T) {
	var captured models.CustomerSearchFilter
	svc := &mockCustomerService{
		searchFn: func(ctx context.Context, filter models.CustomerSearchFilter) (*models.CustomerList, error) {
			captured = filter
			return &models.CustomerList{Items: []*models.Customer{}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodGet, "/customers?onlyOneAddress=banana", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if captured.OnlyOneAddress != nil {
		t.Errorf("expected malformed flag filter to be ignored, got %v", *captured.OnlyOneAddress)
	}
}

func TestUpdateCustomerConflict(t *testing.T) {
	svc := &mockCustomerService{
		updateFn: func(ctx context.Context, id int64, req service.UpdateCustomerRequest) (*models.Customer, error) {
			return nil, models.ErrConflictWithMsg("customer with phone 9876543210 already exists")
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPatch, "/customers/3", `{"phone":"9876543210"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "CONFLICT" {
		t.Errorf("expected code CONFLICT, got %q", resp.Error.Code)
	}
}

func TestDeleteCustomerReturnsDeletedID(t *testing.T) {
	svc := &mockCustomerService{
		deleteFn: func(ctx context.Context, id int64) (*models.DeleteResult, error) {
			return &models.DeleteResult{DeletedID: id}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodDelete, "/customers/9", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var result models.DeleteResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.DeletedID != 9 {
		t.Errorf("expected deletedId 9, got %d", result.DeletedID)
	}
}

func TestAddAddressReturnsCreated(t *testing.T) {
	svc := &mockCustomerService{
		addAddressFn: func(ctx context.Context, customerID int64, req service.CreateAddressRequest) (*models.Customer, error) {
			if customerID != 5 {
				t.Errorf("expected customer ID 5, got %d", customerID)
			}
			return &models.Customer{ID: customerID, HasOnlyOneAddress: true, Addresses: []*models.Address{{ID: 1, CustomerID: customerID, Line1: req.Line1}}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPost, "/customers/5/addresses",
		`{"line1":"12 MG Road","city":"Bengaluru","state":"Karnataka","pincode":"560001"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateAddressRejectsNonNumericAddressID(t *testing.T) {
	router := newTestRouter(&mockCustomerService{})

	rec := performRequest(t, router, http.MethodPatch, "/customers/5/addresses/xyz", `{"city":"Pune"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "INVALID_ID" {
		t.Errorf("expected code INVALID_ID, got %q", resp.Error.Code)
	}
	if resp.Error.Message != "Invalid address ID" {
		t.Errorf("expected address ID message, got %q", resp.Error.Message)
	}
}

func TestDeleteAddressPassesBothIDs(t *testing.T) {
	svc := &mockCustomerService{
		deleteAddressFn: func(ctx context.Context, customerID, addressID int64) (*models.Customer, error) {
			if customerID != 5 || addressID != 12 {
				t.Errorf("expected customer 5 address 12, got %d %d", customerID, addressID)
			}
			return &models.Customer{ID: customerID, Addresses: []*models.Address{}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodDelete, "/customers/5/addresses/12", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestSetOnlyOneAddressRequiresField(t *testing.T) {
	router := newTestRouter(&mockCustomerService{})

	rec := performRequest(t, router, http.MethodPatch, "/customers/5/only-one-address", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "INVALID_INPUT" {
		t.Errorf("expected code INVALID_INPUT, got %q", resp.Error.Code)
	}
}

func TestSetOnlyOneAddressPassesValue(t *testing.T) {
	var gotValue bool
	svc := &mockCustomerService{
		setOnlyOneAddressFn: func(ctx context.Context, customerID int64, value bool) (*models.Customer, error) {
			gotValue = value
			return &models.Customer{ID: customerID, HasOnlyOneAddress: value, Addresses: []*models.Address{}}, nil
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPatch, "/customers/5/only-one-address",
		`{"hasOnlyOneAddress":true}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !gotValue {
		t.Error("expected service to receive value true")
	}
}

func TestSetOnlyOneAddressInvalidState(t *testing.T) {
	svc := &mockCustomerService{
		setOnlyOneAddressFn: func(ctx context.Context, customerID int64, value bool) (*models.Customer, error) {
			return nil, models.ErrInvalidStateWithMsg("customer has 3 addresses, flag requires exactly one")
		},
	}
	router := newTestRouter(svc)

	rec := performRequest(t, router, http.MethodPatch, "/customers/5/only-one-address",
		`{"hasOnlyOneAddress":true}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	resp := decodeErrorResponse(t, rec)
	if resp.Error.Code != "INVALID_STATE" {
		t.Errorf("expected code INVALID_STATE, got %q", resp.Error.Code)
	}
}

func TestHealthReportsHealthyDatabase(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer mockDB.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(mockDB, logger)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" || resp.Services["database"] != "healthy" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHealthReportsDatabaseOutage(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create mock database: %v", err)
	}
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(mockDB, logger)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" || resp.Services["database"] != "unhealthy" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}
