package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/stackmint/customer-directory/internal/models"
	"github.com/stackmint/customer-directory/internal/query"
)

// CustomerRepository defines the interface for customer and address data access
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Update(ctx context.Context, id int64, patch models.CustomerPatch) (*models.Customer, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, filter models.CustomerSearchFilter) ([]*models.Customer, int64, error)
	ExistsByPhone(ctx context.Context, phone string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	AddAddress(ctx context.Context, customerID int64, address *models.Address) (*models.Customer, error)
	UpdateAddress(ctx context.Context, customerID, addressID int64, patch models.AddressPatch) (*models.Customer, error)
	DeleteAddress(ctx context.Context, customerID, addressID int64) (*models.Customer, error)
	SetOnlyOneAddress(ctx context.Context, customerID int64, value bool) (*models.Customer, error)
}

// customerRepository implements CustomerRepository against SQLite or Postgres.
// Statements are written with ? placeholders and rebound for the active driver.
type customerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, first_name, last_name, phone, email, account_type, has_only_one_address, created_at, updated_at`

const addressColumns = `id, customer_id, line1, line2, city, state, country, pincode, is_primary, status, created_at, updated_at`

// Create inserts a new customer row. Addresses are added separately so each
// insert runs through the primary-clearing and flag-recompute path.
func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	stmt := r.db.Rebind(`
		INSERT INTO customers (first_name, last_name, phone, email, account_type, has_only_one_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.db.QueryRowContext(
		ctx,
		stmt,
		customer.FirstName,
		customer.LastName,
		customer.Phone,
		customer.Email,
		customer.AccountType,
		customer.HasOnlyOneAddress,
		customer.CreatedAt,
		customer.UpdatedAt,
	).Scan(&customer.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflictWithMsg("phone or email already in use")
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	if customer.Addresses == nil {
		customer.Addresses = []*models.Address{}
	}

	return nil
}

// GetByID retrieves a customer by ID with its addresses hydrated
func (r *customerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	return hydrateCustomer(ctx, r.db, id)
}

// Update applies only the supplied patch fields and refreshes updated_at.
// An empty patch returns the current record unchanged.
func (r *customerRepository) Update(ctx context.Context, id int64, patch models.CustomerPatch) (*models.Customer, error) {
	if patch.Empty() {
		return hydrateCustomer(ctx, r.db, id)
	}

	sets := []string{}
	args := []interface{}{}

	if patch.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, *patch.LastName)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Email != nil {
		// Empty email is stored as NULL so the unique constraint ignores it.
		sets = append(sets, "email = ?")
		if *patch.Email == "" {
			args = append(args, nil)
		} else {
			args = append(args, *patch.Email)
		}
	}
	if patch.AccountType != nil {
		sets = append(sets, "account_type = ?")
		args = append(args, *patch.AccountType)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	stmt := r.db.Rebind(fmt.Sprintf("UPDATE customers SET %s WHERE id = ?", strings.Join(sets, ", ")))

	result, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrConflictWithMsg("phone or email already in use")
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}

	return hydrateCustomer(ctx, r.db, id)
}

// Delete removes a customer. Address rows go with it through the cascading
// foreign key. Returns true iff a row was removed.
func (r *customerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	stmt := r.db.Rebind(`DELETE FROM customers WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete customer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Search retrieves distinct customers matching the filter, hydrated with
// addresses, with a total count sharing the same predicates
func (r *customerRepository) Search(ctx context.Context, filter models.CustomerSearchFilter) ([]*models.Customer, int64, error) {
	models.NormalizePagination(&filter.Page, &filter.Limit)

	w := &query.Where{}

	if filter.Q != "" {
		pattern := "%" + query.EscapeLike(strings.ToLower(filter.Q)) + "%"
		w.And(`(LOWER(first_name) LIKE ? ESCAPE '\'
			OR LOWER(last_name) LIKE ? ESCAPE '\'
			OR LOWER(phone) LIKE ? ESCAPE '\'
			OR LOWER(email) LIKE ? ESCAPE '\'
			OR EXISTS (
				SELECT 1 FROM addresses a
				WHERE a.customer_id = customers.id
				AND (LOWER(a.line1) LIKE ? ESCAPE '\'
					OR LOWER(a.city) LIKE ? ESCAPE '\'
					OR LOWER(a.state) LIKE ? ESCAPE '\'
					OR LOWER(a.pincode) LIKE ? ESCAPE '\')))`,
			pattern, pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}

	// Exact address filters must all hold on the same address row.
	addrConds := []string{}
	addrArgs := []interface{}{}
	if filter.City != "" {
		addrConds = append(addrConds, "a.city = ?")
		addrArgs = append(addrArgs, filter.City)
	}
	if filter.State != "" {
		addrConds = append(addrConds, "a.state = ?")
		addrArgs = append(addrArgs, filter.State)
	}
	if filter.Pincode != "" {
		addrConds = append(addrConds, "a.pincode = ?")
		addrArgs = append(addrArgs, filter.Pincode)
	}
	if len(addrConds) > 0 {
		w.And("EXISTS (SELECT 1 FROM addresses a WHERE a.customer_id = customers.id AND "+strings.Join(addrConds, " AND ")+")", addrArgs...)
	}

	if filter.OnlyOneAddress != nil {
		w.And("has_only_one_address = ?", *filter.OnlyOneAddress)
	}

	// Get total count with the same predicates
	var total int64
	countStmt := r.db.Rebind("SELECT COUNT(*) FROM customers" + w.Clause())
	if err := r.db.QueryRowContext(ctx, countStmt, w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	dir := query.Direction(filter.SortDir)
	orderBy := fmt.Sprintf(" ORDER BY %s %s, id %s", query.CustomerSortColumn(filter.SortBy), dir, dir)

	listStmt := r.db.Rebind("SELECT " + customerColumns + " FROM customers" + w.Clause() + orderBy + " LIMIT ? OFFSET ?")
	args := append(w.Args(), filter.Limit, models.CalculateOffset(filter.Page, filter.Limit))

	rows, err := r.db.QueryContext(ctx, listStmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search customers: %w", err)
	}
	defer rows.Close()

	customers := []*models.Customer{}
	for rows.Next() {
		customer := &models.Customer{Addresses: []*models.Address{}}
		err := rows.Scan(
			&customer.ID,
			&customer.FirstName,
			&customer.LastName,
			&customer.Phone,
			&customer.Email,
			&customer.AccountType,
			&customer.HasOnlyOneAddress,
			&customer.CreatedAt,
			&customer.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, customer)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customers: %w", err)
	}

	if err := r.attachAddresses(ctx, customers); err != nil {
		return nil, 0, err
	}

	return customers, total, nil
}

// attachAddresses hydrates the addresses of a result page in one query
func (r *customerRepository) attachAddresses(ctx context.Context, customers []*models.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(customers))
	byID := make(map[int64]*models.Customer, len(customers))
	for _, customer := range customers {
		ids = append(ids, customer.ID)
		byID[customer.ID] = customer
	}

	stmt, inArgs, err := sqlx.In("SELECT "+addressColumns+" FROM addresses WHERE customer_id IN (?) ORDER BY is_primary DESC, id ASC", ids)
	if err != nil {
		return fmt.Errorf("failed to build address query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(stmt), inArgs...)
	if err != nil {
		return fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		address := &models.Address{}
		err := rows.Scan(
			&address.ID,
			&address.CustomerID,
			&address.Line1,
			&address.Line2,
			&address.City,
			&address.State,
			&address.Country,
			&address.Pincode,
			&address.IsPrimary,
			&address.Status,
			&address.CreatedAt,
			&address.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan address: %w", err)
		}
		if customer, ok := byID[address.CustomerID]; ok {
			customer.Addresses = append(customer.Addresses, address)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating addresses: %w", err)
	}

	return nil
}

// ExistsByPhone reports whether any customer other than excludeID holds the
// phone number. Pass excludeID 0 to check against all customers.
func (r *customerRepository) ExistsByPhone(ctx context.Context, phone string, excludeID int64) (bool, error) {
	stmt := `SELECT EXISTS (SELECT 1 FROM customers WHERE phone = ?)`
	args := []interface{}{phone}
	if excludeID > 0 {
		stmt = `SELECT EXISTS (SELECT 1 FROM customers WHERE phone = ? AND id != ?)`
		args = append(args, excludeID)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(stmt), args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}

	return exists, nil
}

// ExistsByEmail reports whether any customer other than excludeID holds the
// email. An empty email never conflicts.
func (r *customerRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	if email == "" {
		return false, nil
	}

	stmt := `SELECT EXISTS (SELECT 1 FROM customers WHERE email = ?)`
	args := []interface{}{email}
	if excludeID > 0 {
		stmt = `SELECT EXISTS (SELECT 1 FROM customers WHERE email = ? AND id != ?)`
		args = append(args, excludeID)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(stmt), args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return exists, nil
}

// AddAddress inserts an address for a customer in a single transaction:
// clears sibling primaries when the new address is primary, inserts, then
// recomputes has_only_one_address from the post-insert count
func (r *customerRepository) AddAddress(ctx context.Context, customerID int64, address *models.Address) (*models.Customer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	if err := ensureCustomer(ctx, tx, customerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if address.IsPrimary {
		if err := clearPrimaryAddresses(ctx, tx, customerID, 0, now); err != nil {
			return nil, err
		}
	}

	address.CustomerID = customerID
	address.CreatedAt = now
	address.UpdatedAt = now

	stmt := tx.Rebind(`
		INSERT INTO addresses (customer_id, line1, line2, city, state, country, pincode, is_primary, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err = tx.QueryRowContext(
		ctx,
		stmt,
		address.CustomerID,
		address.Line1,
		address.Line2,
		address.City,
		address.State,
		address.Country,
		address.Pincode,
		address.IsPrimary,
		address.Status,
		address.CreatedAt,
		address.UpdatedAt,
	).Scan(&address.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrConflictWithMsg("another address is already marked primary")
		}
		return nil, fmt.Errorf("failed to insert address: %w", err)
	}

	if err := recomputeOnlyOneAddress(ctx, tx, customerID, now); err != nil {
		return nil, err
	}

	customer, err := hydrateCustomer(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return customer, nil
}

// UpdateAddress applies a partial patch to an address scoped to its owning
// customer, clearing sibling primaries first when the patch promotes it
func (r *customerRepository) UpdateAddress(ctx context.Context, customerID, addressID int64, patch models.AddressPatch) (*models.Customer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	if err := ensureCustomer(ctx, tx, customerID); err != nil {
		return nil, err
	}
	if err := ensureAddress(ctx, tx, customerID, addressID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if !patch.Empty() {
		if patch.IsPrimary != nil && *patch.IsPrimary {
			if err := clearPrimaryAddresses(ctx, tx, customerID, addressID, now); err != nil {
				return nil, err
			}
		}

		sets := []string{}
		args := []interface{}{}

		if patch.Line1 != nil {
			sets = append(sets, "line1 = ?")
			args = append(args, *patch.Line1)
		}
		if patch.Line2 != nil {
			sets = append(sets, "line2 = ?")
			if *patch.Line2 == "" {
				args = append(args, nil)
			} else {
				args = append(args, *patch.Line2)
			}
		}
		if patch.City != nil {
			sets = append(sets, "city = ?")
			args = append(args, *patch.City)
		}
		if patch.State != nil {
			sets = append(sets, "state = ?")
			args = append(args, *patch.State)
		}
		if patch.Country != nil {
			sets = append(sets, "country = ?")
			args = append(args, *patch.Country)
		}
		if patch.Pincode != nil {
			sets = append(sets, "pincode = ?")
			args = append(args, *patch.Pincode)
		}
		if patch.IsPrimary != nil {
			sets = append(sets, "is_primary = ?")
			args = append(args, *patch.IsPrimary)
		}
		if patch.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, *patch.Status)
		}

		sets = append(sets, "updated_at = ?")
		args = append(args, now)
		args = append(args, addressID, customerID)

		stmt := tx.Rebind(fmt.Sprintf("UPDATE addresses SET %s WHERE id = ? AND customer_id = ?", strings.Join(sets, ", ")))

		result, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, models.ErrConflictWithMsg("another address is already marked primary")
			}
			return nil, fmt.Errorf("failed to update address: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("address with ID %d not found for customer %d", addressID, customerID))
		}

		if err := recomputeOnlyOneAddress(ctx, tx, customerID, now); err != nil {
			return nil, err
		}
	}

	customer, err := hydrateCustomer(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return customer, nil
}

// DeleteAddress removes an address scoped to its owning customer and
// recomputes has_only_one_address from the remaining count
func (r *customerRepository) DeleteAddress(ctx context.Context, customerID, addressID int64) (*models.Customer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	if err := ensureCustomer(ctx, tx, customerID); err != nil {
		return nil, err
	}

	stmt := tx.Rebind(`DELETE FROM addresses WHERE id = ? AND customer_id = ?`)

	result, err := tx.ExecContext(ctx, stmt, addressID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete address: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("address with ID %d not found for customer %d", addressID, customerID))
	}

	if err := recomputeOnlyOneAddress(ctx, tx, customerID, time.Now().UTC()); err != nil {
		return nil, err
	}

	customer, err := hydrateCustomer(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return customer, nil
}

// SetOnlyOneAddress sets the flag explicitly, bypassing recomputation. The
// requested value must agree with the actual address count: true requires
// exactly one address, false requires more than one.
func (r *customerRepository) SetOnlyOneAddress(ctx context.Context, customerID int64, value bool) (*models.Customer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is safe to call even after Commit
	}()

	if err := ensureCustomer(ctx, tx, customerID); err != nil {
		return nil, err
	}

	var count int
	countStmt := tx.Rebind(`SELECT COUNT(*) FROM addresses WHERE customer_id = ?`)
	if err := tx.QueryRowContext(ctx, countStmt, customerID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count addresses: %w", err)
	}

	if value && count != 1 {
		return nil, models.ErrInvalidStateWithMsg(fmt.Sprintf("customer has %d addresses, flag requires exactly one", count))
	}
	if !value && count <= 1 {
		return nil, models.ErrInvalidStateWithMsg(fmt.Sprintf("customer has %d addresses, flag can only be cleared with more than one", count))
	}

	stmt := tx.Rebind(`UPDATE customers SET has_only_one_address = ?, updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, stmt, value, time.Now().UTC(), customerID); err != nil {
		return nil, fmt.Errorf("failed to set only-one-address flag: %w", err)
	}

	customer, err := hydrateCustomer(ctx, tx, customerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return customer, nil
}

// hydrateCustomer loads a customer row and its addresses through the given
// handle, which may be the pool or an open transaction
func hydrateCustomer(ctx context.Context, q sqlx.ExtContext, id int64) (*models.Customer, error) {
	stmt := q.Rebind(`SELECT ` + customerColumns + ` FROM customers WHERE id = ?`)

	customer := &models.Customer{}
	err := q.QueryRowxContext(ctx, stmt, id).Scan(
		&customer.ID,
		&customer.FirstName,
		&customer.LastName,
		&customer.Phone,
		&customer.Email,
		&customer.AccountType,
		&customer.HasOnlyOneAddress,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	addresses, err := fetchAddresses(ctx, q, id)
	if err != nil {
		return nil, err
	}
	customer.Addresses = addresses

	return customer, nil
}

// fetchAddresses loads the addresses of one customer ordered primary-first,
// then by id ascending
func fetchAddresses(ctx context.Context, q sqlx.ExtContext, customerID int64) ([]*models.Address, error) {
	stmt := q.Rebind(`SELECT ` + addressColumns + ` FROM addresses WHERE customer_id = ? ORDER BY is_primary DESC, id ASC`)

	rows, err := q.QueryxContext(ctx, stmt, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []*models.Address{}
	for rows.Next() {
		address := &models.Address{}
		err := rows.Scan(
			&address.ID,
			&address.CustomerID,
			&address.Line1,
			&address.Line2,
			&address.City,
			&address.State,
			&address.Country,
			&address.Pincode,
			&address.IsPrimary,
			&address.Status,
			&address.CreatedAt,
			&address.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, address)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// ensureCustomer fails with NotFound when the customer does not exist
func ensureCustomer(ctx context.Context, q sqlx.ExtContext, id int64) error {
	var one int
	err := q.QueryRowxContext(ctx, q.Rebind(`SELECT 1 FROM customers WHERE id = ?`), id).Scan(&one)
	if err == sql.ErrNoRows {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("customer with ID %d not found", id))
	}
	if err != nil {
		return fmt.Errorf("failed to check customer: %w", err)
	}
	return nil
}

// ensureAddress fails with NotFound when the address does not exist under
// the customer
func ensureAddress(ctx context.Context, q sqlx.ExtContext, customerID, addressID int64) error {
	var one int
	err := q.QueryRowxContext(ctx, q.Rebind(`SELECT 1 FROM addresses WHERE id = ? AND customer_id = ?`), addressID, customerID).Scan(&one)
	if err == sql.ErrNoRows {
		return models.ErrNotFoundWithMsg(fmt.Sprintf("address with ID %d not found for customer %d", addressID, customerID))
	}
	if err != nil {
		return fmt.Errorf("failed to check address: %w", err)
	}
	return nil
}

// clearPrimaryAddresses demotes every primary address of a customer except
// exceptID. Pass exceptID 0 to demote all of them.
func clearPrimaryAddresses(ctx context.Context, q sqlx.ExtContext, customerID, exceptID int64, now time.Time) error {
	stmt := `UPDATE addresses SET is_primary = ?, updated_at = ? WHERE customer_id = ? AND is_primary = ?`
	args := []interface{}{false, now, customerID, true}
	if exceptID > 0 {
		stmt += ` AND id != ?`
		args = append(args, exceptID)
	}

	if _, err := q.ExecContext(ctx, q.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("failed to clear primary addresses: %w", err)
	}
	return nil
}

// recomputeOnlyOneAddress refreshes the derived flag from the current
// address count
func recomputeOnlyOneAddress(ctx context.Context, q sqlx.ExtContext, customerID int64, now time.Time) error {
	stmt := q.Rebind(`
		UPDATE customers
		SET has_only_one_address = ((SELECT COUNT(*) FROM addresses WHERE customer_id = ?) = 1), updated_at = ?
		WHERE id = ?`)

	if _, err := q.ExecContext(ctx, stmt, customerID, now, customerID); err != nil {
		return fmt.Errorf("failed to recompute only-one-address flag: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint violation
// from either supported driver
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
