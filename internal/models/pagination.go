package models

// Pagination defaults and bounds
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// NormalizePagination validates pagination parameters and sets defaults:
// page is at least 1, limit defaults to 10 and is clamped to [1,100]
func NormalizePagination(page, limit *int) {
	if *page < 1 {
		*page = DefaultPage
	}
	if *limit == 0 {
		*limit = DefaultLimit
	}
	if *limit < 1 {
		*limit = 1
	}
	if *limit > MaxLimit {
		*limit = MaxLimit
	}
}

// CalculateOffset calculates the SQL offset for pagination
func CalculateOffset(page, limit int) int {
	return (page - 1) * limit
}

// PageCount returns the number of pages needed for total items, 0 when
// there are none
func PageCount(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}

// NewCustomerList assembles a paginated customer result
func NewCustomerList(items []*Customer, total int64, page, limit int) *CustomerList {
	if items == nil {
		items = []*Customer{}
	}
	return &CustomerList{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: PageCount(total, limit),
	}
}
