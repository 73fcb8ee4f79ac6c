// Package query builds parameterized SQL fragments for customer search.
// User input only ever travels through bound parameters; identifiers come
// from fixed whitelists.
package query

import "strings"

// Where accumulates predicate/parameter pairs that are AND-combined into
// one parameterized clause. Expressions use ? placeholders; the executing
// repository rebinds them to the driver's syntax.
type Where struct {
	exprs []string
	args  []interface{}
}

// And appends a predicate and its parameters
func (w *Where) And(expr string, args ...interface{}) *Where {
	w.exprs = append(w.exprs, expr)
	w.args = append(w.args, args...)
	return w
}

// Empty reports whether no predicates were added
func (w *Where) Empty() bool {
	return len(w.exprs) == 0
}

// Clause returns the assembled " WHERE ..." fragment, or "" when no
// predicates are active
func (w *Where) Clause() string {
	if w.Empty() {
		return ""
	}
	return " WHERE " + strings.Join(w.exprs, " AND ")
}

// Args returns a copy of the parameters in placeholder order. Callers
// may append to the result without aliasing the builder's own slice.
func (w *Where) Args() []interface{} {
	if len(w.args) == 0 {
		return nil
	}
	args := make([]interface{}, len(w.args))
	copy(args, w.args)
	return args
}

// EscapeLike escapes LIKE wildcards so the input matches literally.
// The produced pattern must be used with ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// customerSortColumns whitelists the sortable customer columns. Anything
// else falls back to created_at rather than reaching the SQL text.
var customerSortColumns = map[string]string{
	"id":        "id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"firstName": "first_name",
	"lastName":  "last_name",
	"phone":     "phone",
}

// CustomerSortColumn maps a requested sort key to its column name,
// defaulting to created_at
func CustomerSortColumn(sortBy string) string {
	if col, ok := customerSortColumns[sortBy]; ok {
		return col
	}
	return "created_at"
}

// Direction normalizes a sort direction: "asc" in any case means ASC,
// everything else DESC
func Direction(sortDir string) string {
	if strings.EqualFold(sortDir, "asc") {
		return "ASC"
	}
	return "DESC"
}
