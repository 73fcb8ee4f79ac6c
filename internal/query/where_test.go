package query

import (
	"reflect"
	"testing"
)

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name       string
		build      func() *Where
		wantClause string
		wantArgs   []interface{}
	}{
		{
			name:       "empty builder yields no clause",
			build:      func() *Where { return &Where{} },
			wantClause: "",
			wantArgs:   nil,
		},
		{
			name: "single predicate",
			build: func() *Where {
				return (&Where{}).And("phone = ?", "+911234567890")
			},
			wantClause: " WHERE phone = ?",
			wantArgs:   []interface{}{"+911234567890"},
		},
		{
			name: "predicates joined with AND in insertion order",
			build: func() *Where {
				w := &Where{}
				w.And("first_name LIKE ?", "ani%")
				w.And("has_only_one_address = ?", true)
				return w
			},
			wantClause: " WHERE first_name LIKE ? AND has_only_one_address = ?",
			wantArgs:   []interface{}{"ani%", true},
		},
		{
			name: "predicate with multiple parameters keeps argument order",
			build: func() *Where {
				w := &Where{}
				w.And("(first_name LIKE ? OR last_name LIKE ?)", "a%", "b%")
				w.And("id > ?", int64(7))
				return w
			},
			wantClause: " WHERE (first_name LIKE ? OR last_name LIKE ?) AND id > ?",
			wantArgs:   []interface{}{"a%", "b%", int64(7)},
		},
		{
			name: "predicate without parameters",
			build: func() *Where {
				return (&Where{}).And("email IS NOT NULL")
			},
			wantClause: " WHERE email IS NOT NULL",
			wantArgs:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.build()
			if got := w.Clause(); got != tt.wantClause {
				t.Errorf("Clause() = %q, want %q", got, tt.wantClause)
			}
			if got := w.Args(); !reflect.DeepEqual(got, tt.wantArgs) {
				t.Errorf("Args() = %v, want %v", got, tt.wantArgs)
			}
			if got := w.Empty(); got != (tt.wantClause == "") {
				t.Errorf("Empty() = %v with clause %q", got, tt.wantClause)
			}
		})
	}
}

func TestWhereArgsCopy(t *testing.T) {
	w := &Where{}
	w.And("city = ?", "Bengaluru")
	w.And("state = ?", "Karnataka")

	count := w.Args()
	page := append(w.Args(), 20, 40)

	count[0] = "overwritten"
	if got := w.Args()[0]; got != "Bengaluru" {
		t.Errorf("builder args mutated through a returned slice: got %v", got)
	}
	if page[0] != "Bengaluru" || page[2] != 20 || page[3] != 40 {
		t.Errorf("appended args = %v, want base args plus 20, 40", page)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "anita", "anita"},
		{"percent escaped", "100%", `100\%`},
		{"underscore escaped", "user_name", `user\_name`},
		{"backslash escaped first", `a\b`, `a\\b`},
		{"mixed wildcards", `50%_off\now`, `50\%\_off\\now`},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeLike(tt.input); got != tt.want {
				t.Errorf("EscapeLike(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCustomerSortColumn(t *testing.T) {
	tests := []struct {
		name   string
		sortBy string
		want   string
	}{
		{"createdAt maps to created_at", "createdAt", "created_at"},
		{"updatedAt maps to updated_at", "updatedAt", "updated_at"},
		{"firstName maps to first_name", "firstName", "first_name"},
		{"lastName maps to last_name", "lastName", "last_name"},
		{"phone passes through", "phone", "phone"},
		{"id passes through", "id", "id"},
		{"unknown key falls back to created_at", "passwordHash", "created_at"},
		{"empty key falls back to created_at", "", "created_at"},
		{"raw column name is not accepted", "created_at", "created_at"},
		{"injection attempt falls back", "id; DROP TABLE customers", "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CustomerSortColumn(tt.sortBy); got != tt.want {
				t.Errorf("CustomerSortColumn(%q) = %q, want %q", tt.sortBy, got, tt.want)
			}
		})
	}
}

func TestDirection(t *testing.T) {
	tests := []struct {
		name    string
		sortDir string
		want    string
	}{
		{"asc lowercase", "asc", "ASC"},
		{"asc uppercase", "ASC", "ASC"},
		{"asc mixed case", "Asc", "ASC"},
		{"desc", "desc", "DESC"},
		{"empty defaults to DESC", "", "DESC"},
		{"garbage defaults to DESC", "sideways", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Direction(tt.sortDir); got != tt.want {
				t.Errorf("Direction(%q) = %q, want %q", tt.sortDir, got, tt.want)
			}
		})
	}
}
