package incidents

import "github.com/tracepoint-io/tracepoint/internal/domain"

// Pagination defaults and bounds.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListParams holds the raw list parameters after boundary validation.
// Zero values mean "absent".
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	Service   string
	Severity  []domain.Severity
	Status    []domain.IncidentStatus
	SortBy    string
	SortOrder string
}

// Condition is a single predicate in a filter conjunction.
type Condition interface {
	isCondition()
}

// SearchCondition matches rows whose title OR summary contains the term,
// case-insensitively.
type SearchCondition struct {
	Term string
}

// ExactCondition matches rows whose column equals the value.
type ExactCondition struct {
	Column string
	Value  string
}

// SetCondition matches rows whose column is one of the values.
type SetCondition struct {
	Column string
	Values []string
}

func (SearchCondition) isCondition() {}
func (ExactCondition) isCondition()  {}
func (SetCondition) isCondition()    {}

// ListQuery is the validated, safe query specification handed to the store.
// Conditions compose via logical AND.
type ListQuery struct {
	Conditions []Condition
	OrderBy    string // SQL column name, always from the whitelist
	Descending bool
	Skip       int
	Limit      int
}

// sortColumns whitelists sortBy values and maps them to SQL column names.
// Membership is a case-sensitive exact match; anything else falls back to
// created_at so unvalidated column names never reach the datastore.
var sortColumns = map[string]string{
	"title":     "title",
	"service":   "service",
	"severity":  "severity",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"owner":     "owner",
}

// BuildListQuery converts list parameters into a safe query specification.
// It is pure and never fails: invalid input normalizes to safe defaults.
func BuildListQuery(p ListParams) ListQuery {
	page := p.Page
	if page < 1 {
		page = DefaultPage
	}
	pageSize := p.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	conditions := make([]Condition, 0, 4)

	if p.Search != "" {
		conditions = append(conditions, SearchCondition{Term: p.Search})
	}
	if p.Service != "" {
		conditions = append(conditions, ExactCondition{Column: "service", Value: p.Service})
	}
	if len(p.Severity) > 0 {
		values := make([]string, 0, len(p.Severity))
		for _, s := range p.Severity {
			values = append(values, string(s))
		}
		conditions = append(conditions, SetCondition{Column: "severity", Values: values})
	}
	if len(p.Status) > 0 {
		values := make([]string, 0, len(p.Status))
		for _, s := range p.Status {
			values = append(values, string(s))
		}
		conditions = append(conditions, SetCondition{Column: "status", Values: values})
	}

	orderBy, ok := sortColumns[p.SortBy]
	if !ok {
		orderBy = "created_at"
	}

	return ListQuery{
		Conditions: conditions,
		OrderBy:    orderBy,
		Descending: p.SortOrder != "asc",
		Skip:       (page - 1) * pageSize,
		Limit:      pageSize,
	}
}
