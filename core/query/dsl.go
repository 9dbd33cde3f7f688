// Package query defines the predicate AST produced by the filter compiler and
// consumed by the query backends. A filter is a tagged union of single
// conditions and AND/OR groups over field references, together with sort and
// pagination options.
package query

// LogicalOperator combines the conditions of a filter group.
type LogicalOperator string

// Supported logical operators.
const (
	LogicalOperatorAnd LogicalOperator = "and"
	LogicalOperatorOr  LogicalOperator = "or"
)

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq       ComparisonOperator = "eq"
	ComparisonOperatorNeq      ComparisonOperator = "neq"
	ComparisonOperatorLt       ComparisonOperator = "lt"
	ComparisonOperatorLte      ComparisonOperator = "lte"
	ComparisonOperatorGt       ComparisonOperator = "gt"
	ComparisonOperatorGte      ComparisonOperator = "gte"
	ComparisonOperatorIn       ComparisonOperator = "in"
	ComparisonOperatorNin      ComparisonOperator = "nin"
	ComparisonOperatorContains ComparisonOperator = "contains" // case-insensitive substring
	ComparisonOperatorIsNull   ComparisonOperator = "isnull"
	ComparisonOperatorNotNull  ComparisonOperator = "notnull"
)

// FilterValue is the operand of a condition. Values are already typed by the
// producer (string, bool, int64, float64, uuid.UUID, time.Time, nil, or a slice
// of those for in/nin).
type FilterValue any

// FilterCondition defines a single condition for filtering the results of a query.
type FilterCondition struct {
	Field    string             // The field to apply the filter on.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filters using a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator
	Conditions []QueryFilter
}

// QueryFilter is a union type that represents either a single filter condition
// or a group of filters. A nil *QueryFilter matches every record.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"`
	Group     *FilterGroup     `json:",omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string
	Direction SortDirection
}

// PaginationOptions defines an offset/limit page window.
type PaginationOptions struct {
	Offset int
	Limit  int
}

// QueryDSL is the full description of a query against one collection. The
// filter applies first, then the ordering, then the page window.
type QueryDSL struct {
	Filters    *QueryFilter       `json:",omitempty"`
	Sort       *SortConfiguration `json:",omitempty"`
	Pagination *PaginationOptions `json:",omitempty"`
}

// Where creates a filter holding a single condition.
func Where(field string, operator ComparisonOperator, value FilterValue) *QueryFilter {
	return &QueryFilter{Condition: &FilterCondition{Field: field, Operator: operator, Value: value}}
}

// And combines filters with a logical AND. Nil filters are skipped; a single
// remaining filter is returned as is and no remaining filter yields nil.
func And(filters ...*QueryFilter) *QueryFilter {
	return combine(LogicalOperatorAnd, filters)
}

// Or combines filters with a logical OR, with the same simplifications as And.
func Or(filters ...*QueryFilter) *QueryFilter {
	return combine(LogicalOperatorOr, filters)
}

func combine(op LogicalOperator, filters []*QueryFilter) *QueryFilter {
	conditions := make([]QueryFilter, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		conditions = append(conditions, *f)
	}
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return &conditions[0]
	}
	return &QueryFilter{Group: &FilterGroup{Operator: op, Conditions: conditions}}
}

// Fields returns the names of all fields referenced by the filter, in
// first-seen order.
func (f *QueryFilter) Fields() []string {
	seen := map[string]struct{}{}
	var out []string
	var walk func(*QueryFilter)
	walk = func(q *QueryFilter) {
		if q == nil {
			return
		}
		if q.Condition != nil {
			if _, ok := seen[q.Condition.Field]; !ok {
				seen[q.Condition.Field] = struct{}{}
				out = append(out, q.Condition.Field)
			}
		}
		if q.Group != nil {
			for i := range q.Group.Conditions {
				walk(&q.Group.Conditions[i])
			}
		}
	}
	walk(f)
	return out
}
