package query

// QueryBuilder assembles a QueryDSL step by step. Filters added through Filter
// or Where are ANDed together; OrderBy and Page replace earlier values.
//
//	q := NewQueryBuilder().
//		Where("Name").Contains("nowak").
//		Where("Rating").Gte(4.0).
//		OrderBy("Name", SortDirectionAsc).
//		Page(0, 20).
//		Build()
type QueryBuilder struct {
	query QueryDSL
}

// NewQueryBuilder returns an empty builder. An empty query matches every record
// in collection order.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns the query assembled so far. Later calls on the builder do not
// change a query already returned.
func (qb *QueryBuilder) Build() QueryDSL {
	q := qb.query
	if q.Sort != nil {
		sort := *q.Sort
		q.Sort = &sort
	}
	if q.Pagination != nil {
		page := *q.Pagination
		q.Pagination = &page
	}
	return q
}

// Filter ANDs a compiled filter into the query. A nil filter is ignored.
func (qb *QueryBuilder) Filter(filter *QueryFilter) *QueryBuilder {
	qb.query.Filters = And(qb.query.Filters, filter)
	return qb
}

// Where starts a condition on field; the operator method that follows adds it.
func (qb *QueryBuilder) Where(field string) *ConditionBuilder {
	return &ConditionBuilder{parent: qb, field: field}
}

// OrderBy sets the ordering of the query.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.Sort = &SortConfiguration{Field: field, Direction: direction}
	return qb
}

// Sort sets the ordering from an already resolved configuration.
func (qb *QueryBuilder) Sort(sort SortConfiguration) *QueryBuilder {
	return qb.OrderBy(sort.Field, sort.Direction)
}

// Page restricts the query to limit records starting at offset.
func (qb *QueryBuilder) Page(offset, limit int) *QueryBuilder {
	qb.query.Pagination = &PaginationOptions{Offset: offset, Limit: limit}
	return qb
}

// ConditionBuilder adds one condition on a field to its parent builder.
type ConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

func (cb *ConditionBuilder) add(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	return cb.parent.Filter(Where(cb.field, operator, value))
}

// Eq matches records whose field is equal to value.
func (cb *ConditionBuilder) Eq(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorEq, value)
}

// Neq matches records whose field is different from value.
func (cb *ConditionBuilder) Neq(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorNeq, value)
}

// Lt matches records whose field is less than value.
func (cb *ConditionBuilder) Lt(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorLt, value)
}

// Lte matches records whose field is at most value.
func (cb *ConditionBuilder) Lte(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorLte, value)
}

// Gt matches records whose field is greater than value.
func (cb *ConditionBuilder) Gt(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorGt, value)
}

// Gte matches records whose field is at least value.
func (cb *ConditionBuilder) Gte(value FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorGte, value)
}

// In matches records whose field equals any of values.
func (cb *ConditionBuilder) In(values ...FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorIn, values)
}

// Nin matches records whose field equals none of values.
func (cb *ConditionBuilder) Nin(values ...FilterValue) *QueryBuilder {
	return cb.add(ComparisonOperatorNin, values)
}

// Contains matches string fields containing value, ignoring case.
func (cb *ConditionBuilder) Contains(value string) *QueryBuilder {
	return cb.add(ComparisonOperatorContains, value)
}

// IsNull matches records whose field is null.
func (cb *ConditionBuilder) IsNull() *QueryBuilder {
	return cb.add(ComparisonOperatorIsNull, nil)
}

// NotNull matches records whose field has a value.
func (cb *ConditionBuilder) NotNull() *QueryBuilder {
	return cb.add(ComparisonOperatorNotNull, nil)
}
