package filter

import (
	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// Guard returns the soft-delete predicate of an entity: its delete flag must be
// false. Entities without a delete flag yield nil, which matches every record.
func Guard[T any](descriptor *schema.Descriptor[T]) *query.QueryFilter {
	field, ok := descriptor.DeletedField()
	if !ok {
		return nil
	}
	return query.Where(field.Name, query.ComparisonOperatorEq, false)
}
