package query

import "context"

// Queryable is a lazily composed query over a collection of records of type T.
// It is provided by the persistence collaborator: composition methods only
// describe the query and return a new Queryable, leaving the receiver
// untouched; Count and List execute it.
type Queryable[T any] interface {
	// Where narrows the collection to records matching the filter. A nil filter
	// leaves the collection unchanged.
	Where(filter *QueryFilter) Queryable[T]

	// OrderBy replaces the ordering of the collection.
	OrderBy(sort SortConfiguration) Queryable[T]

	// Page restricts the collection to limit records starting at offset.
	Page(offset, limit int) Queryable[T]

	// Count returns the number of records in the composed collection.
	Count(ctx context.Context) (int, error)

	// List materializes the composed collection.
	List(ctx context.Context) ([]T, error)
}

// Apply composes a query description onto a collection: the filter, then the
// ordering, then the page window. Absent parts are skipped.
func Apply[T any](source Queryable[T], q QueryDSL) Queryable[T] {
	result := source.Where(q.Filters)
	if q.Sort != nil {
		result = result.OrderBy(*q.Sort)
	}
	if q.Pagination != nil {
		result = result.Page(q.Pagination.Offset, q.Pagination.Limit)
	}
	return result
}
