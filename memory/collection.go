// Package memory provides an in-memory query backend: a snapshot of records
// that filters, orders and pages lazily through query.Evaluator.
package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

type stepKind int

const (
	stepWhere stepKind = iota
	stepOrder
	stepPage
)

type step struct {
	kind   stepKind
	filter *query.QueryFilter
	order  query.SortConfiguration
	offset int
	limit  int
}

// Collection is an immutable, lazily composed view over a snapshot of records.
// Steps run in the order they were composed when Count or List is called.
type Collection[T any] struct {
	evaluator *query.Evaluator[T]
	records   []T
	steps     []step
}

// NewCollection takes a snapshot of records. Later changes to the records slice
// are not seen by the collection.
func NewCollection[T any](descriptor *schema.Descriptor[T], records []T, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		evaluator: query.NewEvaluator(descriptor, logger),
		records:   append([]T(nil), records...),
	}
}

func (c *Collection[T]) with(s step) *Collection[T] {
	steps := make([]step, len(c.steps), len(c.steps)+1)
	copy(steps, c.steps)
	return &Collection[T]{evaluator: c.evaluator, records: c.records, steps: append(steps, s)}
}

// Where implements query.Queryable.
func (c *Collection[T]) Where(filter *query.QueryFilter) query.Queryable[T] {
	if filter == nil {
		return c
	}
	return c.with(step{kind: stepWhere, filter: filter})
}

// OrderBy implements query.Queryable. The sort is stable.
func (c *Collection[T]) OrderBy(sort query.SortConfiguration) query.Queryable[T] {
	return c.with(step{kind: stepOrder, order: sort})
}

// Page implements query.Queryable.
func (c *Collection[T]) Page(offset, limit int) query.Queryable[T] {
	return c.with(step{kind: stepPage, offset: offset, limit: limit})
}

// Count implements query.Queryable.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	records, err := c.run(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// List implements query.Queryable. The returned slice is owned by the caller.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	records, err := c.run(ctx)
	if err != nil {
		return nil, err
	}
	return append([]T{}, records...), nil
}

func (c *Collection[T]) run(ctx context.Context) ([]T, error) {
	records := c.records
	for _, s := range c.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch s.kind {
		case stepWhere:
			records, err = c.evaluator.Filter(records, s.filter)
		case stepOrder:
			records, err = c.evaluator.Sort(records, s.order)
		case stepPage:
			records = window(records, s.offset, s.limit)
		}
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func window[T any](records []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return nil
	}
	end := len(records)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}
