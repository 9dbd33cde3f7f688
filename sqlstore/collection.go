package sqlstore

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// layer is one SELECT level. Steps composed after a Page open a new layer
// that selects from the previous one, so they apply to the paged rows.
type layer struct {
	filters []*query.QueryFilter
	order   *query.SortConfiguration
	paged   bool
	offset  int
	limit   int
}

// Collection is a lazily composed query over one SQL table. It implements
// query.Queryable[schema.Document]; nothing touches the database until Count or
// List is called.
type Collection struct {
	db        Runner
	dialect   Dialect
	def       *schema.SchemaDefinition
	generator *Generator
	logger    *zap.Logger
	layers    []layer
}

var _ query.Queryable[schema.Document] = (*Collection)(nil)

// NewCollection creates a collection over the table named by the schema.
func NewCollection(db Runner, dialect Dialect, def *schema.SchemaDefinition, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	generator, err := NewGenerator(dialect, def)
	if err != nil {
		return nil, err
	}
	return &Collection{
		db:        db,
		dialect:   dialect,
		def:       def,
		generator: generator,
		logger:    logger,
		layers:    []layer{{}},
	}, nil
}

// Descriptor returns the field table of the collection's documents.
func (c *Collection) Descriptor() *schema.Descriptor[schema.Document] {
	return c.generator.Descriptor()
}

// with returns a copy of the collection whose top layer has been changed by fn.
// A paged top layer is sealed and fn is applied to a fresh layer above it.
func (c *Collection) with(fn func(l *layer)) *Collection {
	layers := make([]layer, len(c.layers), len(c.layers)+1)
	copy(layers, c.layers)
	if layers[len(layers)-1].paged {
		layers = append(layers, layer{})
	}
	top := &layers[len(layers)-1]
	top.filters = append([]*query.QueryFilter(nil), top.filters...)
	fn(top)

	next := *c
	next.layers = layers
	return &next
}

// Where implements query.Queryable.
func (c *Collection) Where(filter *query.QueryFilter) query.Queryable[schema.Document] {
	if filter == nil {
		return c
	}
	return c.with(func(l *layer) { l.filters = append(l.filters, filter) })
}

// OrderBy implements query.Queryable.
func (c *Collection) OrderBy(sort query.SortConfiguration) query.Queryable[schema.Document] {
	return c.with(func(l *layer) { l.order = &sort })
}

// Page implements query.Queryable.
func (c *Collection) Page(offset, limit int) query.Queryable[schema.Document] {
	return c.with(func(l *layer) {
		l.paged = true
		l.offset = max(offset, 0)
		l.limit = max(limit, 0)
	})
}

// Count implements query.Queryable.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var sb squirrel.SelectBuilder
	if len(c.layers) == 1 && !c.layers[0].paged {
		sb = squirrel.Select("COUNT(*)").From(quoteIdentifier(c.def.Name))
		where, err := c.where(c.layers[0])
		if err != nil {
			return 0, err
		}
		for _, w := range where {
			sb = sb.Where(w)
		}
	} else {
		inner, err := c.selectBuilder()
		if err != nil {
			return 0, err
		}
		sb = squirrel.Select("COUNT(*)").FromSelect(inner, "counted")
	}

	sqlStr, args, err := sb.PlaceholderFormat(c.dialect.placeholder()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	c.logger.Debug("Executing count query", zap.String("sql", sqlStr), zap.Any("args", args))

	var n int
	if err := c.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", err)
	}
	return n, nil
}

// List implements query.Queryable.
func (c *Collection) List(ctx context.Context) ([]schema.Document, error) {
	sb, err := c.selectBuilder()
	if err != nil {
		return nil, err
	}
	sqlStr, args, err := sb.PlaceholderFormat(c.dialect.placeholder()).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}
	c.logger.Debug("Executing select query", zap.String("sql", sqlStr), zap.Any("args", args))

	rows, err := c.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w", err)
	}
	defer rows.Close()
	return readRows(c.logger, c.def, rows)
}

// ToSql renders the SELECT statement of the composed collection.
func (c *Collection) ToSql() (string, []any, error) {
	sb, err := c.selectBuilder()
	if err != nil {
		return "", nil, err
	}
	return sb.PlaceholderFormat(c.dialect.placeholder()).ToSql()
}

func (c *Collection) where(l layer) ([]squirrel.Sqlizer, error) {
	out := make([]squirrel.Sqlizer, 0, len(l.filters))
	for _, f := range l.filters {
		w, err := c.generator.Where(f)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// selectBuilder nests the layers innermost first. Subqueries keep the default
// '?' placeholders; the outermost builder rewrites them for the dialect.
func (c *Collection) selectBuilder() (squirrel.SelectBuilder, error) {
	columns := make([]string, 0, len(c.def.Fields))
	for _, name := range c.def.FieldNames() {
		columns = append(columns, quoteIdentifier(name))
	}

	var sb squirrel.SelectBuilder
	var order *query.SortConfiguration
	for i, l := range c.layers {
		if i == 0 {
			sb = squirrel.Select(columns...).From(quoteIdentifier(c.def.Name))
		} else {
			sb = squirrel.Select(columns...).FromSelect(sb, fmt.Sprintf("page%d", i))
		}

		where, err := c.where(l)
		if err != nil {
			return sb, err
		}
		for _, w := range where {
			sb = sb.Where(w)
		}

		if l.order != nil {
			order = l.order
		}
		terms, err := c.orderTerms(order, l.paged)
		if err != nil {
			return sb, err
		}
		if len(terms) > 0 {
			sb = sb.OrderBy(terms...)
		}

		if l.paged {
			sb = sb.Limit(uint64(l.limit)).Offset(uint64(l.offset))
		}
	}
	return sb, nil
}

// orderTerms renders the requested ordering followed by the identifier as a
// tie-breaker, so equal keys and unordered pages come back in a stable order.
func (c *Collection) orderTerms(order *query.SortConfiguration, paged bool) ([]string, error) {
	var terms []string
	if order != nil {
		term, err := c.generator.OrderBy(*order)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if order == nil && !paged {
		return terms, nil
	}
	if id, ok := c.generator.Descriptor().IDField(); ok && (order == nil || order.Field != id.Name) {
		terms = append(terms, quoteIdentifier(id.Name)+" ASC")
	}
	return terms, nil
}
