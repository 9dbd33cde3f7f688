package sqlstore

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// Generator translates predicate ASTs over one schema into squirrel
// expressions. Field references are resolved against the schema, so unknown
// fields fail before any SQL is produced.
type Generator struct {
	dialect    Dialect
	descriptor *schema.Descriptor[schema.Document]
}

// NewGenerator creates a generator for the given dialect and schema.
func NewGenerator(dialect Dialect, def *schema.SchemaDefinition) (*Generator, error) {
	descriptor, err := schema.NewDocumentDescriptor(def)
	if err != nil {
		return nil, err
	}
	return &Generator{dialect: dialect, descriptor: descriptor}, nil
}

// Descriptor returns the field table derived from the schema.
func (g *Generator) Descriptor() *schema.Descriptor[schema.Document] {
	return g.descriptor
}

// Where builds the WHERE expression of a filter. A nil filter yields nil.
func (g *Generator) Where(filter *query.QueryFilter) (squirrel.Sqlizer, error) {
	if filter == nil {
		return nil, nil
	}
	if filter.Condition != nil {
		return g.condition(filter.Condition)
	}
	if filter.Group != nil {
		parts := make([]squirrel.Sqlizer, 0, len(filter.Group.Conditions))
		for i := range filter.Group.Conditions {
			part, err := g.Where(&filter.Group.Conditions[i])
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		switch filter.Group.Operator {
		case query.LogicalOperatorAnd:
			return squirrel.And(parts), nil
		case query.LogicalOperatorOr:
			return squirrel.Or(parts), nil
		default:
			return nil, fmt.Errorf("unsupported logical operator: %s", filter.Group.Operator)
		}
	}
	return nil, fmt.Errorf("empty or invalid filter structure")
}

func (g *Generator) condition(cond *query.FilterCondition) (squirrel.Sqlizer, error) {
	field, err := g.descriptor.Resolve(cond.Field)
	if err != nil {
		return nil, err
	}
	col := quoteIdentifier(field.Name)

	switch cond.Operator {
	case query.ComparisonOperatorIsNull:
		return squirrel.Eq{col: nil}, nil
	case query.ComparisonOperatorNotNull:
		return squirrel.NotEq{col: nil}, nil
	case query.ComparisonOperatorContains:
		if field.Type != schema.FieldTypeString {
			return nil, fmt.Errorf("contains requires a string field, '%s' is %s", field.Name, field.Type)
		}
		pattern := "%" + escapeLike(query.Fold(fmt.Sprint(cond.Value))) + "%"
		return squirrel.Expr(fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col), pattern), nil
	case query.ComparisonOperatorIn, query.ComparisonOperatorNin:
		operands, ok := cond.Value.([]query.FilterValue)
		if !ok {
			return nil, fmt.Errorf("%s requires a list operand, got %T", cond.Operator, cond.Value)
		}
		values := make([]any, 0, len(operands))
		for _, operand := range operands {
			v, err := g.dialect.encodeValue(field.Type, operand)
			if err != nil {
				return nil, fmt.Errorf("field '%s': %w", field.Name, err)
			}
			values = append(values, v)
		}
		if cond.Operator == query.ComparisonOperatorIn {
			return squirrel.Eq{col: values}, nil
		}
		return g.orNull(field, col, squirrel.NotEq{col: values}), nil
	}

	value, err := g.dialect.encodeValue(field.Type, cond.Value)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", field.Name, err)
	}

	switch cond.Operator {
	case query.ComparisonOperatorEq:
		return squirrel.Eq{col: value}, nil
	case query.ComparisonOperatorNeq:
		if value == nil {
			return squirrel.NotEq{col: nil}, nil
		}
		return g.orNull(field, col, squirrel.NotEq{col: value}), nil
	case query.ComparisonOperatorLt:
		return squirrel.Lt{col: value}, nil
	case query.ComparisonOperatorLte:
		return squirrel.LtOrEq{col: value}, nil
	case query.ComparisonOperatorGt:
		return squirrel.Gt{col: value}, nil
	case query.ComparisonOperatorGte:
		return squirrel.GtOrEq{col: value}, nil
	}
	return nil, fmt.Errorf("unsupported comparison operator: %s", cond.Operator)
}

// orNull extends an inequality on a nullable column to match NULL, which
// differs from every value.
func (g *Generator) orNull(field schema.Field[schema.Document], col string, expr squirrel.Sqlizer) squirrel.Sqlizer {
	if !field.Nullable {
		return expr
	}
	return squirrel.Or{expr, squirrel.Eq{col: nil}}
}

// OrderBy renders an ORDER BY term. NULL values order first ascending and
// last descending in every dialect.
func (g *Generator) OrderBy(sort query.SortConfiguration) (string, error) {
	field, err := g.descriptor.Resolve(sort.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if sort.Direction == query.SortDirectionDesc {
		dir = "DESC"
	}
	term := quoteIdentifier(field.Name) + " " + dir
	if g.dialect == DialectPostgres {
		if dir == "ASC" {
			term += " NULLS FIRST"
		} else {
			term += " NULLS LAST"
		}
	}
	return term, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
