package query

import (
	"fmt"
	"sort"

	"github.com/MBrOssss/RESTApi/core/schema"
	"go.uber.org/zap"
)

// Evaluator applies filters and orderings to in-memory records of type T,
// reading fields through the entity's descriptor. It holds no mutable state and
// is safe for concurrent use.
type Evaluator[T any] struct {
	descriptor *schema.Descriptor[T]
	logger     *zap.Logger
}

// NewEvaluator creates a new Evaluator for the given descriptor.
func NewEvaluator[T any](descriptor *schema.Descriptor[T], logger *zap.Logger) *Evaluator[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator[T]{descriptor: descriptor, logger: logger}
}

// Descriptor returns the descriptor the evaluator reads fields through.
func (e *Evaluator[T]) Descriptor() *schema.Descriptor[T] {
	return e.descriptor
}

// Filter returns the records matching the filter, preserving their order.
func (e *Evaluator[T]) Filter(records []T, filter *QueryFilter) ([]T, error) {
	if filter == nil {
		return records, nil
	}
	filtered := make([]T, 0, len(records))
	for i, record := range records {
		passes, err := e.Match(record, filter)
		if err != nil {
			return nil, fmt.Errorf("error evaluating filter for record %d: %w", i, err)
		}
		if passes {
			filtered = append(filtered, record)
		}
	}
	e.logger.Debug("Records remaining after filter",
		zap.String("entity", e.descriptor.Entity()),
		zap.Int("before", len(records)),
		zap.Int("after", len(filtered)))
	return filtered, nil
}

// Match evaluates a filter against a single record. A nil filter matches.
func (e *Evaluator[T]) Match(record T, filter *QueryFilter) (bool, error) {
	if filter == nil {
		return true, nil
	}
	if filter.Condition != nil {
		return e.evaluateCondition(record, filter.Condition)
	}
	if filter.Group != nil {
		switch filter.Group.Operator {
		case LogicalOperatorAnd:
			for i := range filter.Group.Conditions {
				passes, err := e.Match(record, &filter.Group.Conditions[i])
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case LogicalOperatorOr:
			for i := range filter.Group.Conditions {
				passes, err := e.Match(record, &filter.Group.Conditions[i])
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator: %s", filter.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty or invalid filter structure")
}

func (e *Evaluator[T]) evaluateCondition(record T, cond *FilterCondition) (bool, error) {
	field, err := e.descriptor.Resolve(cond.Field)
	if err != nil {
		return false, err
	}
	value, err := field.Value(record)
	if err != nil {
		return false, err
	}

	switch cond.Operator {
	case ComparisonOperatorIsNull:
		return value == nil, nil
	case ComparisonOperatorNotNull:
		return value != nil, nil
	case ComparisonOperatorContains:
		if value == nil {
			return false, nil
		}
		s, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("contains requires a string field, '%s' is %s", field.Name, field.Type)
		}
		return ContainsFold(s, fmt.Sprint(cond.Value)), nil
	case ComparisonOperatorEq:
		return e.equals(field, value, cond.Value)
	case ComparisonOperatorNeq:
		eq, err := e.equals(field, value, cond.Value)
		return !eq, err
	case ComparisonOperatorIn, ComparisonOperatorNin:
		operands, ok := cond.Value.([]FilterValue)
		if !ok {
			return false, fmt.Errorf("%s requires a list operand, got %T", cond.Operator, cond.Value)
		}
		for _, operand := range operands {
			eq, err := e.equals(field, value, operand)
			if err != nil {
				return false, err
			}
			if eq {
				return cond.Operator == ComparisonOperatorIn, nil
			}
		}
		return cond.Operator == ComparisonOperatorNin, nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		if value == nil || cond.Value == nil {
			return false, nil
		}
		operand, err := schema.Normalize(field.Type, cond.Value)
		if err != nil {
			return false, fmt.Errorf("field '%s': %w", field.Name, err)
		}
		c, err := Compare(value, operand)
		if err != nil {
			return false, fmt.Errorf("field '%s': %w", field.Name, err)
		}
		switch cond.Operator {
		case ComparisonOperatorLt:
			return c < 0, nil
		case ComparisonOperatorLte:
			return c <= 0, nil
		case ComparisonOperatorGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", cond.Operator)
	}
}

// equals compares with null-aware semantics: null equals only null.
func (e *Evaluator[T]) equals(field schema.Field[T], value any, operand FilterValue) (bool, error) {
	normalized, err := schema.Normalize(field.Type, operand)
	if err != nil {
		return false, fmt.Errorf("field '%s': %w", field.Name, err)
	}
	if value == nil || normalized == nil {
		return value == nil && normalized == nil, nil
	}
	c, err := Compare(value, normalized)
	if err != nil {
		return false, fmt.Errorf("field '%s': %w", field.Name, err)
	}
	return c == 0, nil
}

// Sort returns a copy of records stably ordered by the configured field. Null
// values order before all others in ascending order.
func (e *Evaluator[T]) Sort(records []T, config SortConfiguration) ([]T, error) {
	field, err := e.descriptor.Resolve(config.Field)
	if err != nil {
		return nil, err
	}

	type keyed struct {
		record T
		key    any
	}
	items := make([]keyed, len(records))
	for i, record := range records {
		key, err := field.Value(record)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{record: record, key: key}
	}

	var cmpErr error
	less := func(a, b any) bool {
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		}
		c, err := Compare(a, b)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c < 0
	}
	desc := config.Direction == SortDirectionDesc
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j].key, items[i].key)
		}
		return less(items[i].key, items[j].key)
	})
	if cmpErr != nil {
		return nil, fmt.Errorf("sort by '%s': %w", field.Name, cmpErr)
	}

	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.record
	}
	return out, nil
}
