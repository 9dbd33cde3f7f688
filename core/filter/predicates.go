package filter

import (
	"fmt"
	"time"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// Target is the part of a resolved field the predicate builders read.
type Target struct {
	Name     string
	Type     schema.FieldType
	Nullable bool
}

// TargetOf returns the builder target of a descriptor field.
func TargetOf[T any](f schema.Field[T]) Target {
	return Target{Name: f.Name, Type: f.Type, Nullable: f.Nullable}
}

// Builders turns (target, raw operand) pairs into predicates. The zero value
// uses the wall clock and UTC.
type Builders struct {
	// Now returns the reference instant of date-range-valid predicates.
	Now func() time.Time
	// Location interprets calendar dates of date_ keys.
	Location *time.Location
}

func (b Builders) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Builders) location() *time.Location {
	if b.Location != nil {
		return b.Location
	}
	return time.UTC
}

// Contains matches string fields containing raw, ignoring case.
func (b Builders) Contains(t Target, raw string) (*query.QueryFilter, error) {
	if t.Type != schema.FieldTypeString {
		return nil, fmt.Errorf("%w: contains on %s field '%s'", ErrUnsupportedType, t.Type, t.Name)
	}
	return query.Where(t.Name, query.ComparisonOperatorContains, query.Fold(raw)), nil
}

// Equal matches fields equal to the typed operand.
func (b Builders) Equal(t Target, raw string) (*query.QueryFilter, error) {
	return b.equality(t, raw, query.ComparisonOperatorEq)
}

// NotEqual matches fields different from the typed operand. String fields are
// compared literally.
func (b Builders) NotEqual(t Target, raw string) (*query.QueryFilter, error) {
	return b.equality(t, raw, query.ComparisonOperatorNeq)
}

func (b Builders) equality(t Target, raw string, op query.ComparisonOperator) (*query.QueryFilter, error) {
	v, err := parseScalar(t.Type, t.Nullable, raw)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", t.Name, err)
	}
	return query.Where(t.Name, op, v), nil
}

// NullTest compares the field to null. When raw disagrees with expected
// (case-insensitive), the field must be non-null; otherwise it must be null.
// With expected false, "true" selects non-null records and "false" null ones.
func (b Builders) NullTest(t Target, raw string, expected bool) *query.QueryFilter {
	if query.Fold(raw) != fmt.Sprint(expected) {
		return query.Where(t.Name, query.ComparisonOperatorNotNull, nil)
	}
	return query.Where(t.Name, query.ComparisonOperatorIsNull, nil)
}

// DateEqual matches the whole calendar day named by the first ten characters of
// raw: [day, day+1).
func (b Builders) DateEqual(t Target, raw string) (*query.QueryFilter, error) {
	day, err := b.day(t, raw)
	if err != nil {
		return nil, err
	}
	return query.And(
		query.Where(t.Name, query.ComparisonOperatorGte, day),
		query.Where(t.Name, query.ComparisonOperatorLt, day.AddDate(0, 0, 1)),
	), nil
}

// DateFrom matches fields at or after the start of the given day.
func (b Builders) DateFrom(t Target, raw string) (*query.QueryFilter, error) {
	day, err := b.day(t, raw)
	if err != nil {
		return nil, err
	}
	return query.Where(t.Name, query.ComparisonOperatorGte, day), nil
}

// DateTo matches fields at or before the start of the given day.
func (b Builders) DateTo(t Target, raw string) (*query.QueryFilter, error) {
	day, err := b.day(t, raw)
	if err != nil {
		return nil, err
	}
	return query.Where(t.Name, query.ComparisonOperatorLte, day), nil
}

// DateTimeFrom matches fields at or after the full timestamp in raw.
func (b Builders) DateTimeFrom(t Target, raw string) (*query.QueryFilter, error) {
	ts, err := b.instant(t, raw)
	if err != nil {
		return nil, err
	}
	return query.Where(t.Name, query.ComparisonOperatorGte, ts), nil
}

// DateTimeTo matches fields at or before the full timestamp in raw.
func (b Builders) DateTimeTo(t Target, raw string) (*query.QueryFilter, error) {
	ts, err := b.instant(t, raw)
	if err != nil {
		return nil, err
	}
	return query.Where(t.Name, query.ComparisonOperatorLte, ts), nil
}

// DateRangeValid tests whether now lies within the [from, to] window of a
// record. A raw value of true selects active windows (to >= now AND from <= now);
// false selects the others (from >= now OR to <= now).
func (b Builders) DateRangeValid(from, to Target, raw string) (*query.QueryFilter, error) {
	for _, t := range []Target{from, to} {
		if t.Type != schema.FieldTypeDateTime {
			return nil, fmt.Errorf("%w: date range on %s field '%s'", ErrUnsupportedType, t.Type, t.Name)
		}
	}
	isValid, err := parseStrictBool(raw)
	if err != nil {
		return nil, err
	}
	now := b.now()
	if isValid {
		return query.And(
			query.Where(to.Name, query.ComparisonOperatorGte, now),
			query.Where(from.Name, query.ComparisonOperatorLte, now),
		), nil
	}
	return query.Or(
		query.Where(from.Name, query.ComparisonOperatorGte, now),
		query.Where(to.Name, query.ComparisonOperatorLte, now),
	), nil
}

// In matches fields equal to any element of the comma-separated operand. An
// operand without elements yields a nil filter.
func (b Builders) In(t Target, raw string) (*query.QueryFilter, error) {
	return b.list(t, raw, query.ComparisonOperatorEq, query.Or)
}

// NotIn matches fields different from every element of the comma-separated
// operand, as an AND of inequalities.
func (b Builders) NotIn(t Target, raw string) (*query.QueryFilter, error) {
	return b.list(t, raw, query.ComparisonOperatorNeq, query.And)
}

func (b Builders) list(t Target, raw string, op query.ComparisonOperator, join func(...*query.QueryFilter) *query.QueryFilter) (*query.QueryFilter, error) {
	values, err := parseList(t.Type, raw)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", t.Name, err)
	}
	terms := make([]*query.QueryFilter, 0, len(values))
	for _, v := range values {
		terms = append(terms, query.Where(t.Name, op, v))
	}
	return join(terms...), nil
}

func (b Builders) day(t Target, raw string) (time.Time, error) {
	if t.Type != schema.FieldTypeDateTime {
		return time.Time{}, fmt.Errorf("%w: date filter on %s field '%s'", ErrUnsupportedType, t.Type, t.Name)
	}
	day, err := parseDate(raw, b.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("field '%s': %w", t.Name, err)
	}
	return day, nil
}

func (b Builders) instant(t Target, raw string) (time.Time, error) {
	if t.Type != schema.FieldTypeDateTime {
		return time.Time{}, fmt.Errorf("%w: datetime filter on %s field '%s'", ErrUnsupportedType, t.Type, t.Name)
	}
	ts, err := parseDateTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("field '%s': %w", t.Name, err)
	}
	return ts, nil
}
