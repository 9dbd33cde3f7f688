package filter

import (
	"fmt"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// Mapping is the ordered set of filter keys and raw values of one request.
type Mapping = orderedmap.OrderedMap[string, string]

// NewMapping builds a mapping from alternating key and value arguments. A
// trailing key without a value maps to the empty string.
func NewMapping(pairs ...string) *Mapping {
	m := orderedmap.New[string, string]()
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		m.Set(pairs[i], value)
	}
	return m
}

type settings struct {
	logger    *zap.Logger
	rules     []PrefixRule
	now       func() time.Time
	location  *time.Location
	cacheSize int
}

// Option configures a Compiler.
type Option func(*settings)

// WithLogger sets the logger used for dropped keys and compile diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithPrefixRules replaces the key grammar.
func WithPrefixRules(rules []PrefixRule) Option {
	return func(s *settings) { s.rules = rules }
}

// WithClock sets the reference clock of date-range-valid predicates.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the time zone calendar dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) { s.location = loc }
}

// WithPlanCacheSize sets the number of cached plans. Zero or less disables caching.
func WithPlanCacheSize(size int) Option {
	return func(s *settings) { s.cacheSize = size }
}

// Compiler turns filter mappings into predicates over one entity type.
type Compiler[T any] struct {
	descriptor *schema.Descriptor[T]
	rules      []PrefixRule
	builders   Builders
	logger     *zap.Logger
	plans      *PlanCache
	inflight   singleflight.Group
}

// NewCompiler creates a compiler for the entity described by descriptor.
func NewCompiler[T any](descriptor *schema.Descriptor[T], opts ...Option) (*Compiler[T], error) {
	if descriptor == nil {
		return nil, fmt.Errorf("compiler requires a descriptor")
	}
	s := settings{rules: DefaultPrefixRules, cacheSize: DefaultPlanCacheSize}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	c := &Compiler[T]{
		descriptor: descriptor,
		rules:      s.rules,
		builders:   Builders{Now: s.now, Location: s.location},
		logger:     s.logger,
	}
	if s.cacheSize > 0 {
		plans, err := NewPlanCache(s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create plan cache: %w", err)
		}
		c.plans = plans
	}
	return c, nil
}

// Descriptor returns the descriptor the compiler resolves fields through.
func (c *Compiler[T]) Descriptor() *schema.Descriptor[T] {
	return c.descriptor
}

// Compile returns the soft-delete guard ANDed with one predicate per recognized
// key of the mapping, in mapping order. Keys with unrecognized prefixes are
// ignored. A nil result matches every record.
func (c *Compiler[T]) Compile(mapping *Mapping) (*query.QueryFilter, error) {
	var entries [][2]string
	if mapping != nil {
		entries = make([][2]string, 0, mapping.Len())
		for pair := mapping.Oldest(); pair != nil; pair = pair.Next() {
			entries = append(entries, [2]string{pair.Key, pair.Value})
		}
	}
	if len(entries) == 0 {
		return Guard(c.descriptor), nil
	}
	if c.plans == nil {
		plan, _, err := c.compile(entries)
		return plan, err
	}

	key := planKey(entries)
	if plan, ok := c.plans.Get(key); ok {
		return plan, nil
	}
	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		plan, volatile, err := c.compile(entries)
		if err != nil {
			return nil, err
		}
		if !volatile {
			c.plans.Put(key, plan)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*query.QueryFilter), nil
}

// compile builds the plan of entries. The boolean reports whether the plan
// depends on the current time and so must not be reused.
func (c *Compiler[T]) compile(entries [][2]string) (*query.QueryFilter, bool, error) {
	terms := []*query.QueryFilter{Guard(c.descriptor)}
	volatile := false
	for _, entry := range entries {
		key, value := entry[0], entry[1]
		k, ok := ParseKey(c.rules, key)
		if !ok {
			c.logger.Debug("Ignoring filter key with unrecognized prefix",
				zap.String("entity", c.descriptor.Entity()),
				zap.String("key", key))
			continue
		}
		term, err := c.build(k, value)
		if err != nil {
			return nil, false, fmt.Errorf("filter '%s': %w", key, err)
		}
		if k.Operator == OperatorDateBetween {
			volatile = true
		}
		terms = append(terms, term)
	}
	return query.And(terms...), volatile, nil
}

func (c *Compiler[T]) build(k Key, value string) (*query.QueryFilter, error) {
	switch k.Operator {
	case OperatorEqual, OperatorNotEqual:
		if isSentinel(value) {
			c.logger.Debug("Skipping filter with empty sentinel value",
				zap.String("field", k.Field),
				zap.String("value", value))
			return nil, nil
		}
	case OperatorNullTest:
		if value == "" {
			return nil, nil
		}
	}

	field, err := c.descriptor.Resolve(k.Field)
	if err != nil {
		return nil, err
	}
	t := TargetOf(field)

	switch k.Operator {
	case OperatorContains:
		return c.builders.Contains(t, value)
	case OperatorEqual:
		return c.builders.Equal(t, value)
	case OperatorNotEqual:
		return c.builders.NotEqual(t, value)
	case OperatorNullTest:
		return c.builders.NullTest(t, value, false), nil
	case OperatorDateEqual:
		return c.builders.DateEqual(t, value)
	case OperatorDateFrom:
		return c.builders.DateFrom(t, value)
	case OperatorDateTo:
		return c.builders.DateTo(t, value)
	case OperatorDateTimeFrom:
		return c.builders.DateTimeFrom(t, value)
	case OperatorDateTimeTo:
		return c.builders.DateTimeTo(t, value)
	case OperatorIn:
		return c.builders.In(t, value)
	case OperatorNotIn:
		return c.builders.NotIn(t, value)
	case OperatorDateBetween:
		if k.ToField == "" {
			return nil, fmt.Errorf("%w: range key needs two fields joined by '%s'", ErrParse, RangeSeparator)
		}
		to, err := c.descriptor.Resolve(k.ToField)
		if err != nil {
			return nil, err
		}
		return c.builders.DateRangeValid(t, TargetOf(to), value)
	}
	return nil, fmt.Errorf("no builder for operator %s", k.Operator)
}
