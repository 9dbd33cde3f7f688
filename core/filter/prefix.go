// Package filter compiles string-keyed search parameters into predicate ASTs.
//
// Each key of a filter mapping is an operator prefix followed by a field
// reference, for example "in_StatusId" or "date_between_ValidFrom%ValidTo".
// The compiler resolves the prefix through an ordered table of rules, builds
// one predicate per key and ANDs them together behind the soft-delete guard.
package filter

import "strings"

// Operator identifies the predicate builder a filter key dispatches to.
type Operator int

const (
	OperatorContains Operator = iota + 1
	OperatorDateFrom
	OperatorDateTo
	OperatorDateBetween
	OperatorDateEqual
	OperatorEqual
	OperatorNotEqual
	OperatorNullTest
	OperatorDateTimeFrom
	OperatorDateTimeTo
	OperatorIn
	OperatorNotIn
)

var operatorNames = map[Operator]string{
	OperatorContains:     "contains",
	OperatorDateFrom:     "date-from",
	OperatorDateTo:       "date-to",
	OperatorDateBetween:  "date-range-valid",
	OperatorDateEqual:    "date-equal",
	OperatorEqual:        "equal",
	OperatorNotEqual:     "not-equal",
	OperatorNullTest:     "null-test",
	OperatorDateTimeFrom: "datetime-from",
	OperatorDateTimeTo:   "datetime-to",
	OperatorIn:           "in-list",
	OperatorNotIn:        "not-in-list",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// PrefixRule maps a key prefix to an operator.
type PrefixRule struct {
	Prefix   string
	Operator Operator
}

// DefaultPrefixRules is the recognized key grammar in precedence order. The first
// rule whose prefix starts the key wins, so more specific prefixes sharing a
// stem (date_from_ and date_) must come first.
var DefaultPrefixRules = []PrefixRule{
	{Prefix: "string_", Operator: OperatorContains},
	{Prefix: "date_from_", Operator: OperatorDateFrom},
	{Prefix: "date_to_", Operator: OperatorDateTo},
	{Prefix: "date_between_", Operator: OperatorDateBetween},
	{Prefix: "date_", Operator: OperatorDateEqual},
	{Prefix: "equal_", Operator: OperatorEqual},
	{Prefix: "notequal_", Operator: OperatorNotEqual},
	{Prefix: "not_null_", Operator: OperatorNullTest},
	{Prefix: "datetime_from_", Operator: OperatorDateTimeFrom},
	{Prefix: "datetime_to_", Operator: OperatorDateTimeTo},
	{Prefix: "in_", Operator: OperatorIn},
	{Prefix: "notin_", Operator: OperatorNotIn},
}

const (
	// SearchKey is the free-text key matched against AutocompleteField.
	SearchKey = "q"
	// AutocompleteField is the derived field free-text search runs against.
	AutocompleteField = "AutocompleteSearch"
	// RangeSeparator joins the two field names of a date_between_ key.
	RangeSeparator = "%"
)

// Key is a parsed filter key.
type Key struct {
	Operator Operator
	Field    string
	// ToField is the second field of a date-range-valid key.
	ToField string
}

// ParseKey matches key against rules. The boolean is false when no rule
// applies; such keys are ignored by the compiler.
func ParseKey(rules []PrefixRule, key string) (Key, bool) {
	if key == SearchKey {
		return Key{Operator: OperatorContains, Field: AutocompleteField}, true
	}
	for _, rule := range rules {
		if !strings.HasPrefix(key, rule.Prefix) {
			continue
		}
		ref := strings.TrimPrefix(key, rule.Prefix)
		if rule.Operator == OperatorDateBetween {
			from, to, _ := strings.Cut(ref, RangeSeparator)
			return Key{Operator: rule.Operator, Field: from, ToField: to}, true
		}
		return Key{Operator: rule.Operator, Field: ref}, true
	}
	return Key{}, false
}
