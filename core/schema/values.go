package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeLayouts are the timestamp layouts accepted by ParseTime, tried in order.
// Layouts without a zone are interpreted as UTC.
var TimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a timestamp using the first matching layout in TimeLayouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse '%s' as a timestamp", s)
}

// Normalize converts a raw field value to the canonical Go type of the field type:
// string, bool, int64 (both integer widths), float64, uuid.UUID or time.Time.
// Nil, nil pointers and invalid driver values normalize to nil.
func Normalize(t FieldType, v any) (any, error) {
	v, err := unwrap(v)
	if err != nil || v == nil {
		return nil, err
	}

	switch t {
	case FieldTypeString:
		switch val := v.(type) {
		case string:
			return val, nil
		case []byte:
			return string(val), nil
		case fmt.Stringer:
			return val.String(), nil
		}
	case FieldTypeBoolean:
		switch val := v.(type) {
		case bool:
			return val, nil
		case string:
			return strconv.ParseBool(val)
		default:
			if n, ok := toInt64(v); ok {
				return n != 0, nil
			}
		}
	case FieldTypeInt32, FieldTypeInt64:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
		if s, ok := v.(string); ok {
			return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		}
	case FieldTypeFloat64:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
	case FieldTypeUUID:
		switch val := v.(type) {
		case uuid.UUID:
			return val, nil
		case [16]byte:
			return uuid.UUID(val), nil
		case string:
			return uuid.Parse(val)
		case []byte:
			if len(val) == 16 {
				return uuid.FromBytes(val)
			}
			return uuid.ParseBytes(val)
		}
	case FieldTypeDateTime:
		switch val := v.(type) {
		case time.Time:
			return val, nil
		case string:
			return ParseTime(val)
		case []byte:
			return ParseTime(string(val))
		}
	default:
		return nil, fmt.Errorf("unsupported field type '%s'", t)
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, t)
}

// unwrap dereferences pointers and resolves driver.Valuer values such as
// sql.NullString or uuid.NullUUID.
func unwrap(v any) (any, error) {
	for v != nil {
		if _, isUUID := v.(uuid.UUID); isUUID {
			return v, nil
		}
		if _, isTime := v.(time.Time); isTime {
			return v, nil
		}
		if valuer, ok := v.(driver.Valuer); ok {
			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Ptr && rv.IsNil() {
				return nil, nil
			}
			next, err := valuer.Value()
			if err != nil {
				return nil, err
			}
			if reflect.TypeOf(next) == reflect.TypeOf(v) {
				return next, nil
			}
			v = next
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr {
			return v, nil
		}
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	return nil, nil
}

func toInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, true
		}
		if f, err := val.Float64(); err == nil {
			return toInt64(f)
		}
	case float64:
		if val == math.Trunc(val) {
			return int64(val), true
		}
	case float32:
		if float64(val) == math.Trunc(float64(val)) {
			return int64(val), true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		if n, ok := toInt64(v); ok {
			return float64(n), true
		}
	}
	return 0, false
}
