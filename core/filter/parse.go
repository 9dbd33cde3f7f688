package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MBrOssss/RESTApi/core/schema"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Sentinel operands meaning "no value" for equal_ and notequal_ keys.
var sentinelValues = map[string]struct{}{
	uuid.Nil.String():       {},
	strconv.Itoa(-1 << 31): {},
}

func isSentinel(raw string) bool {
	_, ok := sentinelValues[strings.TrimSpace(raw)]
	return ok
}

// parseDate reads a calendar date from the first ten characters of raw.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: '%s' is not a date", ErrParse, raw)
	}
	t, err := time.ParseInLocation(dateLayout, raw[:len(dateLayout)], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: '%s' is not a date", ErrParse, raw)
	}
	return t, nil
}

func parseDateTime(raw string) (time.Time, error) {
	t, err := schema.ParseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return t, nil
}

// parseTruthy accepts true, 1, yes and on (any case) as true; everything else
// is false.
func parseTruthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseStrictBool accepts only true and false, ignoring case.
func parseStrictBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: '%s' is not a boolean", ErrParse, raw)
}

// parseScalar converts an equality operand to the canonical value of the field
// type. An empty operand on a nullable numeric field is null.
func parseScalar(t schema.FieldType, nullable bool, raw string) (any, error) {
	switch {
	case t == schema.FieldTypeBoolean:
		return parseTruthy(raw), nil
	case t.IsInteger():
		s := strings.TrimSpace(raw)
		if s == "" && nullable {
			return nil, nil
		}
		bits := 64
		if t == schema.FieldTypeInt32 {
			bits = 32
		}
		n, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s' is not a %s", ErrParse, raw, t)
		}
		return n, nil
	case t == schema.FieldTypeFloat64:
		s := strings.TrimSpace(raw)
		if s == "" && nullable {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: '%s' is not a %s", ErrParse, raw, t)
		}
		return f, nil
	case t == schema.FieldTypeUUID:
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: '%s' is not a uuid", ErrParse, raw)
		}
		return id, nil
	case t == schema.FieldTypeString:
		return raw, nil
	}
	return nil, fmt.Errorf("%w: equality on %s", ErrUnsupportedType, t)
}

// parseList splits a comma-separated operand, dropping blank elements, and
// parses each element by field type: uuid, else integer, else string.
func parseList(t schema.FieldType, raw string) ([]any, error) {
	if t != schema.FieldTypeUUID && !t.IsInteger() && t != schema.FieldTypeString {
		return nil, fmt.Errorf("%w: list membership on %s", ErrUnsupportedType, t)
	}
	var out []any
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case t == schema.FieldTypeUUID:
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("%w: list element '%s' is not a uuid", ErrParse, part)
			}
			out = append(out, id)
		case t.IsInteger():
			bits := 64
			if t == schema.FieldTypeInt32 {
				bits = 32
			}
			n, err := strconv.ParseInt(part, 10, bits)
			if err != nil {
				return nil, fmt.Errorf("%w: list element '%s' is not a %s", ErrParse, part, t)
			}
			out = append(out, n)
		default:
			out = append(out, part)
		}
	}
	return out, nil
}
