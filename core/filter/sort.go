package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MBrOssss/RESTApi/core/query"
	"github.com/MBrOssss/RESTApi/core/schema"
)

// SortAscending is the only direction literal that sorts ascending.
const SortAscending = "ASC"

// CompileSort resolves a sort request to an ordering. The field name is
// capitalized on its first character before lookup; a direction of exactly
// "ASC" sorts ascending and anything else descending.
func CompileSort[T any](descriptor *schema.Descriptor[T], field, direction string) (query.SortConfiguration, error) {
	f, err := descriptor.Resolve(capitalize(field))
	if err != nil {
		return query.SortConfiguration{}, err
	}
	dir := query.SortDirectionDesc
	if direction == SortAscending {
		dir = query.SortDirectionAsc
	}
	return query.SortConfiguration{Field: f.Name, Direction: dir}, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(s[size:])
	return b.String()
}
