// Package search runs filtered, sorted and paginated searches over a
// queryable collection, counting records before and after filtering.
package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/MBrOssss/RESTApi/core/filter"
)

// ErrInvalidRequest is returned for malformed or out-of-range search requests.
var ErrInvalidRequest = errors.New("invalid search request")

// SortSpec names the field and direction of a requested ordering. Direction
// "ASC" sorts ascending, anything else descending.
type SortSpec struct {
	Field     string
	Direction string
}

// Request is one search over a collection. Paging applies only when both Page
// and PerPage are set.
type Request struct {
	Page    *int
	PerPage *int
	Sort    *SortSpec
	Filter  *filter.Mapping
}

// ParseRequest decodes the wire form of a request. sortJSON is a JSON array of
// [field, direction] and is ignored unless it has exactly two elements;
// filterJSON is a JSON object whose key order is kept. Empty strings mean
// "absent".
func ParseRequest(page, perPage *int, sortJSON, filterJSON string) (Request, error) {
	req := Request{Page: page, PerPage: perPage}

	if strings.TrimSpace(sortJSON) != "" {
		var pair []string
		if err := json.Unmarshal([]byte(sortJSON), &pair); err != nil {
			return Request{}, fmt.Errorf("%w: sort: %v", ErrInvalidRequest, err)
		}
		if len(pair) == 2 {
			req.Sort = &SortSpec{Field: pair[0], Direction: pair[1]}
		}
	}

	if strings.TrimSpace(filterJSON) != "" {
		raw := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal([]byte(filterJSON), raw); err != nil {
			return Request{}, fmt.Errorf("%w: filter: %v", ErrInvalidRequest, err)
		}
		req.Filter = orderedmap.New[string, string]()
		for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
			req.Filter.Set(pair.Key, rawString(pair.Value))
		}
	}

	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// rawString renders a JSON filter value as the string the compiler expects.
// Numbers and booleans keep their literal text; null becomes empty.
func rawString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(v))
	if text == "null" {
		return ""
	}
	return text
}

// Validate checks the paging parameters.
func (r Request) Validate() error {
	if r.Page != nil && *r.Page < 0 {
		return fmt.Errorf("%w: page must not be negative, got %d", ErrInvalidRequest, *r.Page)
	}
	if r.PerPage != nil && *r.PerPage < 1 {
		return fmt.Errorf("%w: perPage must be positive, got %d", ErrInvalidRequest, *r.PerPage)
	}
	if r.Paged() {
		page, perPage := *r.Page, *r.PerPage
		if page > math.MaxInt/perPage {
			return fmt.Errorf("%w: page %d of size %d is out of range", ErrInvalidRequest, page, perPage)
		}
	}
	return nil
}

// Paged reports whether the request selects a page.
func (r Request) Paged() bool {
	return r.Page != nil && r.PerPage != nil
}

// AddFilter appends a filter key. Adding a key that is already present fails.
func (r *Request) AddFilter(key, value string) error {
	if r.Filter == nil {
		r.Filter = orderedmap.New[string, string]()
	}
	if _, exists := r.Filter.Get(key); exists {
		return fmt.Errorf("%w: filter key '%s' already present", ErrInvalidRequest, key)
	}
	r.Filter.Set(key, value)
	return nil
}

// SetFilter replaces the whole filter mapping with a single key.
func (r *Request) SetFilter(key, value string) {
	r.Filter = orderedmap.New[string, string]()
	r.Filter.Set(key, value)
}

// FilterKeys returns the filter keys in request order.
func (r Request) FilterKeys() []string {
	if r.Filter == nil {
		return nil
	}
	keys := make([]string, 0, r.Filter.Len())
	for pair := r.Filter.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
