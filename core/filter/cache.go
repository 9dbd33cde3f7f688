package filter

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MBrOssss/RESTApi/core/query"
)

// DefaultPlanCacheSize is the number of compiled filters kept per compiler.
const DefaultPlanCacheSize = 256

// PlanCache provides thread-safe LRU caching of compiled filters, keyed by the
// canonical form of a filter mapping. Cached filters are shared and must not be
// mutated.
type PlanCache struct {
	cache *lru.Cache[string, *query.QueryFilter]
}

// NewPlanCache creates a new LRU cache holding up to maxItems plans.
func NewPlanCache(maxItems int) (*PlanCache, error) {
	c, err := lru.New[string, *query.QueryFilter](maxItems)
	if err != nil {
		return nil, err
	}
	return &PlanCache{cache: c}, nil
}

// Get retrieves a plan. A cached nil plan (match all) is reported as found.
func (c *PlanCache) Get(key string) (*query.QueryFilter, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a plan.
func (c *PlanCache) Put(key string, plan *query.QueryFilter) {
	c.cache.Add(key, plan)
}

// Len returns the current number of cached plans.
func (c *PlanCache) Len() int {
	return c.cache.Len()
}

// planKey renders an ordered mapping as an unambiguous cache key.
// Each part is written as <length>:<text>.
func planKey(entries [][2]string) string {
	var b strings.Builder
	for _, e := range entries {
		for _, part := range e {
			b.WriteString(strconv.Itoa(len(part)))
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
