package related

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/pagemethods-mcp/cache"
	"github.com/foomo/pagemethods-mcp/pages"
)

// DefaultExpiry is how long a computed id list stays cached.
const DefaultExpiry = 1440 * time.Minute

const defaultKeyPrefix = "related-"

// Selector finds pages sharing field values with a source page, filling
// the remainder with random picks, and caches the resulting id list.
type Selector struct {
	Cache  cache.Cache
	Site   pages.Site
	Rand   *rand.Rand
	Expiry time.Duration
	Prefix string
}

func New(c cache.Cache, site pages.Site) *Selector {
	return &Selector{Cache: c, Site: site, Expiry: DefaultExpiry}
}

// Related returns up to limit pages related to page through the named
// field. A nil pool defaults to the page's listed siblings; the source
// page is never part of the result.
func (s *Selector) Related(page pages.Page, field string, limit, level int, pool *pages.PageSet) []pages.Page {
	if page == nil {
		return nil
	}
	key := s.key(page.ID(), field, limit, level, pool != nil)
	if hit, ok := s.lookup(key); ok {
		return hit
	}
	if limit <= 0 {
		s.store(key, []string{})
		return nil
	}

	candidates := pool
	if candidates == nil {
		candidates = page.Siblings().Listed()
	}
	candidates = candidates.Not(page)

	tokens := page.Field(field).Split()
	if level > 0 && level < len(tokens) {
		tokens = tokens[:level]
	}

	rng := s.Rand
	picked := pages.NewPageSet()
	if len(tokens) > 0 {
		want := make(map[string]bool, len(tokens))
		for _, token := range tokens {
			want[token] = true
		}
		picked = candidates.Filter(func(p pages.Page) bool {
			for _, token := range p.Field(field).Split() {
				if want[token] {
					return true
				}
			}
			return false
		}).Shuffle(rng).Limit(limit)
	}
	if picked.Count() < limit {
		fill := candidates.
			Filter(func(p pages.Page) bool { return !picked.Has(p.ID()) }).
			Shuffle(rng).
			Limit(limit - picked.Count())
		picked = picked.Merge(fill)
	}

	s.store(key, picked.IDs())
	return picked.Pages()
}

// key derives the deterministic cache key for one query.
func (s *Selector) key(pageID, field string, limit, level int, custom bool) string {
	levelPart := "all"
	if level > 0 {
		levelPart = strconv.Itoa(level)
	}
	poolPart := "siblings"
	if custom {
		poolPart = "custom"
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		pageID, field, strconv.Itoa(limit), levelPart, poolPart,
	}, "|")))
	prefix := s.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return prefix + hex.EncodeToString(sum[:])
}

// lookup honors a cached id list only when every id still resolves; a
// single missing page invalidates the whole entry.
func (s *Selector) lookup(key string) ([]pages.Page, bool) {
	if s.Cache == nil {
		return nil, false
	}
	raw, ok := s.Cache.Get(key)
	if !ok {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	if len(ids) > 0 && s.Site == nil {
		return nil, false
	}
	resolved := make([]pages.Page, 0, len(ids))
	for _, id := range ids {
		p := s.Site.Find(id)
		if p == nil {
			return nil, false
		}
		resolved = append(resolved, p)
	}
	return resolved, true
}

func (s *Selector) store(key string, ids []string) {
	if s.Cache == nil {
		return
	}
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	expiry := s.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	s.Cache.Set(key, raw, expiry)
}
