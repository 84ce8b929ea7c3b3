package related

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foomo/pagemethods-mcp/cache"
	"github.com/foomo/pagemethods-mcp/pages"
)

func testPage(id string, tags string, sibs *pages.PageSet) *pages.Static {
	return &pages.Static{
		PageID: id,
		Fields: map[string]string{"tags": tags},
		Sibs:   sibs,
	}
}

// testSite builds a sibling pool of pages sharing one PageSet and a site
// lookup over all of them.
func testSite(t *testing.T, tags map[string]string) (pages.MapSite, *pages.PageSet) {
	t.Helper()
	items := make([]pages.Page, 0, len(tags))
	site := pages.MapSite{}
	set := &pages.PageSet{}
	ids := make([]string, 0, len(tags))
	for id := range tags {
		ids = append(ids, id)
	}
	// stable order keeps the seeded shuffles reproducible
	sortStrings(ids)
	for _, id := range ids {
		p := testPage(id, tags[id], set)
		items = append(items, p)
		site[id] = p
	}
	*set = *pages.NewPageSet(items...)
	return site, set
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func newTestSelector(site pages.Site) *Selector {
	s := New(cache.NewMemory(), site)
	s.Rand = rand.New(rand.NewSource(1))
	return s
}

func TestRelatedMatchesByField(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go, web",
		"b": "go",
		"c": "rust",
		"d": "web, css",
		"e": "",
	})
	s := newTestSelector(site)

	got := s.Related(site.Find("a"), "tags", 2, 0, nil)
	require.Len(t, got, 2)
	for _, p := range got {
		require.NotEqual(t, "a", p.ID())
		require.Contains(t, []string{"b", "d"}, p.ID(), "only pages sharing a tag")
	}
}

func TestRelatedNeverReturnsSourceOrDuplicates(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "x", "b": "x", "c": "x", "d": "x", "e": "x", "f": "x",
	})
	s := newTestSelector(site)

	got := s.Related(site.Find("a"), "tags", 10, 0, nil)
	seen := map[string]bool{}
	for _, p := range got {
		require.NotEqual(t, "a", p.ID())
		require.False(t, seen[p.ID()], "duplicate %s", p.ID())
		seen[p.ID()] = true
	}
	require.Len(t, got, 5, "everything but the source page")
}

func TestRelatedFillsUpWithRandomPicks(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go",
		"b": "go",
		"c": "rust",
		"d": "css",
		"e": "html",
	})
	s := newTestSelector(site)

	got := s.Related(site.Find("a"), "tags", 3, 0, nil)
	require.Len(t, got, 3)
	require.Equal(t, "b", got[0].ID(), "field matches come first")
}

func TestRelatedLimitAndPoolBounds(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go", "b": "go", "c": "go",
	})
	s := newTestSelector(site)

	require.Len(t, s.Related(site.Find("a"), "tags", 10, 0, nil), 2, "capped at pool size")
	require.Empty(t, s.Related(site.Find("a"), "tags", 0, 0, nil))
	require.Empty(t, s.Related(site.Find("a"), "tags", -1, 0, nil))
}

func TestRelatedEmptyFieldFallsBackToRandomFill(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "",
		"b": "go",
		"c": "rust",
	})
	s := newTestSelector(site)

	got := s.Related(site.Find("a"), "tags", 2, 0, nil)
	require.Len(t, got, 2)
}

func TestRelatedLevelLimitsComparedTokens(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go, web",
		"b": "web",
		"c": "rust",
	})
	s := newTestSelector(site)

	// level 1 keeps only "go", which b does not share; the single slot is
	// then a random fill, so only the cache key (not the match) changes
	got := s.Related(site.Find("a"), "tags", 1, 1, nil)
	require.Len(t, got, 1)

	all := s.Related(site.Find("a"), "tags", 1, 0, nil)
	require.Len(t, all, 1)
	require.Equal(t, "b", all[0].ID(), "with all tokens b matches via web")
}

func TestRelatedCustomPool(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go",
		"b": "go",
		"c": "go",
	})
	s := newTestSelector(site)

	pool := pages.NewPageSet(site.Find("a"), site.Find("c"))
	got := s.Related(site.Find("a"), "tags", 5, 0, pool)
	require.Len(t, got, 1)
	require.Equal(t, "c", got[0].ID())
}

func TestRelatedCacheHitShortCircuits(t *testing.T) {
	site, _ := testSite(t, map[string]string{
		"a": "go", "b": "go", "c": "go", "d": "go",
	})
	s := newTestSelector(site)

	first := s.Related(site.Find("a"), "tags", 2, 0, nil)
	require.Len(t, first, 2)

	// a different seed would reshuffle, but the cached order must win
	s.Rand = rand.New(rand.NewSource(99))
	second := s.Related(site.Find("a"), "tags", 2, 0, nil)
	require.Equal(t, idsOf(first), idsOf(second))
}

func TestRelatedCacheInvalidatedByDeletedPage(t *testing.T) {
	site, set := testSite(t, map[string]string{
		"a": "go", "b": "go", "c": "go", "d": "go",
	})
	s := newTestSelector(site)

	first := s.Related(site.Find("a"), "tags", 3, 0, nil)
	require.Len(t, first, 3)

	// delete one of the cached pages; the whole entry must be recomputed,
	// not silently shortened
	delete(site, first[0].ID())
	*set = *set.Not(first[0])
	second := s.Related(site.Find("a"), "tags", 3, 0, nil)
	require.Len(t, second, 2)
	for _, p := range second {
		require.NotEqual(t, first[0].ID(), p.ID())
	}
}

func TestRelatedCachesEmptyResultForZeroLimit(t *testing.T) {
	site, _ := testSite(t, map[string]string{"a": "go", "b": "go"})
	mem := cache.NewMemory()
	s := New(mem, site)
	s.Rand = rand.New(rand.NewSource(1))

	require.Empty(t, s.Related(site.Find("a"), "tags", 0, 0, nil))

	raw, ok := mem.Get(s.key("a", "tags", 0, 0, false))
	require.True(t, ok)
	var ids []string
	require.NoError(t, json.Unmarshal(raw, &ids))
	require.Empty(t, ids)
}

func TestRelatedKeyDerivation(t *testing.T) {
	s := New(nil, nil)

	key := s.key("a", "tags", 3, 0, false)
	require.True(t, strings.HasPrefix(key, "related-"))
	require.Len(t, key, len("related-")+64)

	require.Equal(t, key, s.key("a", "tags", 3, 0, false), "deterministic")
	require.NotEqual(t, key, s.key("a", "tags", 3, 1, false), "level is part of the key")
	require.NotEqual(t, key, s.key("a", "tags", 3, 0, true), "pool discriminator is part of the key")
	require.NotEqual(t, key, s.key("a", "tags", 4, 0, false), "limit is part of the key")

	s.Prefix = "rp:"
	require.True(t, strings.HasPrefix(s.key("a", "tags", 3, 0, false), "rp:"))
}

func TestRelatedExpiryDefault(t *testing.T) {
	s := New(cache.NewMemory(), nil)
	require.Equal(t, 1440*time.Minute, s.Expiry)
}

func idsOf(items []pages.Page) []string {
	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID()
	}
	return ids
}
