package pages

import (
	"math/rand"
	"time"
)

// PageSet is an ordered collection of pages, deduplicated by id. All
// operations return a new set and leave the receiver untouched.
type PageSet struct {
	pages []Page
}

func NewPageSet(items ...Page) *PageSet {
	s := &PageSet{}
	seen := make(map[string]bool, len(items))
	for _, p := range items {
		if p == nil || seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true
		s.pages = append(s.pages, p)
	}
	return s
}

func (s *PageSet) Count() int {
	if s == nil {
		return 0
	}
	return len(s.pages)
}

// Pages returns the pages in set order.
func (s *PageSet) Pages() []Page {
	if s == nil {
		return nil
	}
	out := make([]Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// IDs returns the page ids in set order.
func (s *PageSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, len(s.pages))
	for i, p := range s.pages {
		ids[i] = p.ID()
	}
	return ids
}

func (s *PageSet) Has(id string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.pages {
		if p.ID() == id {
			return true
		}
	}
	return false
}

// Listed keeps only pages visible in listings.
func (s *PageSet) Listed() *PageSet {
	return s.Filter(func(p Page) bool { return p.IsListed() })
}

// Not excludes the given page by id.
func (s *PageSet) Not(page Page) *PageSet {
	if page == nil {
		return s.Filter(func(Page) bool { return true })
	}
	return s.Filter(func(p Page) bool { return p.ID() != page.ID() })
}

func (s *PageSet) Filter(keep func(Page) bool) *PageSet {
	out := &PageSet{}
	if s == nil {
		return out
	}
	for _, p := range s.pages {
		if keep(p) {
			out.pages = append(out.pages, p)
		}
	}
	return out
}

// Slice returns up to length pages starting at offset.
func (s *PageSet) Slice(offset, length int) *PageSet {
	if s == nil || offset >= len(s.pages) || offset < 0 || length <= 0 {
		return &PageSet{}
	}
	end := offset + length
	if end > len(s.pages) {
		end = len(s.pages)
	}
	out := &PageSet{pages: make([]Page, end-offset)}
	copy(out.pages, s.pages[offset:end])
	return out
}

// Limit returns the first n pages.
func (s *PageSet) Limit(n int) *PageSet {
	return s.Slice(0, n)
}

// Merge appends the other set, keeping the receiver's order and skipping
// ids already present.
func (s *PageSet) Merge(other *PageSet) *PageSet {
	items := s.Pages()
	if other != nil {
		items = append(items, other.pages...)
	}
	return NewPageSet(items...)
}

// Shuffle returns the set in random order. A nil source falls back to a
// time-seeded one; tests pass a fixed seed.
func (s *PageSet) Shuffle(rng *rand.Rand) *PageSet {
	if s == nil {
		return &PageSet{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := &PageSet{pages: make([]Page, len(s.pages))}
	copy(out.pages, s.pages)
	rng.Shuffle(len(out.pages), func(i, j int) {
		out.pages[i], out.pages[j] = out.pages[j], out.pages[i]
	})
	return out
}
