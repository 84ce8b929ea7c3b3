package pages

// Static is a self-contained page value, used by tests and by callers that
// already hold the full candidate pool in memory.
type Static struct {
	PageID   string
	PageSlug string
	PageURL  string
	Home     bool
	Unlisted bool
	Fields   map[string]string
	Sibs     *PageSet
}

func (p *Static) ID() string {
	return p.PageID
}

func (p *Static) Slug() string {
	return p.PageSlug
}

func (p *Static) URL() string {
	return p.PageURL
}

func (p *Static) IsHomePage() bool {
	return p.Home
}

func (p *Static) IsListed() bool {
	return !p.Unlisted
}

func (p *Static) Field(name string) Field {
	return NewField(p.Fields[name])
}

func (p *Static) Siblings() *PageSet {
	if p.Sibs == nil {
		return NewPageSet()
	}
	return p.Sibs
}

// MapSite is an in-memory Site backed by a plain map.
type MapSite map[string]Page

func (s MapSite) Find(id string) Page {
	if p, ok := s[id]; ok {
		return p
	}
	return nil
}
