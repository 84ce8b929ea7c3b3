package service

import (
	"path"
	"strings"

	"github.com/foomo/pagemethods-mcp/pages"
)

// contentPage implements pages.Page on top of a content server item.
type contentPage struct {
	svc      *service
	id       string
	uri      string
	name     string
	listed   bool
	fields   map[string]string
	siblings []string
}

func (p *contentPage) ID() string {
	return p.id
}

func (p *contentPage) Slug() string {
	if p.uri == "/" || p.uri == "" {
		return ""
	}
	return path.Base(strings.TrimSuffix(p.uri, "/"))
}

func (p *contentPage) URL() string {
	return p.svc.siteSettings.BaseURL + p.uri
}

func (p *contentPage) IsHomePage() bool {
	return p.uri == "/"
}

func (p *contentPage) IsListed() bool {
	return p.listed
}

func (p *contentPage) Name() string {
	return p.name
}

func (p *contentPage) Field(name string) pages.Field {
	return pages.NewField(p.fields[name])
}

func (p *contentPage) Siblings() *pages.PageSet {
	p.svc.mu.RLock()
	defer p.svc.mu.RUnlock()

	items := make([]pages.Page, 0, len(p.siblings))
	for _, id := range p.siblings {
		if sibling, ok := p.svc.index[id]; ok {
			items = append(items, sibling)
		}
	}
	return pages.NewPageSet(items...)
}
