package pages

import "strings"

// Page is the capability surface the host CMS supplies for a single page.
type Page interface {
	ID() string
	Slug() string
	URL() string
	IsHomePage() bool
	IsListed() bool
	Field(name string) Field
	Siblings() *PageSet
}

// Site resolves pages by id across the whole content tree.
type Site interface {
	// Find returns the page for the given id, or nil when it no longer exists.
	Find(id string) Page
}

// Field wraps a raw field value. Multi-value fields are comma separated.
type Field struct {
	value string
}

func NewField(value string) Field {
	return Field{value: value}
}

func (f Field) Value() string {
	return f.value
}

func (f Field) IsEmpty() bool {
	return strings.TrimSpace(f.value) == ""
}

// Split returns the ordered value tokens, trimmed, with empties dropped.
func (f Field) Split() []string {
	if f.IsEmpty() {
		return nil
	}
	parts := strings.Split(f.value, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
