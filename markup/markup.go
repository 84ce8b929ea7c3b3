package markup

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Renderer renders one line of lightweight markup (bold, italic, links,
// inline HTML passes through) into an inline HTML fragment.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	md := goldmark.New(
		goldmark.WithRendererOptions(
			htmlrenderer.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// RenderInline converts the text and unwraps the single paragraph the
// renderer emits for a one-line source. On render errors the raw text is
// returned unchanged.
func (r *Renderer) RenderInline(text string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return text
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out
}
