package excerpt

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Renderer turns one line of lightweight markup into an inline HTML
// fragment. The host environment supplies the implementation; a nil
// renderer means the input is already rendered.
type Renderer interface {
	RenderInline(text string) string
}

type Formatter struct {
	Renderer Renderer
}

// voidElements never take a closing tag and are skipped when balancing.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

var (
	tagRe          = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9]*)[^>]*>`)
	trailingWordRe = regexp.MustCompile(`[\p{L}\p{N}_]+((?:</[a-zA-Z][a-zA-Z0-9]*>|\s)*)$`)
	trailingJunkRe = regexp.MustCompile(`[^\p{L}\p{N}_.>]+$`)
	adjacentPairRe = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)(?:\s[^>]*)?>\s*</([a-zA-Z][a-zA-Z0-9]*)>`)
	tagTailRe      = regexp.MustCompile(`(?:<[^>]*>|\s)*$`)
)

// Excerpt renders the first line of raw and truncates it to at most
// maxLength plaintext characters without breaking words or leaving HTML
// tags unbalanced. A maxLength of zero or less disables truncation.
func (f *Formatter) Excerpt(raw string, maxLength int) string {
	line, _, _ := strings.Cut(raw, "\n")
	line = strings.TrimSuffix(line, "\r")

	rendered := line
	if f != nil && f.Renderer != nil {
		rendered = f.Renderer.RenderInline(line)
	}
	if maxLength <= 0 || plainLength(rendered) <= maxLength {
		return rendered
	}

	out := cutAtBudget(rendered, maxLength)
	out = closeUnbalanced(out)
	out = dropTrailingEmptyPairs(out)
	out = trailingJunkRe.ReplaceAllString(out, "")
	if out != "" && !strings.HasSuffix(out, ".") {
		out += "&hellip;"
	}
	return out
}

// plainText strips tags and decodes entities.
func plainText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// plainLength counts the plaintext in Unicode code points.
func plainLength(fragment string) int {
	return utf8.RuneCountInString(plainText(fragment))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// entityEnd returns the index just past an HTML entity starting at i, or i
// when the ampersand does not open one.
func entityEnd(runes []rune, i int) int {
	j := i + 1
	for j < len(runes) && j-i < 12 {
		r := runes[j]
		if r == ';' {
			if j > i+1 {
				return j + 1
			}
			return i
		}
		if r != '#' && !isWordRune(r) {
			return i
		}
		j++
	}
	return i
}

// cutAtBudget copies the fragment until max plaintext characters have been
// written, keeping tags intact, then drops the word the cut landed in. An
// entity counts as a single character.
func cutAtBudget(s string, max int) string {
	runes := []rune(s)
	var b strings.Builder
	count := 0
	inTag := false
	split := false
	var lastPlain rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inTag {
			b.WriteRune(r)
			if r == '>' {
				inTag = false
			}
			continue
		}
		if r == '<' {
			inTag = true
			b.WriteRune(r)
			continue
		}
		if count == max {
			// Only a cut inside a word forces the word to be dropped; a
			// cut at a word end keeps it.
			split = isWordRune(r) && isWordRune(lastPlain)
			break
		}
		if r == '&' {
			if end := entityEnd(runes, i); end > i {
				for ; i < end; i++ {
					b.WriteRune(runes[i])
				}
				i--
				count++
				lastPlain = 'a'
				continue
			}
		}
		b.WriteRune(r)
		count++
		lastPlain = r
	}
	out := b.String()
	if split {
		// The budget landed inside a word: strip it, keeping any closing
		// tags that followed the kept part of it.
		out = trailingWordRe.ReplaceAllString(out, "$1")
	}
	return out
}

// closeUnbalanced appends closing tags for every element left open, in
// reverse order of first appearance.
func closeUnbalanced(s string) string {
	counts := map[string]int{}
	var order []string
	for _, m := range tagRe.FindAllStringSubmatch(s, -1) {
		name := strings.ToLower(m[2])
		if voidElements[name] || strings.HasSuffix(m[0], "/>") {
			continue
		}
		if m[1] == "/" {
			counts[name]--
			continue
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	var b strings.Builder
	b.WriteString(s)
	for i := len(order) - 1; i >= 0; i-- {
		for n := counts[order[i]]; n > 0; n-- {
			b.WriteString("</" + order[i] + ">")
		}
	}
	return b.String()
}

// dropTrailingEmptyPairs removes elements emptied by the truncation from
// the tag-only tail of the fragment.
func dropTrailingEmptyPairs(s string) string {
	loc := tagTailRe.FindStringIndex(s)
	if loc == nil || loc[0] == loc[1] {
		return s
	}
	head, tail := s[:loc[0]], s[loc[0]:]
	for {
		removed := false
		for _, m := range adjacentPairRe.FindAllStringSubmatchIndex(tail, -1) {
			open := strings.ToLower(tail[m[2]:m[3]])
			closing := strings.ToLower(tail[m[4]:m[5]])
			if open == closing {
				tail = tail[:m[0]] + tail[m[1]:]
				removed = true
				break
			}
		}
		if !removed {
			return head + tail
		}
	}
}
