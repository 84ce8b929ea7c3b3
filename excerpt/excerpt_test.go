package excerpt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	out string
}

func (r stubRenderer) RenderInline(text string) string {
	return r.out
}

func TestExcerptNoTruncation(t *testing.T) {
	f := &Formatter{}

	require.Equal(t, "", f.Excerpt("", 10))
	require.Equal(t, "Hello world", f.Excerpt("Hello world", 0))
	require.Equal(t, "Hello world", f.Excerpt("Hello world", -1))
	require.Equal(t, "Hello world", f.Excerpt("Hello world", 100))
	// budget equal to the plaintext length leaves the input alone
	require.Equal(t, "Hello <b>world</b>", f.Excerpt("Hello <b>world</b>", 11))
}

func TestExcerptFirstLineOnly(t *testing.T) {
	f := &Formatter{}

	require.Equal(t, "First line", f.Excerpt("First line\nSecond line\nThird", 0))
	require.Equal(t, "First line", f.Excerpt("First line\r\nSecond line", 0))
}

func TestExcerptRendererIsApplied(t *testing.T) {
	f := &Formatter{Renderer: stubRenderer{out: "Hello <em>there</em>"}}

	require.Equal(t, "Hello <em>there</em>", f.Excerpt("ignored", 0))
}

func TestExcerptTruncation(t *testing.T) {
	f := &Formatter{}

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{
			name:      "word inside tag dropped and tag pair removed",
			input:     "Hello <b>world</b> and more",
			maxLength: 8,
			want:      "Hello&hellip;",
		},
		{
			name:      "cut at tag end keeps the element",
			input:     "Hello <b>world</b> today ok",
			maxLength: 11,
			want:      "Hello <b>world</b>&hellip;",
		},
		{
			name:      "plain words",
			input:     "one two three four",
			maxLength: 7,
			want:      "one two&hellip;",
		},
		{
			name:      "cut inside a word drops it",
			input:     "one two three four",
			maxLength: 9,
			want:      "one two&hellip;",
		},
		{
			name:      "trailing full stop suppresses the ellipsis",
			input:     "One two. Three four",
			maxLength: 8,
			want:      "One two.",
		},
		{
			name:      "nested tags emptied by the cut are removed",
			input:     "An <i><b>emphatic</b></i> statement",
			maxLength: 5,
			want:      "An&hellip;",
		},
		{
			name:      "unicode is counted in code points",
			input:     "Héllo wörld",
			maxLength: 5,
			want:      "Héllo&hellip;",
		},
		{
			name:      "entities count as one character",
			input:     "A &amp; B example words",
			maxLength: 5,
			want:      "A &amp; B&hellip;",
		},
		{
			name:      "void elements survive and stay unbalanced",
			input:     "Line<br>one two three",
			maxLength: 8,
			want:      "Line<br>one&hellip;",
		},
		{
			name:      "trailing punctuation is stripped before the ellipsis",
			input:     "Wait, what is this",
			maxLength: 5,
			want:      "Wait&hellip;",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Excerpt(tt.input, tt.maxLength)
			require.Equal(t, tt.want, got)
			// the ellipsis entity decodes to one extra rune at most
			require.LessOrEqual(t, plainLength(got), tt.maxLength+1)
		})
	}
}

func TestExcerptOutputStaysWithinBudget(t *testing.T) {
	f := &Formatter{}
	inputs := []string{
		"Hello <b>world</b> and more text to cut",
		"a b c d e f g h i j k l m n o p",
		"some <i>italic <b>and bold</b></i> nesting here",
		"Ünïcøde wörds ëverywhere tödäy",
	}
	for _, input := range inputs {
		for max := 1; max <= 20; max++ {
			out := f.Excerpt(input, max)
			plain := plainText(out)
			// the ellipsis entity decodes to a single rune
			trimmed := len([]rune(strings.TrimSuffix(plain, "…")))
			require.LessOrEqual(t, trimmed, max, "input %q max %d -> %q", input, max, out)
		}
	}
}

func TestExcerptBalancesTags(t *testing.T) {
	f := &Formatter{}

	out := f.Excerpt("keep <b>this <i>styled text here</i></b> going on", 16)
	opens := 0
	for _, m := range tagRe.FindAllStringSubmatch(out, -1) {
		if m[1] == "/" {
			opens--
		} else {
			opens++
		}
	}
	require.Zero(t, opens, "unbalanced tags in %q", out)
}

func TestCloseUnbalanced(t *testing.T) {
	require.Equal(t, "<b><i>x</i></b>", closeUnbalanced("<b><i>x"))
	require.Equal(t, "<b>x</b> y", closeUnbalanced("<b>x</b> y"))
	require.Equal(t, "x<br>y", closeUnbalanced("x<br>y"))
	require.Equal(t, `a <img src="x"/> b`, closeUnbalanced(`a <img src="x"/> b`))
}

func TestPlainText(t *testing.T) {
	require.Equal(t, "Hello world", plainText("Hello <b>world</b>"))
	require.Equal(t, "a & b", plainText("a &amp; b"))
	require.Equal(t, "", plainText("<b></b>"))
}
