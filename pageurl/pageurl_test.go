package pageurl

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foomo/pagemethods-mcp/pages"
)

func page(rawURL string) *pages.Static {
	return &pages.Static{PageID: "p", PageURL: rawURL}
}

func homePage(rawURL, slug string) *pages.Static {
	return &pages.Static{PageID: "home", PageURL: rawURL, PageSlug: slug, Home: true}
}

func TestExtended(t *testing.T) {
	tests := []struct {
		name string
		page pages.Page
		opts Options
		want string
	}{
		{
			name: "no extensions",
			page: page("/blog/post"),
			opts: Options{},
			want: "/blog/post",
		},
		{
			name: "type suffix",
			page: page("/blog/post"),
			opts: Options{Type: "md"},
			want: "/blog/post.md",
		},
		{
			name: "type with leading dot",
			page: page("/blog/post"),
			opts: Options{Type: ".json"},
			want: "/blog/post.json",
		},
		{
			name: "path params keep their order",
			page: page("/blog"),
			opts: Options{Params: PathParams{{"tag", "css"}, {"year", "2024"}}},
			want: "/blog/tag:css/year:2024",
		},
		{
			name: "params and query",
			page: page("/blog"),
			opts: Options{
				Params: PathParams{{"tag", "css"}},
				Query:  url.Values{"page": {"2"}},
			},
			want: "/blog/tag:css?page=2",
		},
		{
			name: "fragment",
			page: page("/blog/post"),
			opts: Options{Fragment: "comments"},
			want: "/blog/post#comments",
		},
		{
			name: "fragment with leading hash",
			page: page("/blog/post"),
			opts: Options{Fragment: "#comments"},
			want: "/blog/post#comments",
		},
		{
			name: "everything combined",
			page: page("/blog"),
			opts: Options{
				Type:     "html",
				Params:   PathParams{{"tag", "css"}},
				Query:    url.Values{"page": {"2"}},
				Fragment: "top",
			},
			want: "/blog.html/tag:css?page=2#top",
		},
		{
			name: "home page gets its slug before a type suffix",
			page: homePage("/", "home"),
			opts: Options{Type: "md"},
			want: "/home.md",
		},
		{
			name: "home page gets its slug before params",
			page: homePage("/", "home"),
			opts: Options{Params: PathParams{{"tag", "css"}}},
			want: "/home/tag:css",
		},
		{
			name: "home page without path extensions stays bare",
			page: homePage("/", "home"),
			opts: Options{Query: url.Values{"page": {"2"}}},
			want: "/?page=2",
		},
		{
			name: "home page with empty slug",
			page: homePage("/", ""),
			opts: Options{Type: "md"},
			want: "/.md",
		},
		{
			name: "trailing slash base does not double up",
			page: page("/blog/"),
			opts: Options{Params: PathParams{{"tag", "css"}}},
			want: "/blog/tag:css",
		},
		{
			name: "empty param key is skipped",
			page: page("/blog"),
			opts: Options{Params: PathParams{{"", "x"}, {"tag", "css"}}},
			want: "/blog/tag:css",
		},
		{
			name: "query values are encoded",
			page: page("/blog"),
			opts: Options{Query: url.Values{"q": {"a b"}}},
			want: "/blog?q=a+b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Extended(tt.page, tt.opts))
		})
	}
}

func TestExtendedNilPage(t *testing.T) {
	require.Equal(t, "", Extended(nil, Options{Type: "md"}))
}

func TestExtendedAbsoluteBase(t *testing.T) {
	p := page("https://example.com/blog/post")
	require.Equal(t, "https://example.com/blog/post.md", Extended(p, Options{Type: "md"}))
}

func TestParamsFromMap(t *testing.T) {
	require.Nil(t, ParamsFromMap(nil))
	require.Nil(t, ParamsFromMap(map[string]string{}))

	params := ParamsFromMap(map[string]string{"year": "2024", "tag": "css"})
	require.Equal(t, PathParams{{"tag", "css"}, {"year", "2024"}}, params)
}
