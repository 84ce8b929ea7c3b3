package pageurl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/foomo/pagemethods-mcp/pages"
)

// Param is one key:value path segment.
type Param struct {
	Key   string
	Value string
}

// PathParams is an ordered list of path segments appended as /key:value.
type PathParams []Param

// ParamsFromMap adapts an unordered map into PathParams with stable
// (sorted) key order.
func ParamsFromMap(m map[string]string) PathParams {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make(PathParams, 0, len(keys))
	for _, k := range keys {
		params = append(params, Param{Key: k, Value: m[k]})
	}
	return params
}

// Options extends a page URL with a content representation suffix,
// path-style params, a query string, and a fragment.
type Options struct {
	Type     string
	Params   PathParams
	Query    url.Values
	Fragment string
}

// Extended builds the page URL with the extensions applied in order:
// base, home slug when a path extension follows, .type suffix, params,
// query, fragment.
func Extended(page pages.Page, opts Options) string {
	if page == nil {
		return ""
	}
	out := page.URL()
	if page.IsHomePage() && (opts.Type != "" || len(opts.Params) > 0) {
		out = joinPath(out, page.Slug())
	}
	if opts.Type != "" {
		out += "." + strings.TrimPrefix(opts.Type, ".")
	}
	for _, param := range opts.Params {
		if param.Key == "" {
			continue
		}
		out = joinPath(out, param.Key+":"+param.Value)
	}
	if len(opts.Query) > 0 {
		out += "?" + opts.Query.Encode()
	}
	if opts.Fragment != "" {
		out += "#" + strings.TrimPrefix(opts.Fragment, "#")
	}
	return out
}

// joinPath appends a segment, collapsing the double slash at the
// boundary.
func joinPath(base, segment string) string {
	if segment == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(segment, "/")
}
