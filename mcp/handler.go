package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/foomo/pagemethods-mcp/excerpt"
	"github.com/foomo/pagemethods-mcp/pageurl"
	"github.com/foomo/pagemethods-mcp/related"
	"github.com/foomo/pagemethods-mcp/service"
)

const Version = "0.1.0"

type ExcerptRequest struct {
	Text      string `json:"text"`      // Raw text, possibly with inline markup
	MaxLength int    `json:"maxLength"` // Plaintext budget; 0 disables truncation
	Format    string `json:"format"`    // html (default) or markdown
}

type ExcerptResponse struct {
	Excerpt string `json:"excerpt"` // The formatted excerpt
	Format  string `json:"format"`  // Format of the excerpt field
}

type RelatedPagesRequest struct {
	Path  string `json:"path"`  // URI of the source page
	Field string `json:"field"` // Field name to match on
	Limit int    `json:"limit"` // Maximum number of pages
	Level int    `json:"level"` // Leading field tokens to compare; 0 = all
}

type RelatedPageSummary struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type RelatedPagesResponse struct {
	Pages []RelatedPageSummary `json:"pages"`
}

type PageURLRequest struct {
	Path     string            `json:"path"`     // URI of the page
	Type     string            `json:"type"`     // Content representation suffix
	Params   map[string]string `json:"params"`   // Path-style key:value segments
	Query    map[string]string `json:"query"`    // Query string parameters
	Fragment string            `json:"fragment"` // Anchor
}

type PageURLResponse struct {
	URL string `json:"url"`
}

// NewServer creates a new MCP server with the excerpt, relatedPages and
// pageUrl tools
func NewServer(formatter *excerpt.Formatter, selector *related.Selector, serviceInstance service.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Page Methods MCP",
		Version,
		server.WithToolCapabilities(false),
	)

	excerptTool := mcp.NewTool("excerpt",
		mcp.WithDescription("Format a one-line excerpt from raw text, truncated to a plaintext budget with balanced HTML"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The raw text to excerpt; only the first line is used"),
		),
		mcp.WithNumber("maxLength",
			mcp.Description("Maximum plaintext length in characters; 0 disables truncation"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'html' (default) or 'markdown'"),
		),
	)
	s.AddTool(excerptTool, mcp.NewTypedToolHandler(getExcerptHandler(formatter)))

	// Page-backed tools only work with a content service
	if serviceInstance != nil {
		relatedTool := mcp.NewTool("relatedPages",
			mcp.WithDescription("Find pages related to a page through shared field values, filled up with random picks"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("The URI of the source page"),
			),
			mcp.WithString("field",
				mcp.Required(),
				mcp.Description("The field name to match on (e.g. 'tags')"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of related pages to return"),
			),
			mcp.WithNumber("level",
				mcp.Description("Number of leading field values to compare; 0 compares all"),
			),
		)
		s.AddTool(relatedTool, mcp.NewTypedToolHandler(getRelatedPagesHandler(selector, serviceInstance)))

		pageURLTool := mcp.NewTool("pageUrl",
			mcp.WithDescription("Build an extended page URL with type suffix, path params, query string and fragment"),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("The URI of the page"),
			),
			mcp.WithString("type",
				mcp.Description("Content representation suffix (e.g. 'md', 'json')"),
			),
			mcp.WithObject("params",
				mcp.Description("Path-style key:value segments to append"),
			),
			mcp.WithObject("query",
				mcp.Description("Query string parameters"),
			),
			mcp.WithString("fragment",
				mcp.Description("Anchor to append"),
			),
		)
		s.AddTool(pageURLTool, mcp.NewTypedToolHandler(getPageURLHandler(serviceInstance)))
	}

	return s
}

// getExcerptHandler is our typed handler function for the excerpt tool
func getExcerptHandler(formatter *excerpt.Formatter) func(ctx context.Context, request mcp.CallToolRequest, args ExcerptRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ExcerptRequest) (*mcp.CallToolResult, error) {
		if args.Text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		format := args.Format
		if format == "" {
			format = "html"
		}
		if format != "html" && format != "markdown" {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", args.Format)), nil
		}

		out := formatter.Excerpt(args.Text, args.MaxLength)
		if format == "markdown" {
			markdown, err := htmltomarkdown.ConvertString(out)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to convert excerpt to markdown: %v", err)), nil
			}
			out = markdown
		}

		response := ExcerptResponse{
			Excerpt: out,
			Format:  format,
		}
		responseBytes, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(responseBytes)), nil
	}
}

// getRelatedPagesHandler is our typed handler function for the relatedPages tool
func getRelatedPagesHandler(selector *related.Selector, serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args RelatedPagesRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args RelatedPagesRequest) (*mcp.CallToolResult, error) {
		if args.Path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		if args.Field == "" {
			return mcp.NewToolResultError("field is required"), nil
		}

		page, err := serviceInstance.Resolve(ctx, args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to resolve page: %v", err)), nil
		}

		response := RelatedPagesResponse{Pages: []RelatedPageSummary{}}
		for _, p := range selector.Related(page, args.Field, args.Limit, args.Level, nil) {
			summary := RelatedPageSummary{
				ID:  p.ID(),
				URL: p.URL(),
			}
			if named, ok := p.(interface{ Name() string }); ok {
				summary.Title = named.Name()
			}
			response.Pages = append(response.Pages, summary)
		}

		responseBytes, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(responseBytes)), nil
	}
}

func queryValues(m map[string]string) url.Values {
	if len(m) == 0 {
		return nil
	}
	values := url.Values{}
	for key, value := range m {
		values.Set(key, value)
	}
	return values
}

// getPageURLHandler is our typed handler function for the pageUrl tool
func getPageURLHandler(serviceInstance service.Service) func(ctx context.Context, request mcp.CallToolRequest, args PageURLRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args PageURLRequest) (*mcp.CallToolResult, error) {
		if args.Path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		page, err := serviceInstance.Resolve(ctx, args.Path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to resolve page: %v", err)), nil
		}

		response := PageURLResponse{
			URL: pageurl.Extended(page, pageurl.Options{
				Type:     args.Type,
				Params:   pageurl.ParamsFromMap(args.Params),
				Query:    queryValues(args.Query),
				Fragment: args.Fragment,
			}),
		}
		responseBytes, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcp.NewToolResultText(string(responseBytes)), nil
	}
}
