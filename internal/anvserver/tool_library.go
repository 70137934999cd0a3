package anvserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/explorer"
	"github.com/anatolykoptev/go_anvato/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LibraryInput exposes every library filter, for callers that need more than the picker.
type LibraryInput struct {
	Type          string `json:"type,omitempty" jsonschema:"list_videos (default), list_playlists, list_embeddable_channels, list_categories"`
	Keyword       string `json:"keyword,omitempty" jsonschema:"Title keyword"`
	CategoryID    string `json:"category_id,omitempty" jsonschema:"Category ID"`
	VideoID       string `json:"video_id,omitempty" jsonschema:"Exact video (upload) ID"`
	ProgramID     string `json:"program_id,omitempty" jsonschema:"Program ID"`
	PublishedOnly bool   `json:"published_only,omitempty" jsonschema:"Only published videos"`
	AddedAfter    string `json:"added_after,omitempty" jsonschema:"Only items added after this date (YYYY-MM-DD)"`
	ExpiresAfter  string `json:"expires_after,omitempty" jsonschema:"Only items expiring after this date (YYYY-MM-DD)"`
	Page          int    `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize      int    `json:"page_size,omitempty" jsonschema:"Results per page"`
}

// LibraryOutput is the shaped library response.
type LibraryOutput struct {
	Type  string          `json:"type"`
	Count int             `json:"count"`
	Items []explorer.Item `json:"items"`
}

func registerLibrary(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_library",
		Description: "Query the Anvato MCP library with explicit filters (keyword, category, video, program, published, added/expiration dates). Also lists categories. Returns shaped items (id, title, thumbnail, date, meta).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input LibraryInput) (*mcp.CallToolResult, LibraryOutput, error) {
		out, err := t.library(ctx, input)
		return nil, out, err
	})
}

func (t *tools) library(ctx context.Context, input LibraryInput) (LibraryOutput, error) {
	rt := anvato.ListVideos
	if typ := strings.ToLower(strings.TrimSpace(input.Type)); typ != "" {
		rt = anvato.RequestType(typ)
	}
	if !rt.Valid() {
		return LibraryOutput{}, fmt.Errorf("unsupported type %q", input.Type)
	}
	params, err := input.params()
	if err != nil {
		return LibraryOutput{}, err
	}

	creds, err := t.credentials(ctx)
	if err != nil {
		return LibraryOutput{}, toolutil.PublicError("anvato_library", err)
	}

	res, err := t.Library.Search(ctx, creds, rt, params)
	if err != nil {
		return LibraryOutput{}, toolutil.PublicError("anvato_library", err)
	}
	items := t.Explorer.Items(res)
	if items == nil {
		items = []explorer.Item{}
	}
	return LibraryOutput{Type: string(rt), Count: len(items), Items: items}, nil
}

func (in LibraryInput) params() (anvato.SearchParams, error) {
	p := anvato.SearchParams{
		Keyword:       in.Keyword,
		PageNo:        in.Page,
		PageSize:      in.PageSize,
		CategoryID:    in.CategoryID,
		VideoID:       in.VideoID,
		ProgramID:     in.ProgramID,
		PublishedOnly: in.PublishedOnly,
	}
	if p.PageNo < 0 || p.PageSize < 0 {
		return p, errors.New("page and page_size must not be negative")
	}
	var err error
	if p.AddedAfter, err = parseDate("added_after", in.AddedAfter); err != nil {
		return p, err
	}
	if p.ExpirationDate, err = parseDate("expires_after", in.ExpiresAfter); err != nil {
		return p, err
	}
	return p, nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: want YYYY-MM-DD, got %q", field, s)
	}
	return d, nil
}
