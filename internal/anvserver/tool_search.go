package anvserver

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/explorer"
	"github.com/anatolykoptev/go_anvato/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchOutput is a page of picker items. Message is set when nothing matched.
type SearchOutput struct {
	Type    string          `json:"type"`
	Page    int             `json:"page"`
	Items   []explorer.Item `json:"items"`
	Message string          `json:"message,omitempty"`
}

const slowSearch = 5 * time.Second

func registerSearch(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_search",
		Description: "Search the Anvato video library the way the editor media picker does. type: vod (default), playlist or live. Without q, lists videos added in the last 30 days. Each item carries the [anvplayer] shortcode to insert (url).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input explorer.Request) (*mcp.CallToolResult, SearchOutput, error) {
		out, err := t.search(ctx, input)
		return nil, out, err
	})
}

func (t *tools) search(ctx context.Context, input explorer.Request) (SearchOutput, error) {
	input.Type = toolutil.NormType(input.Type)

	creds, err := t.credentials(ctx)
	if err != nil {
		return SearchOutput{}, toolutil.PublicError("anvato_search", err)
	}

	cacheKey := engine.CacheKey("anvato_search", creds.MCPURL, creds.PublicKey,
		input.Type, input.Query, strconv.Itoa(input.Page), strconv.Itoa(input.MaxResults))

	var resp *explorer.Response
	err = engine.TrackOperation(ctx, "anvato_search", slowSearch, func(ctx context.Context) error {
		var err error
		resp, err = toolutil.Cached(ctx, t.Cache, cacheKey, func(ctx context.Context) (*explorer.Response, error) {
			return t.Explorer.Request(ctx, creds, input)
		})
		return err
	})
	if err != nil {
		return SearchOutput{}, toolutil.PublicError("anvato_search", err)
	}

	if resp == nil {
		page := input.Page
		if page < 1 {
			page = 1
		}
		return SearchOutput{
			Type:    input.Type,
			Page:    page,
			Items:   []explorer.Item{},
			Message: explorer.Labels()["noresults"],
		}, nil
	}
	slog.Info("anvato_search: done", slog.String("type", resp.Type), slog.Int("items", len(resp.Items)))
	return SearchOutput{Type: resp.Type, Page: resp.Page, Items: resp.Items}, nil
}
