package anvserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_anvato/internal/engine/shortcode"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ShortcodeInput selects the item a shortcode is generated for.
type ShortcodeInput struct {
	ID   string `json:"id" jsonschema:"Video upload ID, playlist ID or live embed ID"`
	Type string `json:"type,omitempty" jsonschema:"vod (default), live or playlist"`
}

// ShortcodeOutput is the tag an editor inserts.
type ShortcodeOutput struct {
	Shortcode string `json:"shortcode"`
}

func registerShortcode(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_shortcode",
		Description: `Generate the [anvplayer] shortcode for a video, live channel or playlist, e.g. [anvplayer video="1234"] or [anvplayer playlist="1234"].`,
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input ShortcodeInput) (*mcp.CallToolResult, ShortcodeOutput, error) {
		out, err := t.shortcode(input)
		return nil, out, err
	})
}

func (t *tools) shortcode(input ShortcodeInput) (ShortcodeOutput, error) {
	if strings.TrimSpace(input.ID) == "" {
		return ShortcodeOutput{}, errors.New("id is required")
	}
	kind := shortcode.KindVOD
	switch strings.ToLower(strings.TrimSpace(input.Type)) {
	case "", "vod", "video", "live":
	case "playlist":
		kind = shortcode.KindPlaylist
	default:
		return ShortcodeOutput{}, errors.New("type must be vod, live or playlist")
	}
	return ShortcodeOutput{Shortcode: shortcode.Generate(input.ID, kind)}, nil
}

// EmbedInput is content containing [anvplayer] shortcodes.
type EmbedInput struct {
	Content string `json:"content" jsonschema:"Post content; every [anvplayer ...] tag is replaced with its player embed"`
}

// EmbedOutput is the rendered content plus the page-level player data script.
type EmbedOutput struct {
	HTML       string                            `json:"html"`
	DataScript string                            `json:"data_script,omitempty"`
	PlayerData map[string]shortcode.InstanceData `json:"player_data,omitempty"`
	Shortcodes int                               `json:"shortcodes"` // unescaped tags found
}

func registerEmbed(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_embed",
		Description: "Render post content: replace every [anvplayer] shortcode with the player <div>/<script> embed using the saved player settings. Attributes (mcp, profile, width, height, autoplay, player_url, tracker_id, plugin_dfp_adtagurl, adobe_*, seek_to) override the defaults per tag.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input EmbedInput) (*mcp.CallToolResult, EmbedOutput, error) {
		out, err := t.embed(ctx, input)
		return nil, out, err
	})
}

func (t *tools) embed(ctx context.Context, input EmbedInput) (EmbedOutput, error) {
	s, err := t.settings(ctx)
	if err != nil {
		return EmbedOutput{}, err
	}
	r := shortcode.NewRenderer(s.PlayerDefaults())
	html := r.RenderContent(input.Content)

	found := 0
	for _, m := range shortcode.Parse(input.Content) {
		if !m.Escaped {
			found++
		}
	}
	return EmbedOutput{
		HTML:       html,
		DataScript: r.DataScript(),
		PlayerData: r.PlayerData(),
		Shortcodes: found,
	}, nil
}
