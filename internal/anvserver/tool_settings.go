package anvserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/settings"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SettingsOutput is the stored option set with the private key masked.
type SettingsOutput struct {
	Settings   settings.Settings `json:"settings"`
	HTML5      bool              `json:"html5_enabled"`
	Configured bool              `json:"configured"` // API credentials are complete
}

func newSettingsOutput(s settings.Settings) SettingsOutput {
	return SettingsOutput{
		Settings:   s.Redacted(),
		HTML5:      s.UseHTML5(),
		Configured: s.Credentials().Complete(),
	}
}

func registerSettingsGet(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_settings_get",
		Description: "Show the saved Anvato settings: MCP URL and keys (private key masked), player defaults, analytics and ad settings.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, SettingsOutput, error) {
		out, err := t.settingsGet(ctx)
		return nil, out, err
	})
}

func (t *tools) settingsGet(ctx context.Context) (SettingsOutput, error) {
	s, err := t.settings(ctx)
	if err != nil {
		return SettingsOutput{}, err
	}
	return newSettingsOutput(s), nil
}

// SettingsUpdateInput is a settings patch plus the options to reset.
type SettingsUpdateInput struct {
	settings.Settings
	Clear []string `json:"clear,omitempty" jsonschema:"Option names to reset to unset, e.g. adtag or tracker_id. Applied before the patch"`
}

func registerSettingsUpdate(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "anvato_settings_update",
		Description: "Update Anvato settings. Only non-empty fields are changed; list option names in clear to empty them. Values are sanitized (tags stripped, player_url must be http/https). Cached search results are dropped.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SettingsUpdateInput) (*mcp.CallToolResult, SettingsOutput, error) {
		out, err := t.settingsUpdate(ctx, input)
		return nil, out, err
	})
}

func (t *tools) settingsUpdate(ctx context.Context, input SettingsUpdateInput) (SettingsOutput, error) {
	cur, err := t.settings(ctx)
	if err != nil {
		return SettingsOutput{}, err
	}
	patch := input.Settings
	if patch.PrivateKey == settings.Mask {
		patch.PrivateKey = "" // echoed back from anvato_settings_get
	}
	if len(input.Clear) > 0 {
		if cur, err = cur.Clear(input.Clear...); err != nil {
			return SettingsOutput{}, err
		}
	}
	next := cur.Merge(patch.Sanitize())
	if err := t.Store.Save(ctx, next); err != nil {
		return SettingsOutput{}, fmt.Errorf("save settings: %w", err)
	}
	engine.IncrSettingsUpdates()
	t.Cache.Purge()
	slog.Info("anvato_settings_update: saved", slog.Bool("configured", next.Credentials().Complete()))
	return newSettingsOutput(next), nil
}
