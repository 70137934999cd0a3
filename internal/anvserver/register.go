// Package anvserver registers the go_anvato MCP tools.
package anvserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/explorer"
	"github.com/anatolykoptev/go_anvato/internal/engine/settings"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the services the tools run against. Cache may be nil.
type Deps struct {
	Store    settings.Store
	Library  explorer.Searcher // vendor search; also backs Explorer when it is nil
	Explorer *explorer.Service
	Cache    *engine.Cache
}

type tools struct {
	Deps
}

// RegisterTools registers every tool on server:
// anvato_search, anvato_library, anvato_shortcode, anvato_embed,
// anvato_settings_get, anvato_settings_update.
func RegisterTools(server *mcp.Server, d Deps) error {
	if d.Store == nil || d.Library == nil {
		return errors.New("anvserver: store and library are required")
	}
	if d.Explorer == nil {
		d.Explorer = explorer.New(d.Library)
	}
	t := &tools{Deps: d}

	registerSearch(server, t)
	registerLibrary(server, t)
	registerShortcode(server, t)
	registerEmbed(server, t)
	registerSettingsGet(server, t)
	registerSettingsUpdate(server, t)
	return nil
}

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 6

// settings loads the current options. Each call reads the store once.
func (t *tools) settings(ctx context.Context) (settings.Settings, error) {
	s, err := t.Store.Load(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// credentials loads settings and fails fast when the API keys are missing.
func (t *tools) credentials(ctx context.Context) (anvato.Credentials, error) {
	s, err := t.settings(ctx)
	if err != nil {
		return anvato.Credentials{}, err
	}
	creds := s.Credentials()
	if !creds.Complete() {
		engine.IncrMissingSettings()
		return creds, anvato.ErrMissingSettings
	}
	return creds, nil
}
