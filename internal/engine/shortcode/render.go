package shortcode

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_anvato/internal/engine"
)

// Defaults are the site-wide player values an [anvplayer] tag can override.
type Defaults struct {
	MCPID               string `json:"mcp_id"`
	Profile             string `json:"profile"`
	StationID           string `json:"station_id"`
	Width               string `json:"width"`
	Height              string `json:"height"`
	PlayerURL           string `json:"player_url"`
	TrackerID           string `json:"tracker_id"`
	AdTag               string `json:"adtag"`
	AdobeProfile        string `json:"adobe_profile"`
	AdobeAccount        string `json:"adobe_account"`
	AdobeTrackingServer string `json:"adobe_trackingserver"`
}

// PlayerConfig is the JSON handed to the player script through data-anvp.
// Field order is the order the player documents them in.
type PlayerConfig struct {
	MCP       string   `json:"mcp"`
	Profile   string   `json:"profile"`
	StationID string   `json:"station_id"`
	Width     string   `json:"width"`
	Height    string   `json:"height"`
	Video     *string  `json:"video"`
	Playlist  string   `json:"playlist,omitempty"`
	Autoplay  bool     `json:"autoplay"`
	PInstance string   `json:"pInstance"`
	Plugins   *Plugins `json:"plugins,omitempty"`
}

// Plugins configures optional player plugins.
type Plugins struct {
	DFP       *DFPPlugin       `json:"dfp,omitempty"`
	Analytics *AnalyticsPlugin `json:"analytics,omitempty"`
	Omniture  *OmniturePlugin  `json:"omniture,omitempty"`
}

type DFPPlugin struct {
	AdTagURL string `json:"adTagUrl"`
}

type AnalyticsPlugin struct {
	PDB string `json:"pdb"`
}

type OmniturePlugin struct {
	Profile        string `json:"profile,omitempty"`
	Account        string `json:"account,omitempty"`
	TrackingServer string `json:"trackingServer,omitempty"`
}

func (o *OmniturePlugin) empty() bool {
	return o.Profile == "" && o.Account == "" && o.TrackingServer == ""
}

// InstanceData is per-player data exposed to page script as anvatoPlayerData[pInstance].
type InstanceData struct {
	SeekTo int64 `json:"seekTo,omitempty"` // milliseconds
}

// Renderer renders the players of one page. Instance ids (p0, p1, ...) are
// assigned in render order, so a Renderer must not be shared between pages.
type Renderer struct {
	defaults Defaults
	index    int
	data     map[string]InstanceData
	filter   func(*PlayerConfig, map[string]string)
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithConfigFilter lets callers adjust the player JSON before it is emitted.
func WithConfigFilter(fn func(cfg *PlayerConfig, attrs map[string]string)) RendererOption {
	return func(r *Renderer) { r.filter = fn }
}

// NewRenderer starts a page with the given defaults.
func NewRenderer(d Defaults, opts ...RendererOption) *Renderer {
	r := &Renderer{defaults: d, data: make(map[string]InstanceData)}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve merges attrs over the defaults and assigns the next instance id.
// It returns the player config and the player script URL.
func (r *Renderer) Resolve(attrs map[string]string) (PlayerConfig, string) {
	d := r.defaults
	cfg := PlayerConfig{
		MCP:       pick(attrs, "mcp", d.MCPID),
		Profile:   pick(attrs, "profile", d.Profile),
		StationID: pick(attrs, "station_id", d.StationID),
		Width:     pick(attrs, "width", d.Width),
		Height:    pick(attrs, "height", d.Height),
		Playlist:  strings.TrimSpace(attrs["playlist"]),
		Autoplay:  attrs["autoplay"] == "true",
		PInstance: "p" + strconv.Itoa(r.index),
	}
	r.index++
	if v, ok := attrs["video"]; ok {
		v = strings.TrimSpace(v)
		cfg.Video = &v
	}

	playerURL := d.PlayerURL
	if u := strings.TrimSpace(attrs["player_url"]); u != "" {
		playerURL = u
	}

	plugins := &Plugins{}
	if tag := dfpAdTag(attrs, d.AdTag); tag != "" {
		plugins.DFP = &DFPPlugin{AdTagURL: tag}
	}
	if pdb, ok := override(attrs, "tracker_id", d.TrackerID); ok {
		plugins.Analytics = &AnalyticsPlugin{PDB: pdb}
	}
	if attrs["adobe_analytics"] != "false" {
		om := &OmniturePlugin{}
		om.Profile, _ = override(attrs, "adobe_profile", d.AdobeProfile)
		om.Account, _ = override(attrs, "adobe_account", d.AdobeAccount)
		om.TrackingServer, _ = override(attrs, "adobe_trackingserver", d.AdobeTrackingServer)
		if !om.empty() {
			plugins.Omniture = om
		}
	}
	if plugins.DFP != nil || plugins.Analytics != nil || plugins.Omniture != nil {
		cfg.Plugins = plugins
	}

	if seek, ok := seekMillis(attrs["seek_to"]); ok {
		r.data[cfg.PInstance] = InstanceData{SeekTo: seek}
	}

	if r.filter != nil {
		r.filter(&cfg, attrs)
	}
	return cfg, playerURL
}

// Render returns the <div>/<script> embed for one tag, or "" when there is
// nothing to play or no usable player URL.
func (r *Renderer) Render(attrs map[string]string) string {
	if attrs == nil {
		attrs = map[string]string{}
	}
	cfg, playerURL := r.Resolve(attrs)
	if (cfg.Video == nil || *cfg.Video == "") && cfg.Playlist == "" {
		return ""
	}
	src, ok := safeURL(playerURL)
	if !ok {
		slog.Debug("shortcode: skipped, no usable player url", slog.String("instance", cfg.PInstance))
		return ""
	}

	js, err := json.Marshal(cfg)
	if err != nil {
		slog.Warn("shortcode: marshal player config", slog.Any("error", err))
		return ""
	}
	engine.IncrEmbedsRendered()
	return fmt.Sprintf("<div id='%s'></div><script data-anvp='%s' src='%s'></script>",
		html.EscapeString(cfg.PInstance), html.EscapeString(string(js)), html.EscapeString(src))
}

// RenderContent replaces every [anvplayer] tag in content with its embed.
// Escaped tags ([[anvplayer ...]]) are unwrapped to literal text.
func (r *Renderer) RenderContent(content string) string {
	matches := Parse(content)
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m.Start])
		if m.Escaped {
			b.WriteString(m.Raw[1 : len(m.Raw)-1])
		} else {
			b.WriteString(r.Render(m.Attrs))
		}
		last = m.End
	}
	b.WriteString(content[last:])
	return b.String()
}

// PlayerData returns the per-instance data collected so far.
func (r *Renderer) PlayerData() map[string]InstanceData {
	out := make(map[string]InstanceData, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// DataScript returns the inline script defining anvatoPlayerData, or "" when empty.
func (r *Renderer) DataScript() string {
	if len(r.data) == 0 {
		return ""
	}
	js, err := json.Marshal(r.data)
	if err != nil {
		return ""
	}
	return "<script>var anvatoPlayerData = " + string(js) + ";</script>"
}

// pick returns attrs[key] when present, else def.
func pick(attrs map[string]string, key, def string) string {
	if v, ok := attrs[key]; ok {
		return v
	}
	return def
}

// override implements the tracker/adobe rules: absent attr → non-empty default;
// attr "false" cancels; any other non-empty attr wins.
func override(attrs map[string]string, key, def string) (string, bool) {
	v, set := attrs[key]
	if !set {
		return def, def != ""
	}
	if v == "false" || v == "" {
		return "", false
	}
	return v, true
}

// dfpAdTag: an absent or empty attr falls back to the default tag; "false" cancels.
func dfpAdTag(attrs map[string]string, def string) string {
	v, set := attrs["plugin_dfp_adtagurl"]
	if def != "" && (!set || v == "") {
		return def
	}
	if v != "" && v != "false" {
		return v
	}
	return ""
}

// seekMillis converts a numeric seek_to in seconds into absolute milliseconds.
// Offsets whose millisecond value does not fit an int64 are rejected.
func seekMillis(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Abs(f)
	if f >= math.MaxInt64/1000 {
		return 0, false
	}
	return int64(f) * 1000, true
}

// safeURL accepts http(s) and protocol-relative URLs only.
func safeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch u.Scheme {
	case "http", "https", "":
		return u.String(), true
	}
	return "", false
}
