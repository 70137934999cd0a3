package shortcode

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		id   string
		kind Kind
		want string
	}{
		{"1234", KindVOD, `[anvplayer video="1234"]`},
		{"1234", KindPlaylist, `[anvplayer playlist="1234"]`},
		{" 0042 ", KindVOD, `[anvplayer video="42"]`},
		{`live-"1"`, KindVOD, `[anvplayer video="live-1"]`},
	}
	for _, tt := range tests {
		if got := Generate(tt.id, tt.kind); got != tt.want {
			t.Errorf("Generate(%q, %q) = %q, want %q", tt.id, tt.kind, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	content := `Intro [anvplayer video="1234" autoplay='true' width=640] middle [anvplayer] end [[anvplayer video="9"]]`
	ms := Parse(content)
	require.Len(t, ms, 3)

	assert.Equal(t, map[string]string{"video": "1234", "autoplay": "true", "width": "640"}, ms[0].Attrs)
	assert.Equal(t, `[anvplayer video="1234" autoplay='true' width=640]`, ms[0].Raw)
	assert.Empty(t, ms[1].Attrs)
	assert.True(t, ms[2].Escaped)
	assert.Equal(t, "1234", ms[0].Attrs["video"])
}

func TestParseAttrsLowercasesNames(t *testing.T) {
	attrs := ParseAttrs(`Video="1" SEEK_TO=30`)
	assert.Equal(t, "1", attrs["video"])
	assert.Equal(t, "30", attrs["seek_to"])
}

var anvpRe = regexp.MustCompile(`data-anvp='([^']*)'`)

func decodeEmbed(t *testing.T, out string) map[string]any {
	t.Helper()
	m := anvpRe.FindStringSubmatch(out)
	require.Len(t, m, 2, "no data-anvp in %q", out)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(html.UnescapeString(m[1])), &cfg))
	return cfg
}

var testDefaults = Defaults{
	MCPID:     "anv-1",
	Profile:   "default",
	StationID: "st-9",
	Width:     "640",
	Height:    "360",
	PlayerURL: "https://player.example.test/anvplayer.min.js",
	TrackerID: "trk-1",
	AdTag:     "https://ads.example.test/tag",
}

func TestRenderBasic(t *testing.T) {
	r := NewRenderer(testDefaults)
	out := r.Render(map[string]string{"video": "1234"})

	assert.True(t, strings.HasPrefix(out, "<div id='p0'></div><script data-anvp='"), out)
	assert.True(t, strings.HasSuffix(out, "src='https://player.example.test/anvplayer.min.js'></script>"), out)

	cfg := decodeEmbed(t, out)
	assert.Equal(t, "anv-1", cfg["mcp"])
	assert.Equal(t, "1234", cfg["video"])
	assert.Equal(t, false, cfg["autoplay"])
	assert.Equal(t, "p0", cfg["pInstance"])

	plugins := cfg["plugins"].(map[string]any)
	assert.Equal(t, "https://ads.example.test/tag", plugins["dfp"].(map[string]any)["adTagUrl"])
	assert.Equal(t, "trk-1", plugins["analytics"].(map[string]any)["pdb"])
	assert.NotContains(t, plugins, "omniture")
}

func TestRenderInstanceCounter(t *testing.T) {
	r := NewRenderer(testDefaults)
	r.Render(map[string]string{"video": "1"})
	out := r.Render(map[string]string{"video": "2"})
	assert.Contains(t, out, "<div id='p1'>")
}

func TestRenderOverrides(t *testing.T) {
	r := NewRenderer(testDefaults)
	out := r.Render(map[string]string{
		"video":               "1",
		"autoplay":            "true",
		"width":               "100%",
		"player_url":          "https://cdn.example.test/p.js",
		"plugin_dfp_adtagurl": "false",
		"tracker_id":          "false",
		"adobe_profile":       "prof",
		"adobe_account":       "acct",
	})
	cfg := decodeEmbed(t, out)
	assert.Equal(t, true, cfg["autoplay"])
	assert.Equal(t, "100%", cfg["width"])
	assert.Contains(t, out, "src='https://cdn.example.test/p.js'")

	plugins := cfg["plugins"].(map[string]any)
	assert.NotContains(t, plugins, "dfp")
	assert.NotContains(t, plugins, "analytics")
	om := plugins["omniture"].(map[string]any)
	assert.Equal(t, "prof", om["profile"])
	assert.Equal(t, "acct", om["account"])
}

func TestRenderAdobeCanceled(t *testing.T) {
	d := testDefaults
	d.AdobeProfile = "prof"
	r := NewRenderer(d)
	cfg := decodeEmbed(t, r.Render(map[string]string{"video": "1", "adobe_analytics": "false"}))
	plugins := cfg["plugins"].(map[string]any)
	assert.NotContains(t, plugins, "omniture")
}

func TestRenderCustomAdTag(t *testing.T) {
	d := testDefaults
	d.AdTag = ""
	r := NewRenderer(d)
	cfg := decodeEmbed(t, r.Render(map[string]string{"video": "1", "plugin_dfp_adtagurl": "https://ads.example.test/custom"}))
	dfp := cfg["plugins"].(map[string]any)["dfp"].(map[string]any)
	assert.Equal(t, "https://ads.example.test/custom", dfp["adTagUrl"])
}

func TestRenderPlaylist(t *testing.T) {
	r := NewRenderer(testDefaults)
	cfg := decodeEmbed(t, r.Render(map[string]string{"playlist": "77"}))
	assert.Equal(t, "77", cfg["playlist"])
	assert.Nil(t, cfg["video"])
}

func TestRenderOmittedWithoutInputs(t *testing.T) {
	r := NewRenderer(testDefaults)
	assert.Empty(t, r.Render(nil))
	assert.Empty(t, r.Render(map[string]string{"video": ""}))

	d := testDefaults
	d.PlayerURL = ""
	assert.Empty(t, NewRenderer(d).Render(map[string]string{"video": "1"}))
	assert.Empty(t, NewRenderer(testDefaults).Render(map[string]string{"video": "1", "player_url": "javascript:alert(1)"}))
}

func TestRenderSeekTo(t *testing.T) {
	r := NewRenderer(testDefaults)
	r.Render(map[string]string{"video": "1", "seek_to": "60"})
	r.Render(map[string]string{"video": "2", "seek_to": "abc"})

	data := r.PlayerData()
	require.Len(t, data, 1)
	assert.Equal(t, int64(60000), data["p0"].SeekTo)
	assert.Equal(t, `<script>var anvatoPlayerData = {"p0":{"seekTo":60000}};</script>`, r.DataScript())
}

func TestSeekMillisBounds(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"90", 90000, true},
		{"-12.7", 12000, true},
		{"9e15", 9000000000000000000, true},
		{"1e16", 0, false},
		{"1e20", 0, false},
		{"-1e300", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := seekMillis(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRenderHugeSeekToDropped(t *testing.T) {
	r := NewRenderer(testDefaults)
	r.Render(map[string]string{"video": "1", "seek_to": "1e20"})
	assert.Empty(t, r.PlayerData())
	assert.Empty(t, r.DataScript())
}

func TestDataScriptEmpty(t *testing.T) {
	assert.Empty(t, NewRenderer(testDefaults).DataScript())
}

func TestRenderContent(t *testing.T) {
	r := NewRenderer(testDefaults)
	out := r.RenderContent(`<p>Watch:</p>[anvplayer video="5"]<p>Literal: [[anvplayer video="6"]]</p>`)
	assert.True(t, strings.HasPrefix(out, "<p>Watch:</p><div id='p0'></div><script"), out)
	assert.True(t, strings.HasSuffix(out, `<p>Literal: [anvplayer video="6"]</p>`), out)
}

func TestConfigFilter(t *testing.T) {
	r := NewRenderer(testDefaults, WithConfigFilter(func(cfg *PlayerConfig, attrs map[string]string) {
		cfg.Profile = "filtered-" + attrs["video"]
	}))
	cfg := decodeEmbed(t, r.Render(map[string]string{"video": "3"}))
	assert.Equal(t, "filtered-3", cfg["profile"])
}
