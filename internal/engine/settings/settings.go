// Package settings holds the plugin options: vendor credentials and player defaults.
package settings

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/shortcode"
)

// Settings is the full option set. It is a plain value: callers load it,
// pass it where needed and save a modified copy.
type Settings struct {
	MCPURL              string `json:"mcp_url" yaml:"mcp_url"`
	MCPID               string `json:"mcp_id" yaml:"mcp_id"`
	Profile             string `json:"profile" yaml:"profile"`
	StationID           string `json:"station_id" yaml:"station_id"`
	PlayerURL           string `json:"player_url" yaml:"player_url"`
	TrackerID           string `json:"tracker_id" yaml:"tracker_id"`
	AdTag               string `json:"adtag" yaml:"adtag"`
	AdobeProfile        string `json:"adobe_profile" yaml:"adobe_profile"`
	AdobeAccount        string `json:"adobe_account" yaml:"adobe_account"`
	AdobeTrackingServer string `json:"adobe_trackingserver" yaml:"adobe_trackingserver"`
	Width               string `json:"width" yaml:"width"`
	Height              string `json:"height" yaml:"height"`
	HTML5               *bool  `json:"html5,omitempty" yaml:"html5,omitempty"` // nil means true
	PublicKey           string `json:"public_key" yaml:"public_key"`
	PrivateKey          string `json:"private_key" yaml:"private_key"`
}

// Keys lists every stored option name, in settings-page order.
var Keys = []string{
	"mcp_url", "mcp_id", "profile", "station_id", "player_url", "tracker_id", "adtag",
	"adobe_profile", "adobe_account", "adobe_trackingserver", "width", "height", "html5",
	"public_key", "private_key",
}

// UseHTML5 reports the html5 flag, which defaults to true when never saved.
func (s Settings) UseHTML5() bool {
	return s.HTML5 == nil || *s.HTML5
}

// Sanitize strips markup and whitespace from text options and drops a player
// URL that is not http(s).
func (s Settings) Sanitize() Settings {
	out := s
	for _, f := range out.textFields() {
		*f = engine.SanitizeText(*f)
	}
	out.PlayerURL = sanitizeURL(s.PlayerURL)
	return out
}

func (s *Settings) textFields() []*string {
	return []*string{
		&s.MCPURL, &s.MCPID, &s.Profile, &s.StationID, &s.TrackerID, &s.AdTag,
		&s.AdobeProfile, &s.AdobeAccount, &s.AdobeTrackingServer,
		&s.Width, &s.Height, &s.PublicKey, &s.PrivateKey,
	}
}

func sanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "http", "https", "":
		return u.String()
	}
	return ""
}

// Credentials returns the API credentials.
func (s Settings) Credentials() anvato.Credentials {
	return anvato.Credentials{MCPURL: s.MCPURL, PublicKey: s.PublicKey, PrivateKey: s.PrivateKey}
}

// PlayerDefaults returns the values shortcodes fall back to.
func (s Settings) PlayerDefaults() shortcode.Defaults {
	return shortcode.Defaults{
		MCPID:               s.MCPID,
		Profile:             s.Profile,
		StationID:           s.StationID,
		Width:               s.Width,
		Height:              s.Height,
		PlayerURL:           s.PlayerURL,
		TrackerID:           s.TrackerID,
		AdTag:               s.AdTag,
		AdobeProfile:        s.AdobeProfile,
		AdobeAccount:        s.AdobeAccount,
		AdobeTrackingServer: s.AdobeTrackingServer,
	}
}

// Mask replaces the private key in Redacted output.
const Mask = "********"

// Redacted returns a copy safe to show: the private key is masked.
func (s Settings) Redacted() Settings {
	if s.PrivateKey != "" {
		s.PrivateKey = Mask
	}
	return s
}

// Merge overlays every non-empty field of patch onto s.
func (s Settings) Merge(patch Settings) Settings {
	dst, src := &s, &patch
	df, sf := dst.allText(), src.allText()
	for i := range df {
		if *sf[i] != "" {
			*df[i] = *sf[i]
		}
	}
	if patch.HTML5 != nil {
		v := *patch.HTML5
		s.HTML5 = &v
	}
	return s
}

// Clear resets the named options to unset. Merge never empties a field, so this
// is the only way to drop a saved value such as an ad tag.
func (s Settings) Clear(keys ...string) (Settings, error) {
	m := s.toMap()
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if !slices.Contains(Keys, k) {
			return s, fmt.Errorf("unknown setting %q", k)
		}
		delete(m, k)
	}
	return fromMap(m), nil
}

func (s *Settings) allText() []*string {
	return append(s.textFields(), &s.PlayerURL)
}

// toMap flattens s into option key → stored value.
func (s Settings) toMap() map[string]string {
	m := map[string]string{
		"mcp_url":              s.MCPURL,
		"mcp_id":               s.MCPID,
		"profile":              s.Profile,
		"station_id":           s.StationID,
		"player_url":           s.PlayerURL,
		"tracker_id":           s.TrackerID,
		"adtag":                s.AdTag,
		"adobe_profile":        s.AdobeProfile,
		"adobe_account":        s.AdobeAccount,
		"adobe_trackingserver": s.AdobeTrackingServer,
		"width":                s.Width,
		"height":               s.Height,
		"public_key":           s.PublicKey,
		"private_key":          s.PrivateKey,
	}
	if s.HTML5 != nil {
		m["html5"] = "0"
		if *s.HTML5 {
			m["html5"] = "1"
		}
	}
	return m
}

// fromMap is the inverse of toMap; unknown keys are ignored.
func fromMap(m map[string]string) Settings {
	s := Settings{
		MCPURL:              m["mcp_url"],
		MCPID:               m["mcp_id"],
		Profile:             m["profile"],
		StationID:           m["station_id"],
		PlayerURL:           m["player_url"],
		TrackerID:           m["tracker_id"],
		AdTag:               m["adtag"],
		AdobeProfile:        m["adobe_profile"],
		AdobeAccount:        m["adobe_account"],
		AdobeTrackingServer: m["adobe_trackingserver"],
		Width:               m["width"],
		Height:              m["height"],
		PublicKey:           m["public_key"],
		PrivateKey:          m["private_key"],
	}
	if v, ok := m["html5"]; ok {
		b := v == "1"
		s.HTML5 = &b
	}
	return s
}
