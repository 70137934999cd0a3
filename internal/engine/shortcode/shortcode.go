// Package shortcode generates, parses and renders [anvplayer] shortcodes.
package shortcode

import (
	"regexp"
	"strconv"
	"strings"
)

// Tag is the shortcode name.
const Tag = "anvplayer"

// Kind selects the attribute a generated shortcode carries.
type Kind string

const (
	KindVOD      Kind = "vod"
	KindPlaylist Kind = "playlist"
)

// Generate returns the shortcode an editor inserts for id:
// [anvplayer video="1234"] or, for playlists, [anvplayer playlist="1234"].
func Generate(id string, kind Kind) string {
	attr := "video"
	if kind == KindPlaylist {
		attr = "playlist"
	}
	return "[" + Tag + " " + attr + `="` + normalizeID(id) + `"]`
}

// normalizeID keeps numeric ids canonical and strips characters that would break the tag.
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '[', ']', '<', '>':
			return -1
		}
		return r
	}, id)
}

// Match is one shortcode occurrence in content.
type Match struct {
	Start, End int // byte offsets of the whole tag in content
	Attrs      map[string]string
	Escaped    bool // [[anvplayer ...]] renders as literal text
	Raw        string
}

var (
	tagRe  = regexp.MustCompile(`\[(\[?)` + Tag + `(?:\s([^\]]*?))?\s*/?\](\]?)`)
	attrRe = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"(?:\s|$)|([\w-]+)\s*=\s*'([^']*)'(?:\s|$)|([\w-]+)\s*=\s*([^\s'"]+)(?:\s|$)`)
)

// Parse finds every [anvplayer] tag in content, in order.
func Parse(content string) []Match {
	var out []Match
	for _, loc := range tagRe.FindAllStringSubmatchIndex(content, -1) {
		m := Match{Start: loc[0], End: loc[1]}
		open := loc[3] > loc[2]
		closeBr := loc[7] > loc[6]
		m.Escaped = open && closeBr
		// A lone extra bracket on either side belongs to the surrounding text.
		if open && !closeBr {
			m.Start++
		}
		if closeBr && !open {
			m.End--
		}
		m.Raw = content[m.Start:m.End]
		if loc[4] >= 0 {
			m.Attrs = ParseAttrs(content[loc[4]:loc[5]])
		} else {
			m.Attrs = map[string]string{}
		}
		out = append(out, m)
	}
	return out
}

// ParseAttrs parses name="value", name='value' and name=value pairs.
// Names are lowercased; positional values are ignored.
func ParseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	s = strings.NewReplacer("\u00a0", " ", "\u200b", " ").Replace(s)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		switch {
		case m[1] != "":
			attrs[strings.ToLower(m[1])] = m[2]
		case m[3] != "":
			attrs[strings.ToLower(m[3])] = m[4]
		case m[5] != "":
			attrs[strings.ToLower(m[5])] = m[6]
		}
	}
	return attrs
}
