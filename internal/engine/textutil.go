package engine

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

// User-Agent sent to the vendor API.
const UserAgent = "go_anvato/1.0"

// StripTags returns the text content of an HTML fragment, dropping script and style bodies.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input: keep what was read
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// SanitizeText strips tags, collapses whitespace (tabs, line breaks) and trims.
// Used on every vendor string before it reaches a picker item or a setting.
func SanitizeText(s string) string {
	return strings.Join(strings.Fields(StripTags(s)), " ")
}

// HTMLToMarkdown renders an HTML description as Markdown, falling back to stripped text.
func HTMLToMarkdown(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return SanitizeText(s)
	}
	return strings.TrimSpace(md)
}

// TrimWords strips tags and keeps the first n whitespace-separated words,
// appending more when cut.
func TrimWords(s string, n int, more string) string {
	words := strings.Fields(StripTags(s))
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
