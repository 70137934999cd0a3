package anvato

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine"
)

// ItemKind is the display kind of a search result item.
type ItemKind string

const (
	ItemVideo    ItemKind = "video"
	ItemPlaylist ItemKind = "playlist"
	ItemChannel  ItemKind = "channel"
	ItemCategory ItemKind = "category"
)

// Item is one search result reduced to display fields.
type Item struct {
	Kind      ItemKind          `json:"kind"`
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Thumbnail string            `json:"thumbnail,omitempty"`
	Date      time.Time         `json:"date,omitzero"`
	Meta      map[string]string `json:"meta,omitempty"`
	Markdown  string            `json:"description_markdown,omitempty"`
}

const descriptionWords = 50

// Items maps the result nodes to display items. Channels without an icon use defaultIcon;
// each monetized sub-channel becomes an extra item after its parent.
func (r *Result) Items(defaultIcon string) []Item {
	if r == nil {
		return nil
	}
	items := make([]Item, 0, r.Len())
	for _, v := range r.Videos {
		items = append(items, v.Item())
	}
	for _, p := range r.Playlists {
		items = append(items, p.Item())
	}
	for _, c := range r.Channels {
		items = append(items, c.Items(defaultIcon)...)
	}
	for _, c := range r.Categories {
		items = append(items, c.Item())
	}
	return items
}

// Item maps a video node.
func (v Video) Item() Item {
	it := Item{
		Kind:      ItemVideo,
		ID:        strings.TrimSpace(v.UploadID),
		Title:     engine.SanitizeText(v.Title),
		Thumbnail: strings.TrimSpace(v.SrcImageURL),
		Date:      ParseTimestamp(v.TSAdded),
		Meta:      map[string]string{"type": "vod"},
	}
	if d := FormatDuration(v.Duration); d != "" {
		it.Meta["duration"] = d
	}
	// Meta carries plain text only; the Markdown rendering is kept apart.
	if desc := engine.TrimWords(v.Description, descriptionWords, "..."); desc != "" {
		it.Meta["description"] = desc
		it.Markdown = engine.HTMLToMarkdown(v.Description)
	}
	return it
}

// Item maps a playlist node.
func (p Playlist) Item() Item {
	count, _ := strconv.Atoi(strings.TrimSpace(p.ItemCount))
	it := Item{
		Kind:      ItemPlaylist,
		ID:        strings.TrimSpace(p.PlaylistID),
		Title:     engine.SanitizeText(p.PlaylistTitle),
		Thumbnail: strings.TrimSpace(p.ThumbnailURL),
		Meta: map[string]string{
			"type":        "playlist",
			"video_count": VideoCountLabel(count),
		},
	}
	// Meta carries plain text only; the Markdown rendering is kept apart.
	if desc := engine.TrimWords(p.Description, descriptionWords, "..."); desc != "" {
		it.Meta["description"] = desc
		it.Markdown = engine.HTMLToMarkdown(p.Description)
	}
	return it
}

// Items maps a channel node plus its monetized sub-channels.
func (c Channel) Items(defaultIcon string) []Item {
	icon := strings.TrimSpace(c.IconURL)
	if icon == "" {
		icon = defaultIcon
	}
	items := []Item{{
		Kind:      ItemChannel,
		ID:        strings.TrimSpace(c.EmbedID),
		Title:     engine.SanitizeText(c.ChannelName),
		Thumbnail: icon,
		Meta: map[string]string{
			"type":     "live",
			"category": "Live Stream",
			"embed_id": strings.TrimSpace(c.EmbedID),
		},
	}}
	for _, m := range c.Monetized {
		items = append(items, Item{
			Kind:      ItemChannel,
			ID:        strings.TrimSpace(m.EmbedID),
			Title:     engine.SanitizeText(m.MonetizedName),
			Thumbnail: icon,
			Meta: map[string]string{
				"type":     "live",
				"category": "Monetized Live Stream",
				"embed_id": strings.TrimSpace(m.EmbedID),
			},
		})
	}
	return items
}

// Item maps a category node.
func (c Category) Item() Item {
	return Item{
		Kind:  ItemCategory,
		ID:    strings.TrimSpace(c.CategoryID),
		Title: engine.SanitizeText(c.CategoryName),
		Meta:  map[string]string{"type": "category"},
	}
}

// VideoCountLabel renders "1 video in playlist" / "N videos in playlist".
func VideoCountLabel(n int) string {
	if n == 1 {
		return "1 video in playlist"
	}
	return fmt.Sprintf("%d videos in playlist", n)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	DateLayout,
	time.RFC1123Z,
}

// ParseTimestamp accepts unix seconds or one of the layouts the API has been seen to use.
// Unknown formats yield the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatDuration renders a duration in seconds as M:SS or H:MM:SS.
// Non-numeric input is passed through trimmed.
func FormatDuration(s string) string {
	s = strings.TrimSpace(s)
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs <= 0 {
		if err != nil {
			return s
		}
		return ""
	}
	total := int(secs + 0.5)
	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
