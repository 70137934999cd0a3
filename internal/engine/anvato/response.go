package anvato

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// envelope is the part of every response that reports success or failure.
type envelope struct {
	Result  string `xml:"result"`
	Comment string `xml:"comment"`
}

// Video is one <video> node of a list_videos response.
type Video struct {
	UploadID    string `xml:"upload_id" json:"upload_id"`
	Title       string `xml:"title" json:"title"`
	Description string `xml:"description" json:"description,omitempty"`
	TSAdded     string `xml:"ts_added" json:"ts_added,omitempty"`
	SrcImageURL string `xml:"src_image_url" json:"src_image_url,omitempty"`
	Duration    string `xml:"duration" json:"duration,omitempty"`
	ProgramID   string `xml:"program_id" json:"program_id,omitempty"`
	CategoryID  string `xml:"category_id" json:"category_id,omitempty"`
}

// Playlist is one <playlist> node of a list_playlists response.
type Playlist struct {
	PlaylistID    string `xml:"playlist_id" json:"playlist_id"`
	PlaylistTitle string `xml:"playlist_title" json:"playlist_title"`
	Description   string `xml:"description" json:"description,omitempty"`
	ItemCount     string `xml:"item_count" json:"item_count,omitempty"`
	ThumbnailURL  string `xml:"thumbnail_url" json:"thumbnail_url,omitempty"`
}

// Channel is one <channel> node of a list_embeddable_channels response.
type Channel struct {
	EmbedID     string             `xml:"embed_id" json:"embed_id"`
	ChannelName string             `xml:"channel_name" json:"channel_name"`
	IconURL     string             `xml:"icon_url" json:"icon_url,omitempty"`
	Monetized   []MonetizedChannel `xml:"monetized_channels>monetized_channel" json:"monetized_channels,omitempty"`
}

// MonetizedChannel is an ad-enabled variant of a live channel.
type MonetizedChannel struct {
	EmbedID       string `xml:"embed_id" json:"embed_id"`
	MonetizedName string `xml:"monetized_name" json:"monetized_name"`
}

// Category is one <category> node of a list_categories response.
type Category struct {
	CategoryID   string `xml:"category_id" json:"category_id"`
	CategoryName string `xml:"category_name" json:"category_name"`
}

// Result holds the decoded nodes for the request type that produced it.
type Result struct {
	Type       RequestType `json:"type"`
	Videos     []Video     `json:"videos,omitempty"`
	Playlists  []Playlist  `json:"playlists,omitempty"`
	Channels   []Channel   `json:"channels,omitempty"`
	Categories []Category  `json:"categories,omitempty"`
}

// Len is the number of top-level nodes.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Videos) + len(r.Playlists) + len(r.Channels) + len(r.Categories)
}

// checkEnvelope turns an unparsable body or result=failure into an API error.
func checkEnvelope(body []byte) error {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return apiError("")
	}
	if strings.EqualFold(strings.TrimSpace(env.Result), "failure") {
		return apiError(strings.TrimSpace(env.Comment))
	}
	return nil
}

// parseResponse validates the envelope and decodes the node-set for t.
func parseResponse(t RequestType, body []byte) (*Result, error) {
	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	res := &Result{Type: t}
	var err error
	switch t {
	case ListPlaylists:
		res.Playlists, err = collectNodes[Playlist](body, t.node())
	case ListChannels:
		res.Channels, err = collectNodes[Channel](body, t.node())
	case ListCategories:
		res.Categories, err = collectNodes[Category](body, t.node())
	default:
		res.Videos, err = collectNodes[Video](body, t.node())
	}
	if err != nil {
		return nil, parseError(err)
	}
	return res, nil
}

// collectNodes decodes every element called name, at any depth.
// A matched element's subtree is consumed, so nested same-name elements are not double counted.
func collectNodes[T any](body []byte, name string) ([]T, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var out []T
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s nodes: %w", name, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != name {
			continue
		}
		var node T
		if err := dec.DecodeElement(&node, &se); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		out = append(out, node)
	}
}
