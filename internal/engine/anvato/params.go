package anvato

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine"
)

// DateLayout is the date format the MCP API expects in date filters.
const DateLayout = "January 02, 2006"

// RequestType selects the list the MCP API returns.
type RequestType string

const (
	ListVideos     RequestType = "list_videos"
	ListPlaylists  RequestType = "list_playlists"
	ListChannels   RequestType = "list_embeddable_channels"
	ListCategories RequestType = "list_categories"
)

// Valid reports whether t is one of the supported request types.
func (t RequestType) Valid() bool {
	switch t {
	case ListVideos, ListPlaylists, ListChannels, ListCategories:
		return true
	}
	return false
}

// node is the XML element name of one result for this request type.
func (t RequestType) node() string {
	switch t {
	case ListPlaylists:
		return "playlist"
	case ListChannels:
		return "channel"
	case ListCategories:
		return "category"
	}
	return "video"
}

// FilterKind is a supported search filter. The set is closed.
type FilterKind int

const (
	FilterKeyword FilterKind = iota
	FilterExpiration
	FilterAddedAfter
	FilterCategory
	FilterVideo
	FilterProgram
	FilterPublished
)

var filterFields = map[FilterKind]struct{ by, cond string }{
	FilterKeyword:    {"name", "lk"},
	FilterExpiration: {"exp_date", "gt"},
	FilterAddedAfter: {"ts_added", "gt"},
	FilterCategory:   {"category_id", "eq"},
	FilterVideo:      {"upload_id", "eq"},
	FilterProgram:    {"program_id", "eq"},
	FilterPublished:  {"published", "eq"},
}

func (k FilterKind) String() string {
	if f, ok := filterFields[k]; ok {
		return f.by
	}
	return "filter(" + strconv.Itoa(int(k)) + ")"
}

// Filter is one filter_by / filter_cond / filter_value triple.
type Filter struct {
	Kind  FilterKind
	Value string
}

// Validate rejects kinds outside the closed set and empty values.
func (f Filter) Validate() error {
	if _, ok := filterFields[f.Kind]; !ok {
		return fmt.Errorf("unsupported filter kind %d", int(f.Kind))
	}
	if strings.TrimSpace(f.Value) == "" {
		return fmt.Errorf("filter %s: empty value", f.Kind)
	}
	return nil
}

// SearchParams holds the optional search filters. Zero fields are omitted.
type SearchParams struct {
	Keyword        string
	ExpirationDate time.Time
	AddedAfter     time.Time
	PageNo         int
	PageSize       int
	CategoryID     string
	VideoID        string
	ProgramID      string
	PublishedOnly  bool
}

// Filters returns the present filters in FilterKind order.
func (p SearchParams) Filters() []Filter {
	var out []Filter
	add := func(k FilterKind, v string) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, Filter{Kind: k, Value: v})
		}
	}
	add(FilterKeyword, engine.SanitizeText(p.Keyword))
	if !p.ExpirationDate.IsZero() {
		add(FilterExpiration, p.ExpirationDate.Format(DateLayout))
	}
	if !p.AddedAfter.IsZero() {
		add(FilterAddedAfter, p.AddedAfter.Format(DateLayout))
	}
	add(FilterCategory, p.CategoryID)
	add(FilterVideo, p.VideoID)
	add(FilterProgram, p.ProgramID)
	if p.PublishedOnly {
		add(FilterPublished, "1")
	}
	return out
}

// BuildQuery turns params into the query appended to the signed URL.
func BuildQuery(p SearchParams) (url.Values, error) {
	if p.PageNo < 0 || p.PageSize < 0 {
		return nil, fmt.Errorf("negative pagination: page_no=%d page_sz=%d", p.PageNo, p.PageSize)
	}
	q := url.Values{}
	for i, f := range p.Filters() {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		field := filterFields[f.Kind]
		idx := "[" + strconv.Itoa(i) + "]"
		q.Set("filter_by"+idx, field.by)
		q.Set("filter_cond"+idx, field.cond)
		q.Set("filter_value"+idx, f.Value)
	}
	if p.PageNo > 0 {
		q.Set("page_no", strconv.Itoa(p.PageNo))
	}
	if p.PageSize > 0 {
		q.Set("page_sz", strconv.Itoa(p.PageSize))
	}
	return q, nil
}
