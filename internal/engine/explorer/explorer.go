// Package explorer answers media-picker requests: it turns picker input into
// library search params and library results into insertable items.
package explorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/shortcode"
)

// Picker content types.
const (
	TypeVOD      = "vod"
	TypePlaylist = "playlist"
	TypeLive     = "live"
)

const (
	defaultPageSize = 25
	maxPageSize     = 50
	recentWindow    = 30 * 24 * time.Hour
)

// Searcher is the library call the explorer depends on.
type Searcher interface {
	Search(ctx context.Context, creds anvato.Credentials, t anvato.RequestType, p anvato.SearchParams) (*anvato.Result, error)
}

// Request is one picker query.
type Request struct {
	Type       string `json:"type,omitempty" jsonschema:"Content type: vod (default), playlist, live"`
	Query      string `json:"q,omitempty" jsonschema:"Title keyword. Without it, only videos added in the last 30 days are listed"`
	Page       int    `json:"page,omitempty" jsonschema:"1-based page number (default: 1)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Results per page, 1-50 (sign is ignored; above 50 falls back to 25)"`
}

// Item is one insertable picker entry.
type Item struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Thumbnail string            `json:"thumbnail,omitempty"`
	Date      string            `json:"date,omitempty"` // RFC 3339
	URL       string            `json:"url,omitempty"`  // shortcode inserted into the post
	Meta      map[string]string `json:"meta,omitempty"`
	Markdown  string            `json:"description_markdown,omitempty"`
}

// Response is a page of picker items.
type Response struct {
	Type  string `json:"type"`
	Page  int    `json:"page"`
	Items []Item `json:"items"`
}

// Service resolves picker requests against the library.
type Service struct {
	lib           Searcher
	defaultIcon   string
	now           func() time.Time
	paramsFilter  func(Request, anvato.RequestType, anvato.SearchParams) (anvato.SearchParams, error)
	resultsFilter func(anvato.RequestType, *anvato.Result) *anvato.Result
	itemFilter    func(Item, anvato.Item) Item
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for the recent-window filter and live item dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaultIcon sets the thumbnail for live channels that have no icon.
func WithDefaultIcon(url string) Option {
	return func(s *Service) { s.defaultIcon = url }
}

// WithParamsFilter adjusts the library params of each picker request before the
// search runs. A non-nil error aborts the request and is returned to the caller.
func WithParamsFilter(fn func(Request, anvato.RequestType, anvato.SearchParams) (anvato.SearchParams, error)) Option {
	return func(s *Service) { s.paramsFilter = fn }
}

// WithResultsFilter replaces the library result before it is shaped into items.
func WithResultsFilter(fn func(anvato.RequestType, *anvato.Result) *anvato.Result) Option {
	return func(s *Service) { s.resultsFilter = fn }
}

// WithItemFilter rewrites each shaped item; src is the library item it came from.
func WithItemFilter(fn func(item Item, src anvato.Item) Item) Option {
	return func(s *Service) { s.itemFilter = fn }
}

// New builds a Service over lib.
func New(lib Searcher, opts ...Option) *Service {
	s := &Service{lib: lib, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Params converts a picker request into the request type and library params.
func (s *Service) Params(req Request) (string, anvato.RequestType, anvato.SearchParams, error) {
	typ := strings.ToLower(engine.SanitizeText(req.Type))
	if typ == "" {
		typ = TypeVOD
	}
	var rt anvato.RequestType
	switch typ {
	case TypeVOD:
		rt = anvato.ListVideos
	case TypePlaylist:
		rt = anvato.ListPlaylists
	case TypeLive:
		rt = anvato.ListChannels
	default:
		return "", "", anvato.SearchParams{}, fmt.Errorf("unsupported type %q (want vod, playlist or live)", req.Type)
	}

	p := anvato.SearchParams{PageNo: 1}
	if req.Page > 0 {
		p.PageNo = req.Page
	}

	if q := engine.SanitizeText(req.Query); q != "" {
		p.Keyword = q
	} else {
		p.AddedAfter = s.now().Add(-recentWindow)
	}

	if req.MaxResults != 0 {
		size := req.MaxResults
		if size < 0 {
			size = -size
		}
		if size > maxPageSize {
			size = defaultPageSize
		}
		p.PageSize = size
	}
	return typ, rt, p, nil
}

// Request runs a picker query. A nil response with a nil error means "no results".
func (s *Service) Request(ctx context.Context, creds anvato.Credentials, req Request) (*Response, error) {
	engine.IncrExplorerRequests()

	typ, rt, params, err := s.Params(req)
	if err != nil {
		return nil, err
	}
	if s.paramsFilter != nil {
		if params, err = s.paramsFilter(req, rt, params); err != nil {
			return nil, err
		}
	}

	res, err := s.lib.Search(ctx, creds, rt, params)
	if err != nil {
		return nil, err
	}
	if s.resultsFilter != nil {
		res = s.resultsFilter(rt, res)
	}
	if res.Len() == 0 {
		engine.IncrExplorerNoResults()
		return nil, nil
	}

	return &Response{Type: typ, Page: params.PageNo, Items: s.Items(res)}, nil
}

// Items maps library results to picker items. Live channel dates are the current
// time; categories carry no shortcode.
func (s *Service) Items(res *anvato.Result) []Item {
	now := s.now()
	var out []Item
	for _, it := range res.Items(s.defaultIcon) {
		item := Item{
			ID:        it.ID,
			Content:   it.Title,
			Thumbnail: it.Thumbnail,
			Meta:      it.Meta,
			Markdown:  it.Markdown,
		}
		date := it.Date
		switch it.Kind {
		case anvato.ItemPlaylist:
			item.URL = shortcode.Generate(it.ID, shortcode.KindPlaylist)
		case anvato.ItemChannel:
			date = now
			item.URL = shortcode.Generate(it.ID, shortcode.KindVOD)
		case anvato.ItemCategory:
		default:
			item.URL = shortcode.Generate(it.ID, shortcode.KindVOD)
		}
		if !date.IsZero() {
			item.Date = date.UTC().Format(time.RFC3339)
		}
		if s.itemFilter != nil {
			item = s.itemFilter(item, it)
		}
		out = append(out, item)
	}
	return out
}

// Labels are the picker UI strings.
func Labels() map[string]string {
	return map[string]string{
		"insert":    "Insert Video",
		"noresults": "No videos matched your search query.",
		"title":     "Insert Anvato Video",
		"loadmore":  "Load more videos",
	}
}
