package anvserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anatolykoptev/go_anvato/internal/engine"
	"github.com/anatolykoptev/go_anvato/internal/engine/anvato"
	"github.com/anatolykoptev/go_anvato/internal/engine/explorer"
	"github.com/anatolykoptev/go_anvato/internal/engine/settings"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	s     settings.Settings
	saves int
}

func (m *memStore) Load(context.Context) (settings.Settings, error) { return m.s, nil }
func (m *memStore) Save(_ context.Context, s settings.Settings) error {
	m.s = s
	m.saves++
	return nil
}
func (m *memStore) Close() error { return nil }

type fakeLibrary struct {
	res   *anvato.Result
	err   error
	calls int
	gotT  anvato.RequestType
	gotP  anvato.SearchParams
}

func (f *fakeLibrary) Search(_ context.Context, _ anvato.Credentials, t anvato.RequestType, p anvato.SearchParams) (*anvato.Result, error) {
	f.calls++
	f.gotT, f.gotP = t, p
	return f.res, f.err
}

var configured = settings.Settings{
	MCPURL:     "https://api.example.test",
	PublicKey:  "pub",
	PrivateKey: "priv",
	MCPID:      "anv-1",
	PlayerURL:  "https://player.example.test/p.js",
}

func newTestTools(t *testing.T, s settings.Settings, lib *fakeLibrary) (*tools, *memStore) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store := &memStore{s: s}
	return &tools{Deps: Deps{
		Store:    store,
		Library:  lib,
		Explorer: explorer.New(lib),
		Cache:    engine.NewCache(ctx, "", time.Minute, 100, time.Minute),
	}}, store
}

func TestRegisterToolsRequiresDeps(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "dev"}, nil)
	assert.Error(t, RegisterTools(server, Deps{}))
	assert.NoError(t, RegisterTools(server, Deps{Store: &memStore{}, Library: &fakeLibrary{}}))
}

func TestSearchMissingSettings(t *testing.T) {
	lib := &fakeLibrary{}
	tl, _ := newTestTools(t, settings.Settings{MCPURL: "https://api.example.test"}, lib)

	_, err := tl.search(context.Background(), explorer.Request{})
	assert.True(t, errors.Is(err, anvato.ErrMissingSettings))
	assert.Zero(t, lib.calls)
}

func TestSearchCachesResults(t *testing.T) {
	lib := &fakeLibrary{res: &anvato.Result{
		Type:   anvato.ListVideos,
		Videos: []anvato.Video{{UploadID: "1234", Title: "Clip"}},
	}}
	tl, _ := newTestTools(t, configured, lib)
	ctx := context.Background()

	out, err := tl.search(ctx, explorer.Request{Query: "clip"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "vod", out.Type)
	assert.Equal(t, `[anvplayer video="1234"]`, out.Items[0].URL)

	again, err := tl.search(ctx, explorer.Request{Query: "clip"})
	require.NoError(t, err)
	assert.Equal(t, out.Items[0].ID, again.Items[0].ID)
	assert.Equal(t, 1, lib.calls)
}

func TestSearchNoResults(t *testing.T) {
	lib := &fakeLibrary{res: &anvato.Result{Type: anvato.ListVideos}}
	tl, _ := newTestTools(t, configured, lib)

	out, err := tl.search(context.Background(), explorer.Request{Page: 2})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, "No videos matched your search query.", out.Message)
}

func TestSearchHidesTransportCause(t *testing.T) {
	lib := &fakeLibrary{err: &anvato.Error{
		Kind:    anvato.KindTransport,
		Message: anvato.ErrTransport.Message,
		Err:     errors.New("Post https://api.example.test/api?sgn=abc: timeout"),
	}}
	tl, _ := newTestTools(t, configured, lib)

	_, err := tl.search(context.Background(), explorer.Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, anvato.ErrTransport))
	assert.NotContains(t, err.Error(), "sgn=")
}

func TestLibraryFilters(t *testing.T) {
	lib := &fakeLibrary{res: &anvato.Result{
		Type:       anvato.ListCategories,
		Categories: []anvato.Category{{CategoryID: "9", CategoryName: "News"}},
	}}
	tl, _ := newTestTools(t, configured, lib)

	out, err := tl.library(context.Background(), LibraryInput{
		Type:          "list_categories",
		CategoryID:    "9",
		PublishedOnly: true,
		AddedAfter:    "2026-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, anvato.ListCategories, lib.gotT)
	assert.Equal(t, "9", lib.gotP.CategoryID)
	assert.True(t, lib.gotP.PublishedOnly)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), lib.gotP.AddedAfter)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "News", out.Items[0].Content)
}

func TestLibraryRejectsBadInput(t *testing.T) {
	lib := &fakeLibrary{}
	tl, _ := newTestTools(t, configured, lib)
	ctx := context.Background()

	_, err := tl.library(ctx, LibraryInput{Type: "list_everything"})
	assert.Error(t, err)
	_, err = tl.library(ctx, LibraryInput{AddedAfter: "31/01/2026"})
	assert.Error(t, err)
	_, err = tl.library(ctx, LibraryInput{Page: -1})
	assert.Error(t, err)
	assert.Zero(t, lib.calls)
}

func TestShortcodeTool(t *testing.T) {
	tl, _ := newTestTools(t, configured, &fakeLibrary{})

	out, err := tl.shortcode(ShortcodeInput{ID: "1234"})
	require.NoError(t, err)
	assert.Equal(t, `[anvplayer video="1234"]`, out.Shortcode)

	out, err = tl.shortcode(ShortcodeInput{ID: "1234", Type: "playlist"})
	require.NoError(t, err)
	assert.Equal(t, `[anvplayer playlist="1234"]`, out.Shortcode)

	_, err = tl.shortcode(ShortcodeInput{})
	assert.Error(t, err)
	_, err = tl.shortcode(ShortcodeInput{ID: "1", Type: "clip"})
	assert.Error(t, err)
}

func TestEmbedTool(t *testing.T) {
	tl, _ := newTestTools(t, configured, &fakeLibrary{})

	out, err := tl.embed(context.Background(), EmbedInput{
		Content: `<p>A</p>[anvplayer video="1" seek_to="5"] [[anvplayer video="2"]]`,
	})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "<div id='p0'></div><script data-anvp=")
	assert.Contains(t, out.HTML, `[anvplayer video="2"]`)
	assert.Equal(t, 1, out.Shortcodes)
	assert.Equal(t, int64(5000), out.PlayerData["p0"].SeekTo)
	assert.Contains(t, out.DataScript, "anvatoPlayerData")
}

func TestSettingsGetRedacts(t *testing.T) {
	tl, _ := newTestTools(t, configured, &fakeLibrary{})

	out, err := tl.settingsGet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Mask, out.Settings.PrivateKey)
	assert.True(t, out.Configured)
	assert.True(t, out.HTML5)
}

func TestSettingsUpdate(t *testing.T) {
	lib := &fakeLibrary{res: &anvato.Result{Type: anvato.ListVideos, Videos: []anvato.Video{{UploadID: "1"}}}}
	tl, store := newTestTools(t, configured, lib)
	ctx := context.Background()

	_, err := tl.search(ctx, explorer.Request{})
	require.NoError(t, err)

	f := false
	out, err := tl.settingsUpdate(ctx, SettingsUpdateInput{Settings: settings.Settings{
		Width:      "<b>640</b>",
		PrivateKey: settings.Mask,
		HTML5:      &f,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "640", store.s.Width)
	assert.Equal(t, "priv", store.s.PrivateKey)
	assert.False(t, out.HTML5)

	_, err = tl.search(ctx, explorer.Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, lib.calls, "update must drop cached searches")
}

func TestSettingsUpdateClear(t *testing.T) {
	cur := configured
	cur.AdTag = "https://ads.example.test/vast"
	cur.TrackerID = "tr-1"
	cur.AdobeProfile = "adobe"
	tl, store := newTestTools(t, cur, &fakeLibrary{})
	ctx := context.Background()

	out, err := tl.settingsUpdate(ctx, SettingsUpdateInput{
		Settings: settings.Settings{TrackerID: "tr-2"},
		Clear:    []string{"adtag", "adobe_profile", "tracker_id"},
	})
	require.NoError(t, err)
	assert.Empty(t, store.s.AdTag)
	assert.Empty(t, store.s.AdobeProfile)
	assert.Equal(t, "tr-2", store.s.TrackerID, "patch values apply after the clear")
	assert.Equal(t, "priv", store.s.PrivateKey)
	assert.True(t, out.Configured)

	_, err = tl.settingsUpdate(ctx, SettingsUpdateInput{Clear: []string{"nope"}})
	assert.Error(t, err)
	assert.Equal(t, 1, store.saves, "a bad clear list must not save")
}
