package anvato

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	MCPURL:     "https://api.example.test/v2",
	PublicKey:  "pub-key",
	PrivateKey: "secret",
}

func TestCredentialsComplete(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{"all set", testCreds, true},
		{"no url", Credentials{PublicKey: "a", PrivateKey: "b"}, false},
		{"no public", Credentials{MCPURL: "https://x", PrivateKey: "b"}, false},
		{"blank private", Credentials{MCPURL: "https://x", PublicKey: "a", PrivateKey: "  "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creds.Complete())
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	body := RequestBody(ListVideos)
	s1 := Sign(body, 1700000000, "secret")
	s2 := Sign(body, 1700000000, "secret")
	assert.Equal(t, s1, s2)

	assert.NotEqual(t, s1, Sign(body+" ", 1700000000, "secret"), "body change")
	assert.NotEqual(t, s1, Sign(body, 1700000001, "secret"), "timestamp change")
	assert.NotEqual(t, s1, Sign(body, 1700000000, "secret2"), "key change")
}

func TestSignKnownValue(t *testing.T) {
	got := Sign(RequestBody(ListVideos), 1700000000, "secret")
	assert.Equal(t, "Id/MgMiT0bGSkVTP4TzsP8Fzva+zE9b/82XqyypyY7k=", got)
}

func TestRequestBody(t *testing.T) {
	body := RequestBody(ListPlaylists)
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, body, "<type>list_playlists</type>")
	assert.Contains(t, body, "<params></params>")
}

func TestBuildURLMissingSettings(t *testing.T) {
	_, err := BuildURL(Credentials{MCPURL: "https://x"}, ListVideos, SearchParams{}, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSettings))
	assert.Equal(t, KindMissingSettings, KindOf(err))
}

func TestBuildURLInvalidMCPURL(t *testing.T) {
	creds := testCreds
	creds.MCPURL = "not a url"
	_, err := BuildURL(creds, ListVideos, SearchParams{}, 1)
	assert.True(t, errors.Is(err, ErrMissingSettings))
}

func TestBuildURLRejectsQueryAndFragment(t *testing.T) {
	for _, raw := range []string{
		"https://api.example.test/v2?x=1",
		"https://api.example.test/v2?",
		"https://api.example.test/v2#top",
	} {
		creds := testCreds
		creds.MCPURL = raw
		got, err := BuildURL(creds, ListVideos, SearchParams{}, 1)
		assert.Equal(t, KindMissingSettings, KindOf(err), raw)
		assert.Empty(t, got, raw)
	}
}

func TestBuildURL(t *testing.T) {
	const ts = 1700000000
	raw, err := BuildURL(testCreds, ListVideos, SearchParams{Keyword: "storm", PageNo: 2, PageSize: 10}, ts)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "https://api.example.test/v2/api?ts=1700000000&sgn="), raw)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1700000000", q.Get("ts"))
	assert.Equal(t, Sign(RequestBody(ListVideos), ts, "secret"), q.Get("sgn"))
	assert.Equal(t, "pub-key", q.Get("id"))
	assert.Equal(t, "name", q.Get("filter_by[0]"))
	assert.Equal(t, "lk", q.Get("filter_cond[0]"))
	assert.Equal(t, "storm", q.Get("filter_value[0]"))
	assert.Equal(t, "2", q.Get("page_no"))
	assert.Equal(t, "10", q.Get("page_sz"))
}

func TestBuildURLNoParams(t *testing.T) {
	raw, err := BuildURL(testCreds, ListChannels, SearchParams{}, 5)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(raw, "&"))
	assert.NotContains(t, raw, "filter_by")
}

func TestBuildURLTrailingSlash(t *testing.T) {
	creds := testCreds
	creds.MCPURL = "https://api.example.test/v2/"
	raw, err := BuildURL(creds, ListVideos, SearchParams{}, 5)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://api.example.test/v2/api?"), raw)
}

func TestBuildQueryFilters(t *testing.T) {
	added := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	q, err := BuildQuery(SearchParams{
		Keyword:       "  <b>storm</b>  ",
		AddedAfter:    added,
		CategoryID:    "42",
		ProgramID:     "7",
		PublishedOnly: true,
	})
	require.NoError(t, err)

	want := map[string]string{
		"filter_by[0]": "name", "filter_cond[0]": "lk", "filter_value[0]": "storm",
		"filter_by[1]": "ts_added", "filter_cond[1]": "gt", "filter_value[1]": "March 05, 2024",
		"filter_by[2]": "category_id", "filter_cond[2]": "eq", "filter_value[2]": "42",
		"filter_by[3]": "program_id", "filter_cond[3]": "eq", "filter_value[3]": "7",
		"filter_by[4]": "published", "filter_cond[4]": "eq", "filter_value[4]": "1",
	}
	for k, v := range want {
		assert.Equal(t, v, q.Get(k), k)
	}
	assert.Len(t, q, len(want))
}

func TestBuildQueryOmitsAbsent(t *testing.T) {
	q, err := BuildQuery(SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestBuildQueryNegativePage(t *testing.T) {
	_, err := BuildQuery(SearchParams{PageNo: -1})
	assert.Error(t, err)
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{Kind: FilterVideo, Value: "1"}.Validate())
	assert.Error(t, Filter{Kind: FilterKind(99), Value: "1"}.Validate())
	assert.Error(t, Filter{Kind: FilterVideo, Value: " "}.Validate())
}
