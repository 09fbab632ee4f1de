package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topTagsResponse = `{
	"toptags": {
		"tag": [
			{"name": "trap", "count": 100, "url": "http://last.fm/tag/trap"},
			{"name": "hip-hop", "count": 80, "url": "http://last.fm/tag/hip-hop"}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestGetTopTags(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "track.getTopTags", r.URL.Query().Get("method"))
		assert.Equal(t, "test_artist", r.URL.Query().Get("artist"))
		assert.Equal(t, "test_track", r.URL.Query().Get("track"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, topTagsResponse)
	})

	ctx := context.Background()
	tags, err := client.GetTopTags(ctx, "test_track", "test_artist", 5)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	assert.Equal(t, "trap", tags[0].Name)
	assert.Equal(t, 100, tags[0].Count)

	// Served from cache, honoring the smaller limit
	tagsCached, err := client.GetTopTags(ctx, "test_track", "TEST_ARTIST", 1)
	require.NoError(t, err)
	assert.Equal(t, tags[:1], tagsCached)
	assert.Equal(t, 1, calls)
}

func TestGetTopTag(t *testing.T) {
	tests := []struct {
		name     string
		response string
		status   int
		want     string
		wantErr  bool
	}{
		{name: "most used tag", response: topTagsResponse, status: http.StatusOK, want: "trap"},
		{name: "no tags", response: `{"toptags": {"tag": []}}`, status: http.StatusOK, want: ""},
		{name: "zero count", response: `{"toptags": {"tag": [{"name": "beats", "count": 0}]}}`, status: http.StatusOK, want: ""},
		{name: "api error", response: `{"error": 6, "message": "Track not found"}`, status: http.StatusOK, wantErr: true},
		{name: "server error", response: `oops`, status: http.StatusBadGateway, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.response)
			})

			got, err := client.GetTopTag(context.Background(), "artist", "track")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetTopTags_RequiresNames(t *testing.T) {
	client, err := New(Config{APIKey: "k"})
	require.NoError(t, err)

	_, err = client.GetTopTags(context.Background(), "", "artist", 1)
	assert.Error(t, err)
}
