package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
	"github.com/beatdeck/beatdeck/internal/infra/config"
)

type fakeSpotify struct {
	url    string
	limit  int
	tracks []track.Track
}

func (f *fakeSpotify) GetPlaylistTracks(ctx context.Context, playlistURL string, limit int) ([]track.Track, error) {
	f.url, f.limit = playlistURL, limit
	return f.tracks, nil
}

type fakeBeats struct {
	table string
	limit int
	rows  []map[string]any
}

func (f *fakeBeats) ListBeats(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	f.table, f.limit = table, limit
	return f.rows, nil
}

func TestNewChainFromConfig(t *testing.T) {
	path := writeCatalog(t, "beats.yaml", "- {id: f1, audioUrl: /f1.mp3}\n- {id: dup, audioUrl: /dup.mp3}\n")
	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			Providers: []config.ProviderConfig{
				{Type: config.ProviderTypeFile, DisplayName: "Local", Settings: map[string]any{"path": path}},
				{Type: config.ProviderTypeSpotify, DisplayName: "Previews", Settings: map[string]any{"playlist_url": "spotify:playlist:abc", "limit": "20"}},
				{Type: config.ProviderTypeMySQL, DisplayName: "Store"},
			},
			Filters: map[string]config.FilterConfig{
				"duplicate_track": {Enabled: true},
			},
		},
	}
	sp := &fakeSpotify{tracks: []track.Track{
		{ID: "s1", Title: "Preview", AudioURL: "https://p.scdn.co/mp3-preview/s1"},
		{ID: "s2", Title: "No preview"},
	}}
	db := &fakeBeats{rows: []map[string]any{
		{"beat_id": "dup", "file_path": "/dup2.mp3"},
		{"beat_id": 9, "file_path": "/9.mp3"},
	}}

	chain, err := NewChainFromConfig(cfg, Dependencies{Spotify: sp, Beats: db})
	require.NoError(t, err)

	tracks, err := chain.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "dup", "s1", "9"}, track.IDs(tracks))
	assert.Equal(t, "spotify:playlist:abc", sp.url)
	assert.Equal(t, 20, sp.limit)
	assert.Equal(t, "BeatFiles", db.table)
	assert.Equal(t, 500, db.limit)
}

func TestNewChainFromConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		deps Dependencies
	}{
		{
			name: "no providers",
			cfg:  &config.Config{},
		},
		{
			name: "unsupported type",
			cfg: &config.Config{Catalog: config.CatalogConfig{Providers: []config.ProviderConfig{
				{Type: "soundcloud", DisplayName: "SC"},
			}}},
		},
		{
			name: "spotify without client",
			cfg: &config.Config{Catalog: config.CatalogConfig{Providers: []config.ProviderConfig{
				{Type: config.ProviderTypeSpotify, DisplayName: "P", Settings: map[string]any{"playlist_url": "x"}},
			}}},
		},
		{
			name: "mysql without store",
			cfg: &config.Config{Catalog: config.CatalogConfig{Providers: []config.ProviderConfig{
				{Type: config.ProviderTypeMySQL, DisplayName: "DB"},
			}}},
		},
		{
			name: "file without path",
			cfg: &config.Config{Catalog: config.CatalogConfig{Providers: []config.ProviderConfig{
				{Type: config.ProviderTypeFile, DisplayName: "Local"},
			}}},
		},
		{
			name: "invalid mysql table",
			cfg: &config.Config{Catalog: config.CatalogConfig{Providers: []config.ProviderConfig{
				{Type: config.ProviderTypeMySQL, DisplayName: "DB", Settings: map[string]any{"table": "beats; DROP"}},
			}}},
			deps: Dependencies{Beats: &fakeBeats{}},
		},
		{
			name: "genre filter without include",
			cfg: &config.Config{Catalog: config.CatalogConfig{
				Providers: []config.ProviderConfig{
					{Type: config.ProviderTypeMySQL, DisplayName: "DB"},
				},
				Filters: map[string]config.FilterConfig{"genre": {Enabled: true}},
			}},
			deps: Dependencies{Beats: &fakeBeats{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChainFromConfig(tt.cfg, tt.deps)
			assert.Error(t, err)
		})
	}
}
