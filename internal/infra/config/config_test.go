package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
catalog:
  providers:
    - type: file
      display_name: Local beats
      settings:
        path: beats.yaml
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "LASTFM_API_KEY",
		"STORAGE_ACCESS_KEY", "STORAGE_SECRET_KEY", "CONTROL_TOKEN", "MYSQL_DSN",
	} {
		t.Setenv(k, "")
	}
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Playback.SkipCooldownMs)
	assert.Equal(t, 500, cfg.Playback.ShuffleCooldownMs)
	assert.Equal(t, 5000, cfg.Playback.RestartThresholdMs)
	assert.Equal(t, 1.0, cfg.Playback.InitialVolume)
	assert.Equal(t, 16, cfg.Playback.FrameIntervalMs)
	assert.Equal(t, "speaker", cfg.Audio.Output)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 100, cfg.Audio.TimeUpdateIntervalMs)
	assert.Equal(t, "US", cfg.Spotify.Market)
	assert.Equal(t, "auto", cfg.Storage.Region)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	assert.Equal(t, time.Hour, cfg.PresignTTL())
	assert.False(t, cfg.StorageEnabled())
	assert.True(t, cfg.HasProvider(ProviderTypeFile))
	assert.False(t, cfg.HasProvider(ProviderTypeSpotify))
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid minimal config",
			yaml:    minimalYAML,
			wantErr: false,
		},
		{
			name:    "no providers",
			yaml:    "server:\n  addr: \":9000\"\n",
			wantErr: true,
			errMsg:  "Providers",
		},
		{
			name: "unknown provider type",
			yaml: `
catalog:
  providers:
    - type: soundcloud
      display_name: SC
`,
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "provider without display name",
			yaml: `
catalog:
  providers:
    - type: file
      settings: {path: beats.yaml}
`,
			wantErr: true,
			errMsg:  "DisplayName",
		},
		{
			name: "spotify provider without credentials",
			yaml: `
catalog:
  providers:
    - type: spotify
      display_name: Previews
      settings: {playlist_url: "spotify:playlist:abc"}
`,
			wantErr: true,
			errMsg:  "spotify.client_id",
		},
		{
			name: "mysql provider without dsn",
			yaml: `
catalog:
  providers:
    - type: mysql
      display_name: Store DB
`,
			wantErr: true,
			errMsg:  "mysql.dsn",
		},
		{
			name: "volume out of range",
			yaml: minimalYAML + `
playback:
  initial_volume: 1.5
`,
			wantErr: true,
			errMsg:  "InitialVolume",
		},
		{
			name: "invalid market length",
			yaml: minimalYAML + `
spotify:
  market: JAPAN
`,
			wantErr: true,
			errMsg:  "Market",
		},
		{
			name: "unknown audio output",
			yaml: minimalYAML + `
audio:
  output: alsa
`,
			wantErr: true,
			errMsg:  "Output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			_, err := Parse([]byte(tt.yaml))

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("LASTFM_API_KEY", "env-lastfm")
	t.Setenv("STORAGE_ACCESS_KEY", "env-access")
	t.Setenv("STORAGE_SECRET_KEY", "env-secret-key")
	t.Setenv("CONTROL_TOKEN", "env-token")
	t.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/beats")

	cfg, err := Parse([]byte(`
control:
  token: file-token
storage:
  endpoint: account.r2.cloudflarestorage.com
catalog:
  providers:
    - type: spotify
      display_name: Previews
      settings: {playlist_url: "spotify:playlist:abc"}
    - type: mysql
      display_name: Store DB
`))
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "env-lastfm", cfg.LastFM.APIKey)
	assert.Equal(t, "env-token", cfg.Control.Token)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/beats", cfg.MySQL.DSN)
	assert.True(t, cfg.StorageEnabled())
}

func TestConfig_Filters(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]byte(minimalYAML + `
  filters:
    duplicate_track:
      enabled: true
    genre:
      enabled: false
      settings:
        include: [trap, drill]
`))
	require.NoError(t, err)

	assert.True(t, cfg.IsFilterEnabled("duplicate_track"))
	assert.False(t, cfg.IsFilterEnabled("genre"))
	assert.False(t, cfg.IsFilterEnabled("unknown"))
	assert.Equal(t, []any{"trap", "drill"}, cfg.GetFilterSettings("genre")["include"])
	assert.Nil(t, cfg.GetFilterSettings("unknown"))
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Catalog.Providers, 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
