package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// SpotifyClient defines the Spotify operations needed by the catalog.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string, limit int) ([]track.Track, error)
}

// SpotifyProviderConfig holds the spotify provider settings.
type SpotifyProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
	Limit       int    `yaml:"limit" mapstructure:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// SpotifyProvider offers the 30 second previews of a Spotify playlist.
// Tracks without a preview are dropped by the missing audio filter.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(spotify SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is not configured")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.WeakDecode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &SpotifyProvider{spotify: spotify, config: &config}, nil
}

// Fetch retrieves the playlist tracks.
func (p *SpotifyProvider) Fetch(ctx context.Context) ([]Record, error) {
	tracks, err := p.spotify.GetPlaylistTracks(ctx, p.config.PlaylistURL, p.config.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist tracks")
	}

	records := make([]Record, len(tracks))
	for i, t := range tracks {
		records[i] = RecordFromTrack(t)
	}
	return records, nil
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
