package catalog

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/infra/config"
)

// Dependencies holds the external services a catalog chain may use.
// A nil field disables the features that need it.
type Dependencies struct {
	Spotify   SpotifyClient
	Beats     BeatStore
	Presigner Presigner
	Tags      TagSource
}

// NewChainFromConfig creates a catalog chain from configuration.
func NewChainFromConfig(cfg *config.Config, deps Dependencies) (*Chain, error) {
	if len(cfg.Catalog.Providers) == 0 {
		return nil, errors.New("no catalog providers configured")
	}

	var providers []ProviderWithMetadata

	for i, pcfg := range cfg.Catalog.Providers {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating catalog provider: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)
		switch pcfg.Type {
		case config.ProviderTypeFile:
			provider, err = NewFileProvider(pcfg.Settings)

		case config.ProviderTypeSpotify:
			provider, err = NewSpotifyProvider(deps.Spotify, pcfg.Settings)

		case config.ProviderTypeMySQL:
			provider, err = NewMySQLProvider(deps.Beats, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})

		zlog.Info().Msgf("registered catalog provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, pcfg.DisplayName)
	}

	opts := []ChainOption{
		WithResolver(NewResolver(deps.Presigner, cfg.PresignTTL())),
	}
	if deps.Tags != nil {
		opts = append(opts, WithEnricher(NewGenreEnricher(deps.Tags)))
	}

	filters, err := filtersFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithFilters(filters...))

	return NewChain(providers, opts...), nil
}

// filtersFromConfig builds the optional admission filters that are enabled.
func filtersFromConfig(cfg *config.Config) ([]Filter, error) {
	var filters []Filter

	if cfg.IsFilterEnabled("duplicate_track") {
		filters = append(filters, &DuplicateTrackFilter{})
	}

	if cfg.IsFilterEnabled("genre") {
		f, err := NewGenreFilter(cfg.GetFilterSettings("genre"))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create genre filter")
		}
		filters = append(filters, f)
	}

	for _, f := range filters {
		zlog.Info().Msgf("enabled catalog filter: name=%s", f.Name())
	}
	return filters, nil
}
