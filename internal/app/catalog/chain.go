package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// ErrEmptyCatalog is returned when no provider yields a playable track.
var ErrEmptyCatalog = errors.New("catalog has no playable tracks")

// Chain loads tracks from every provider in order, normalizes and resolves
// them, and admits them through the filter chain.
type Chain struct {
	providers []ProviderWithMetadata
	resolver  *Resolver
	enricher  *GenreEnricher
	filters   *FilterChain
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithResolver sets the audio URL resolver.
func WithResolver(r *Resolver) ChainOption {
	return func(c *Chain) {
		c.resolver = r
	}
}

// WithEnricher sets the genre enricher.
func WithEnricher(e *GenreEnricher) ChainOption {
	return func(c *Chain) {
		c.enricher = e
	}
}

// WithFilters appends admission filters after the missing audio check.
func WithFilters(filters ...Filter) ChainOption {
	return func(c *Chain) {
		for _, f := range filters {
			c.filters.Add(f)
		}
	}
}

// NewChain creates a new catalog chain.
func NewChain(providers []ProviderWithMetadata, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		resolver:  NewResolver(nil, 0),
		filters:   NewFilterChain(&MissingAudioFilter{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load retrieves the catalog from all providers.
// A failing provider is logged and skipped.
func (c *Chain) Load(ctx context.Context) ([]track.Track, error) {
	admitted := make([]track.Track, 0)

	for i, pm := range c.providers {
		zlog.Debug().Msgf("loading catalog provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name())

		records, err := pm.Provider.Fetch(ctx)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		added := 0
		rejected := make(map[string]int)
		for _, rec := range records {
			t, err := Normalize(rec)
			if err != nil {
				rejected["invalid_record"]++
				zlog.Debug().Msgf("skipping record: provider=%s error=%v", pm.DisplayName, err)
				continue
			}

			t.AudioURL, err = c.resolver.Resolve(ctx, t.AudioURL)
			if err != nil {
				zlog.Warn().Msgf("audio not resolvable: provider=%s track=%s error=%v", pm.DisplayName, t.ID, err)
				t.AudioURL = ""
			}

			if c.enricher != nil {
				t = c.enricher.Enrich(ctx, t)
			}

			if result := c.filters.Execute(ctx, t, admitted); !result.Accepted {
				rejected[result.Code]++
				continue
			}

			admitted = append(admitted, t)
			added++
		}

		zlog.Info().Msgf("provider returned tracks: provider=%s count=%d rejected=%v total_so_far=%d",
			pm.DisplayName, added, rejected, len(admitted))
	}

	if len(admitted) == 0 {
		return nil, ErrEmptyCatalog
	}

	return admitted, nil
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return "catalog_chain"
}
