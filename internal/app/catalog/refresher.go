package catalog

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Loader loads the full catalog.
type Loader interface {
	Load(ctx context.Context) ([]track.Track, error)
}

// ApplyFunc installs a freshly loaded catalog as the queue source.
type ApplyFunc func(ctx context.Context, tracks []track.Track) error

// Refresher reloads the catalog on an interval and applies it.
type Refresher struct {
	loader   Loader
	apply    ApplyFunc
	interval time.Duration
}

// NewRefresher creates a new Refresher. An interval of 0 loads once.
func NewRefresher(loader Loader, apply ApplyFunc, interval time.Duration) *Refresher {
	return &Refresher{loader: loader, apply: apply, interval: interval}
}

// Refresh loads and applies the catalog once.
func (r *Refresher) Refresh(ctx context.Context) error {
	tracks, err := r.loader.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load catalog")
	}
	if err := r.apply(ctx, tracks); err != nil {
		return errors.Wrap(err, "failed to apply catalog")
	}
	zlog.Info().Msgf("catalog: refreshed: tracks=%d", len(tracks))
	return nil
}

// Run refreshes until ctx is done. A failed refresh keeps the previous queue.
func (r *Refresher) Run(ctx context.Context) {
	if err := r.Refresh(ctx); err != nil {
		zlog.Error().Err(err).Msg("catalog: initial load failed")
	}
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				zlog.Warn().Msgf("catalog: refresh failed, keeping previous queue: error=%v", err)
			}
		}
	}
}
