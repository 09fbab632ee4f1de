package catalog

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// TagSource looks up the most popular descriptive tag of a track.
type TagSource interface {
	GetTopTag(ctx context.Context, artist, title string) (string, error)
}

// GenreEnricher fills an empty genre from a tag source.
type GenreEnricher struct {
	tags TagSource
}

// NewGenreEnricher creates a new enricher.
func NewGenreEnricher(tags TagSource) *GenreEnricher {
	return &GenreEnricher{tags: tags}
}

// Enrich returns t with its genre filled in when possible. Lookup failures
// leave the track unchanged.
func (e *GenreEnricher) Enrich(ctx context.Context, t track.Track) track.Track {
	if t.Genre != "" || t.Artist == "" || t.Title == "" {
		return t
	}

	tag, err := e.tags.GetTopTag(ctx, t.Artist, t.Title)
	if err != nil {
		zlog.Debug().Msgf("genre lookup failed: track=%s error=%v", t.ID, err)
		return t
	}
	if tag != "" {
		t.Genre = strings.ToLower(tag)
	}
	return t
}
