package catalog

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "missing_audio", "duplicate_track"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter decides whether a track is admitted to the queue.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Check inspects t against the tracks admitted so far.
	Check(ctx context.Context, t track.Track, admitted []track.Track) Result
}

// FilterChain executes filters in sequence.
type FilterChain struct {
	filters []Filter
}

// NewFilterChain creates a new filter chain.
func NewFilterChain(filters ...Filter) *FilterChain {
	return &FilterChain{filters: filters}
}

// Add adds a filter to the chain.
func (c *FilterChain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track.
func (c *FilterChain) Execute(ctx context.Context, t track.Track, admitted []track.Track) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, t, admitted)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *FilterChain) Filters() []Filter {
	return c.filters
}

// MissingAudioFilter rejects tracks without a resolved audio URL.
type MissingAudioFilter struct{}

// Name returns the filter name.
func (f *MissingAudioFilter) Name() string {
	return "missing_audio"
}

// Check rejects a track that cannot be played.
func (f *MissingAudioFilter) Check(ctx context.Context, t track.Track, admitted []track.Track) Result {
	if !t.Playable() {
		return Reject("missing_audio")
	}
	return Accept()
}

// DuplicateTrackFilter rejects tracks already admitted.
// Detects:
// - Exact track ID matches
// - Re-uploads (normalized title + same artist), e.g. "Quag (Tagged)" and "Quag"
type DuplicateTrackFilter struct{}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track"
}

// Check checks if the track is a duplicate.
func (f *DuplicateTrackFilter) Check(ctx context.Context, t track.Track, admitted []track.Track) Result {
	for _, a := range admitted {
		if a.ID == t.ID {
			return Reject("duplicate_track")
		}
		if isReupload(a, t) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

var (
	versionPatterns = []*regexp.Regexp{
		// "(Tagged)", "[Untagged]"
		regexp.MustCompile(`\s*[\(\[]\s*(un)?tagged\s*[\)\]]`),
		// "[FREE]", "(Free DL)"
		regexp.MustCompile(`\s*[\(\[]\s*free\s*(dl|download)?\s*[\)\]]`),
		// "(prod. Anton Boss)"
		regexp.MustCompile(`\s*[\(\[]\s*prod\.?\s+[^\)\]]*[\)\]]`),
		// "- prod. Anton Boss"
		regexp.MustCompile(`\s*-\s*prod\.?\s+.*$`),
		// "(140 BPM)"
		regexp.MustCompile(`\s*[\(\[]\s*\d+\s*bpm\s*[\)\]]`),
	}
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes upload decorations from a beat title.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)
	for _, p := range versionPatterns {
		normalized = p.ReplaceAllString(normalized, "")
	}
	normalized = strings.TrimSpace(normalized)
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// isReupload reports whether two tracks are the same beat uploaded twice.
// Tracks without a title or artist are never considered re-uploads.
func isReupload(a, b track.Track) bool {
	if a.Title == "" || b.Title == "" || a.Artist == "" || b.Artist == "" {
		return false
	}
	if !strings.EqualFold(a.Artist, b.Artist) {
		return false
	}
	return normalizeTitle(a.Title) == normalizeTitle(b.Title)
}

// GenreFilterConfig holds the genre filter settings.
type GenreFilterConfig struct {
	Include []string `mapstructure:"include" validate:"required,min=1"`
	// AllowUnknown admits tracks without a genre.
	AllowUnknown bool `mapstructure:"allow_unknown" default:"true"`
}

// GenreFilter admits only tracks of the configured genres.
type GenreFilter struct {
	include      map[string]bool
	allowUnknown bool
}

// NewGenreFilter creates a genre filter from its settings.
func NewGenreFilter(settings map[string]any) (*GenreFilter, error) {
	var config GenreFilterConfig
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	include := make(map[string]bool, len(config.Include))
	for _, g := range config.Include {
		include[strings.ToLower(strings.TrimSpace(g))] = true
	}
	return &GenreFilter{include: include, allowUnknown: config.AllowUnknown}, nil
}

// Name returns the filter name.
func (f *GenreFilter) Name() string {
	return "genre"
}

// Check rejects tracks outside the configured genres.
func (f *GenreFilter) Check(ctx context.Context, t track.Track, admitted []track.Track) Result {
	genre := strings.ToLower(strings.TrimSpace(t.Genre))
	if genre == "" {
		if f.allowUnknown {
			return Accept()
		}
		return Reject("genre")
	}
	if !f.include[genre] {
		return Reject("genre")
	}
	return Accept()
}
