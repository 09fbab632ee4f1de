package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

type staticProvider struct {
	name    string
	records []Record
	err     error
}

func (p *staticProvider) Fetch(ctx context.Context) ([]Record, error) {
	return p.records, p.err
}

func (p *staticProvider) Name() string {
	return p.name
}

type fakeTags struct {
	tags  map[string]string
	calls int
}

func (f *fakeTags) GetTopTag(ctx context.Context, artist, title string) (string, error) {
	f.calls++
	tag, ok := f.tags[artist+"/"+title]
	if !ok {
		return "", errors.New("not found")
	}
	return tag, nil
}

func withProviders(ps ...Provider) []ProviderWithMetadata {
	out := make([]ProviderWithMetadata, len(ps))
	for i, p := range ps {
		out[i] = ProviderWithMetadata{Provider: p, DisplayName: p.Name()}
	}
	return out
}

func TestChain_Load(t *testing.T) {
	primary := &staticProvider{name: "primary", records: []Record{
		{"id": "a", "title": "A", "audioUrl": "/a.mp3"},
		{"id": "b", "title": "B"},
		{"title": "no id", "audioUrl": "/x.mp3"},
		{"id": "c", "title": "C", "audioUrl": "r2://beats/c.mp3"},
	}}
	secondary := &staticProvider{name: "secondary", records: []Record{
		{"id": "a", "title": "A again", "audioUrl": "/a2.mp3"},
		{"id": "d", "title": "D", "mp3": "/d.mp3"},
	}}

	chain := NewChain(withProviders(primary, secondary),
		WithResolver(NewResolver(&fakePresigner{}, time.Hour)),
		WithFilters(&DuplicateTrackFilter{}),
	)

	tracks, err := chain.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, track.IDs(tracks))
	assert.Equal(t, "https://signed.example/beats/c.mp3?sig=1", tracks[1].AudioURL)
}

func TestChain_SkipsFailingProvider(t *testing.T) {
	broken := &staticProvider{name: "broken", err: errors.New("connection refused")}
	good := &staticProvider{name: "good", records: []Record{{"id": "a", "audioUrl": "/a.mp3"}}}

	tracks, err := NewChain(withProviders(broken, good)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, track.IDs(tracks))
}

func TestChain_UnresolvableAudioIsRejected(t *testing.T) {
	p := &staticProvider{name: "p", records: []Record{
		{"id": "a", "audioUrl": "r2://beats/a.mp3"},
		{"id": "b", "audioUrl": "/b.mp3"},
	}}

	// No presigner configured, so the r2 reference cannot be played.
	tracks, err := NewChain(withProviders(p)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, track.IDs(tracks))
}

func TestChain_EmptyCatalog(t *testing.T) {
	p := &staticProvider{name: "p", records: []Record{{"id": "a"}}}

	_, err := NewChain(withProviders(p)).Load(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCatalog))

	_, err = NewChain(nil).Load(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
}

func TestChain_EnrichesBeforeFiltering(t *testing.T) {
	p := &staticProvider{name: "p", records: []Record{
		{"id": "a", "title": "Cold", "artist": "Mira", "audioUrl": "/a.mp3"},
		{"id": "b", "title": "Sun", "artist": "Mira", "audioUrl": "/b.mp3"},
		{"id": "c", "title": "Rain", "artist": "Mira", "audioUrl": "/c.mp3", "genre": "drill"},
	}}
	tags := &fakeTags{tags: map[string]string{"Mira/Cold": "Trap", "Mira/Sun": "Lofi"}}
	genre, err := NewGenreFilter(map[string]any{"include": []string{"trap", "drill"}})
	require.NoError(t, err)

	tracks, err := NewChain(withProviders(p),
		WithEnricher(NewGenreEnricher(tags)),
		WithFilters(genre),
	).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, track.IDs(tracks))
	assert.Equal(t, "trap", tracks[0].Genre)
	assert.Equal(t, 2, tags.calls, "tracks with a genre are not looked up")
}

func TestChain_Name(t *testing.T) {
	assert.Equal(t, "catalog_chain", NewChain(nil).Name())
}
