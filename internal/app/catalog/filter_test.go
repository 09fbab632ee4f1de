package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

func TestMissingAudioFilter(t *testing.T) {
	f := &MissingAudioFilter{}

	assert.True(t, f.Check(context.Background(), track.Track{ID: "a", AudioURL: "/a.mp3"}, nil).Accepted)

	result := f.Check(context.Background(), track.Track{ID: "a"}, nil)
	assert.False(t, result.Accepted)
	assert.Equal(t, "missing_audio", result.Code)
}

func TestDuplicateTrackFilter(t *testing.T) {
	admitted := []track.Track{
		{ID: "a1", Title: "Quag", Artist: "Anton"},
		{ID: "a2", Title: "Night Drive", Artist: "Kato"},
	}

	tests := []struct {
		name         string
		candidate    track.Track
		shouldReject bool
	}{
		{
			name:         "exact id",
			candidate:    track.Track{ID: "a1", Title: "Other"},
			shouldReject: true,
		},
		{
			name:         "tagged re-upload",
			candidate:    track.Track{ID: "b1", Title: "Quag (Tagged)", Artist: "Anton"},
			shouldReject: true,
		},
		{
			name:         "free download re-upload",
			candidate:    track.Track{ID: "b2", Title: "[FREE] Night Drive", Artist: "kato"},
			shouldReject: true,
		},
		{
			name:         "producer credit",
			candidate:    track.Track{ID: "b3", Title: "Quag (prod. Anton)", Artist: "Anton"},
			shouldReject: true,
		},
		{
			name:         "trailing producer credit",
			candidate:    track.Track{ID: "b4", Title: "Quag - prod. Anton", Artist: "Anton"},
			shouldReject: true,
		},
		{
			name:         "bpm suffix",
			candidate:    track.Track{ID: "b5", Title: "Quag (140 BPM)", Artist: "Anton"},
			shouldReject: true,
		},
		{
			name:         "same title other artist",
			candidate:    track.Track{ID: "b6", Title: "Quag", Artist: "Someone"},
			shouldReject: false,
		},
		{
			name:         "different title",
			candidate:    track.Track{ID: "b7", Title: "Quagmire", Artist: "Anton"},
			shouldReject: false,
		},
		{
			name:         "untitled tracks are not compared",
			candidate:    track.Track{ID: "b8", Artist: "Anton"},
			shouldReject: false,
		},
	}

	f := &DuplicateTrackFilter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.Check(context.Background(), tt.candidate, admitted)
			assert.Equal(t, !tt.shouldReject, result.Accepted)
			if tt.shouldReject {
				assert.Equal(t, "duplicate_track", result.Code)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Quag", "quag"},
		{"Quag (Untagged)", "quag"},
		{"Quag [Free DL]", "quag"},
		{"Quag  (prod.  Anton Boss)", "quag"},
		{"Dark   Vibes - prod. X", "dark vibes"},
		{"Slide (150 bpm)", "slide"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.in))
		})
	}
}

func TestGenreFilter(t *testing.T) {
	f, err := NewGenreFilter(map[string]any{"include": []any{"Trap", " drill "}})
	require.NoError(t, err)
	assert.Equal(t, "genre", f.Name())

	ctx := context.Background()
	assert.True(t, f.Check(ctx, track.Track{Genre: "trap"}, nil).Accepted)
	assert.True(t, f.Check(ctx, track.Track{Genre: "DRILL"}, nil).Accepted)
	assert.True(t, f.Check(ctx, track.Track{}, nil).Accepted, "unknown genre is allowed by default")

	result := f.Check(ctx, track.Track{Genre: "lofi"}, nil)
	assert.False(t, result.Accepted)
	assert.Equal(t, "genre", result.Code)
}

func TestGenreFilter_RejectUnknown(t *testing.T) {
	f, err := NewGenreFilter(map[string]any{"include": []string{"trap"}, "allow_unknown": false})
	require.NoError(t, err)

	assert.False(t, f.Check(context.Background(), track.Track{}, nil).Accepted)
}

func TestGenreFilter_InvalidSettings(t *testing.T) {
	_, err := NewGenreFilter(nil)
	assert.Error(t, err)

	_, err = NewGenreFilter(map[string]any{"include": []string{}})
	assert.Error(t, err)
}

func TestFilterChain_StopsAtFirstRejection(t *testing.T) {
	chain := NewFilterChain(&MissingAudioFilter{}, &DuplicateTrackFilter{})
	admitted := []track.Track{{ID: "a", AudioURL: "/a.mp3"}}

	result := chain.Execute(context.Background(), track.Track{ID: "a"}, admitted)
	assert.Equal(t, "missing_audio", result.Code)

	result = chain.Execute(context.Background(), track.Track{ID: "a", AudioURL: "/a.mp3"}, admitted)
	assert.Equal(t, "duplicate_track", result.Code)

	assert.True(t, chain.Execute(context.Background(), track.Track{ID: "b", AudioURL: "/b.mp3"}, admitted).Accepted)
	assert.Len(t, chain.Filters(), 2)
}
