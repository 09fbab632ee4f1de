package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_DisplayFallbacks(t *testing.T) {
	price := 49.99

	tests := []struct {
		name       string
		track      Track
		wantTitle  string
		wantArtist string
		wantCover  string
		wantPrice  float64
	}{
		{
			name:       "empty track uses store defaults",
			track:      Track{ID: "1"},
			wantTitle:  "Untitled",
			wantArtist: "Unknown",
			wantCover:  "/images/beats/default-cover.png",
			wantPrice:  24.99,
		},
		{
			name: "populated track keeps its values",
			track: Track{
				ID:        "2",
				Title:     "Quag",
				Artist:    "Anton Boss",
				CoverURL:  "/images/beats/beat1.png",
				BasePrice: &price,
			},
			wantTitle:  "Quag",
			wantArtist: "Anton Boss",
			wantCover:  "/images/beats/beat1.png",
			wantPrice:  49.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTitle, tt.track.DisplayTitle())
			assert.Equal(t, tt.wantArtist, tt.track.DisplayArtist())
			assert.Equal(t, tt.wantCover, tt.track.DisplayCover())
			assert.Equal(t, tt.wantPrice, tt.track.DisplayPrice())
		})
	}
}

func TestTrack_Playable(t *testing.T) {
	assert.False(t, (&Track{ID: "1"}).Playable())
	assert.True(t, (&Track{ID: "1", AudioURL: "/audio/Quag.mp3"}).Playable())
}

func TestTrack_String(t *testing.T) {
	assert.Equal(t, "Anton Boss - Bonix (130 bpm)", Track{Title: "Bonix", Artist: "Anton Boss", BPM: 130}.String())
	assert.Equal(t, "Unknown - Quag", Track{Title: "Quag"}.String())
}

func TestIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []Track
		expected []string
	}{
		{name: "empty", tracks: []Track{}, expected: []string{}},
		{name: "ordered", tracks: []Track{{ID: "a"}, {ID: "b"}, {ID: "c"}}, expected: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IDs(tt.tracks))
		})
	}
}
