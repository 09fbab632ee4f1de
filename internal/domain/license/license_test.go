package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

func TestOffersFor(t *testing.T) {
	tr := track.Track{ID: "7", Title: "Quag"}

	offers := OffersFor(tr, DefaultTiers())

	require.Len(t, offers, 5)
	assert.Equal(t, "7-Basic License", offers[0].ID)
	assert.Equal(t, "Quag", offers[0].Title)
	assert.Equal(t, 24.99, offers[0].Tier.Price)
	assert.Equal(t, "7-Exclusive License", offers[4].ID)
	assert.True(t, offers[4].Tier.Negotiated)
	assert.Empty(t, offers[4].Tier.Deliverable)
}

func TestStartingPrice(t *testing.T) {
	custom := 19.5

	tests := []struct {
		name     string
		track    track.Track
		tiers    []Tier
		expected float64
	}{
		{
			name:     "lowest fixed tier",
			track:    track.Track{ID: "1"},
			tiers:    DefaultTiers(),
			expected: 24.99,
		},
		{
			name:     "catalog base price wins",
			track:    track.Track{ID: "1", BasePrice: &custom},
			tiers:    DefaultTiers(),
			expected: 19.5,
		},
		{
			name:     "only negotiated tiers",
			track:    track.Track{ID: "1"},
			tiers:    []Tier{{Name: "Exclusive License", Negotiated: true}},
			expected: track.DefaultBasePrice,
		},
		{
			name:     "no tiers",
			track:    track.Track{ID: "1"},
			tiers:    nil,
			expected: track.DefaultBasePrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StartingPrice(tt.track, tt.tiers))
		})
	}
}
