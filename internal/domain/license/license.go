// Package license provides the license tiers a beat is sold under.
package license

import (
	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Tier represents a license tier.
type Tier struct {
	Name        string  // Tier name, e.g. "Basic License"
	Price       float64 // Price in USD, 0 when negotiated
	Negotiated  bool    // Price is agreed by contact ("make an offer")
	Terms       string  // Short terms summary
	Deliverable string  // Which file the buyer receives: "audio", "wav", "stems" or ""
}

// DefaultTiers returns the tiers offered for every beat, cheapest first.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Basic License", Price: 24.99, Terms: "MP3 | Personal Use", Deliverable: "audio"},
		{Name: "Premium License", Price: 49.99, Terms: "MP3 + WAV", Deliverable: "wav"},
		{Name: "Premium Plus License", Price: 99.99, Terms: "MP3 + WAV + STEMS", Deliverable: "stems"},
		{Name: "Unlimited License", Price: 159.99, Terms: "Full Package", Deliverable: "stems"},
		{Name: "Exclusive License", Negotiated: true, Terms: "Negotiate"},
	}
}

// Offer is a purchasable tier for a specific track.
type Offer struct {
	ID      string // "<trackID>-<tier name>"
	TrackID string
	Title   string
	Tier    Tier
}

// OfferID returns the cart identity of a track/tier pair.
func OfferID(trackID string, tier Tier) string {
	return trackID + "-" + tier.Name
}

// OffersFor returns one offer per tier for the given track.
func OffersFor(t track.Track, tiers []Tier) []Offer {
	offers := make([]Offer, len(tiers))
	for i, tier := range tiers {
		offers[i] = Offer{
			ID:      OfferID(t.ID, tier),
			TrackID: t.ID,
			Title:   t.DisplayTitle(),
			Tier:    tier,
		}
	}
	return offers
}

// StartingPrice returns the lowest fixed price among the tiers.
// The track's own base price wins when the catalog supplied one.
func StartingPrice(t track.Track, tiers []Tier) float64 {
	if t.BasePrice != nil {
		return *t.BasePrice
	}
	lowest := 0.0
	for _, tier := range tiers {
		if tier.Negotiated {
			continue
		}
		if lowest == 0 || tier.Price < lowest {
			lowest = tier.Price
		}
	}
	if lowest == 0 {
		return track.DefaultBasePrice
	}
	return lowest
}
