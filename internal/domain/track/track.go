// Package track provides the Track domain entity.
package track

import "strconv"

// Display fallbacks used when the catalog omits a field.
const (
	DefaultTitle     = "Untitled"
	DefaultArtist    = "Unknown"
	DefaultCoverURL  = "/images/beats/default-cover.png"
	DefaultBasePrice = 24.99
)

// Track represents a beat offered by the store.
// Values are produced once by the catalog and never mutated afterwards.
type Track struct {
	ID        string   // Catalog identity
	Title     string   // Display title
	Artist    string   // Producer name
	CoverURL  string   // Cover art URL
	AudioURL  string   // Resolved, playable audio URL
	Genre     string   // Optional
	Mood      string   // Optional
	Key       string   // Optional musical key, e.g. "C Minor"
	BPM       int      // Optional, 0 if unknown
	BasePrice *float64 // Optional display price, nil if unknown
}

// Playable reports whether the track carries an audio source.
func (t Track) Playable() bool {
	return t.AudioURL != ""
}

// DisplayTitle returns the title or the store's fallback.
func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return DefaultTitle
	}
	return t.Title
}

// DisplayArtist returns the artist or the store's fallback.
func (t Track) DisplayArtist() string {
	if t.Artist == "" {
		return DefaultArtist
	}
	return t.Artist
}

// DisplayCover returns the cover URL or the default cover.
func (t Track) DisplayCover() string {
	if t.CoverURL == "" {
		return DefaultCoverURL
	}
	return t.CoverURL
}

// DisplayPrice returns the base price or the store's entry price.
func (t Track) DisplayPrice() float64 {
	if t.BasePrice == nil {
		return DefaultBasePrice
	}
	return *t.BasePrice
}

// String returns "Artist - Title" for logs.
func (t Track) String() string {
	s := t.DisplayArtist() + " - " + t.DisplayTitle()
	if t.BPM > 0 {
		s += " (" + strconv.Itoa(t.BPM) + " bpm)"
	}
	return s
}

// IDs returns the ids of the given tracks in order.
func IDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
