package playback

import (
	"time"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	Track           *track.Track // Current track, nil when idle
	Position        int          // Index of Track in Queue, -1 if absent
	State           State
	CurrentTime     time.Duration
	Duration        time.Duration
	Volume          float64
	Shuffle         bool
	Repeat          RepeatMode
	Autoplay        bool
	SkipCooldown    bool // Skip commands are currently dropped
	ShuffleCooldown bool // Shuffle toggle is currently dropped
	Queue           []track.Track
}

// Progress returns the played fraction of the current track in [0,1].
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.CurrentTime) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// TrackID returns the current track id, or "".
func (s Snapshot) TrackID() string {
	if s.Track == nil {
		return ""
	}
	return s.Track.ID
}
