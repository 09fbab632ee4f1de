// Package queue provides the track queue with its sequential and shuffled orderings.
package queue

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Manager owns the canonical (sequential) track list and a derived shuffled
// permutation of it. Exactly one of the two is active at any time.
//
// Manager is not safe for concurrent use; it is owned by the playback session.
type Manager struct {
	sequential []track.Track
	shuffled   []track.Track
	shuffle    bool
	rng        *rand.Rand
}

// Option configures a Manager.
type Option func(*Manager)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) {
		m.rng = r
	}
}

// New creates an empty queue manager in sequential mode.
func New(opts ...Option) *Manager {
	m := &Manager{
		sequential: make([]track.Track, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = newRand()
	}
	return m
}

// SetSource replaces the sequential queue. When shuffle is enabled a fresh
// permutation is generated; the previous permutation is not preserved.
func (m *Manager) SetSource(tracks []track.Track) {
	m.sequential = make([]track.Track, len(tracks))
	copy(m.sequential, tracks)

	if m.shuffle {
		m.shuffled = m.permute(m.sequential)
	} else {
		m.shuffled = nil
	}
}

// ToggleShuffle flips shuffle mode and returns the newly active queue with the
// index of activeID in it. When activeID is not present the index is 0.
func (m *Manager) ToggleShuffle(activeID string) ([]track.Track, int) {
	m.shuffle = !m.shuffle
	if m.shuffle {
		m.shuffled = m.permute(m.sequential)
	} else {
		m.shuffled = nil
	}

	active := m.Active()
	idx := IndexOf(active, activeID)
	if idx < 0 {
		idx = 0
	}
	return active, idx
}

// Shuffled reports whether the shuffled ordering is active.
func (m *Manager) Shuffled() bool {
	return m.shuffle
}

// Active returns a copy of the active queue.
func (m *Manager) Active() []track.Track {
	src := m.active()
	result := make([]track.Track, len(src))
	copy(result, src)
	return result
}

// Sequential returns a copy of the catalog-ordered queue.
func (m *Manager) Sequential() []track.Track {
	result := make([]track.Track, len(m.sequential))
	copy(result, m.sequential)
	return result
}

// Len returns the number of tracks in the queue.
func (m *Manager) Len() int {
	return len(m.sequential)
}

// At returns the track at index i of the active queue.
func (m *Manager) At(i int) (track.Track, bool) {
	src := m.active()
	if i < 0 || i >= len(src) {
		return track.Track{}, false
	}
	return src[i], true
}

// Find returns the track with the given id, regardless of ordering.
func (m *Manager) Find(id string) (track.Track, bool) {
	idx := IndexOf(m.sequential, id)
	if idx < 0 {
		return track.Track{}, false
	}
	return m.sequential[idx], true
}

// IndexOfActive returns the index of id in the active queue, or -1.
func (m *Manager) IndexOfActive(id string) int {
	return IndexOf(m.active(), id)
}

func (m *Manager) active() []track.Track {
	if m.shuffle {
		return m.shuffled
	}
	return m.sequential
}

// permute returns a Fisher–Yates shuffled copy of tracks.
func (m *Manager) permute(tracks []track.Track) []track.Track {
	s := make([]track.Track, len(tracks))
	copy(s, tracks)
	for i := len(s) - 1; i > 0; i-- {
		j := m.rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// IndexOf returns the index of the track with the given id, or -1.
func IndexOf(q []track.Track, id string) int {
	for i, t := range q {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// NextIndex returns the index after i in a ring of length n. n must be > 0.
func NextIndex(i, n int) int {
	return (i + 1) % n
}

// PrevIndex returns the index before i in a ring of length n. n must be > 0.
func PrevIndex(i, n int) int {
	return (i - 1 + n) % n
}

// newRand seeds a generator from crypto/rand, falling back to the clock.
func newRand() *rand.Rand {
	var seed int64
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(buf[:]))
	} else {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
