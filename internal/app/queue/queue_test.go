package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

func tracks(ids ...string) []track.Track {
	result := make([]track.Track, len(ids))
	for i, id := range ids {
		result[i] = track.Track{ID: id, AudioURL: "/audio/" + id + ".mp3"}
	}
	return result
}

func sortedIDs(q []track.Track) []string {
	ids := track.IDs(q)
	sort.Strings(ids)
	return ids
}

func newManager(seed int64) *Manager {
	return New(WithRand(rand.New(rand.NewSource(seed))))
}

func TestManager_SetSource(t *testing.T) {
	m := newManager(1)
	m.SetSource(tracks("a", "b", "c"))

	assert.Equal(t, 3, m.Len())
	assert.False(t, m.Shuffled())
	assert.Equal(t, []string{"a", "b", "c"}, track.IDs(m.Active()))
}

func TestManager_SetSource_CopiesInput(t *testing.T) {
	src := tracks("a", "b")
	m := newManager(1)
	m.SetSource(src)

	src[0].ID = "z"

	assert.Equal(t, []string{"a", "b"}, track.IDs(m.Active()))
}

func TestManager_SetSource_WhileShuffled(t *testing.T) {
	m := newManager(7)
	m.SetSource(tracks("a", "b", "c"))
	m.ToggleShuffle("")

	m.SetSource(tracks("a", "b", "c", "d", "e"))

	assert.True(t, m.Shuffled())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, sortedIDs(m.Active()))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, track.IDs(m.Sequential()))
}

func TestManager_ToggleShuffle(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	for seed := int64(0); seed < 20; seed++ {
		m := newManager(seed)
		m.SetSource(tracks(ids...))

		active, idx := m.ToggleShuffle("c")
		require.True(t, m.Shuffled())
		assert.Equal(t, ids, sortedIDs(active), "shuffled queue must be a permutation")
		assert.Equal(t, "c", active[idx].ID)

		active, idx = m.ToggleShuffle("c")
		require.False(t, m.Shuffled())
		assert.Equal(t, ids, track.IDs(active))
		assert.Equal(t, 2, idx)
	}
}

func TestManager_ToggleShuffle_MissingTrackFallsBackToZero(t *testing.T) {
	m := newManager(3)
	m.SetSource(tracks("a", "b", "c"))

	_, idx := m.ToggleShuffle("gone")
	assert.Equal(t, 0, idx)

	_, idx = m.ToggleShuffle("")
	assert.Equal(t, 0, idx)
}

func TestManager_ToggleShuffle_Empty(t *testing.T) {
	m := newManager(3)

	active, idx := m.ToggleShuffle("a")

	assert.Empty(t, active)
	assert.Equal(t, 0, idx)
}

func TestManager_At(t *testing.T) {
	m := newManager(1)
	m.SetSource(tracks("a", "b"))

	tr, ok := m.At(1)
	require.True(t, ok)
	assert.Equal(t, "b", tr.ID)

	_, ok = m.At(2)
	assert.False(t, ok)
	_, ok = m.At(-1)
	assert.False(t, ok)
}

func TestManager_Find(t *testing.T) {
	m := newManager(1)
	m.SetSource(tracks("a", "b"))
	m.ToggleShuffle("a")

	tr, ok := m.Find("b")
	require.True(t, ok)
	assert.Equal(t, "b", tr.ID)

	_, ok = m.Find("x")
	assert.False(t, ok)
}

func TestIndexOf(t *testing.T) {
	q := tracks("a", "b", "c")

	tests := []struct {
		name     string
		id       string
		expected int
	}{
		{name: "first", id: "a", expected: 0},
		{name: "last", id: "c", expected: 2},
		{name: "absent", id: "x", expected: -1},
		{name: "empty id", id: "", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexOf(q, tt.id))
		})
	}
}

func TestNextPrevIndex(t *testing.T) {
	tests := []struct {
		name     string
		i        int
		n        int
		wantNext int
		wantPrev int
	}{
		{name: "middle", i: 1, n: 3, wantNext: 2, wantPrev: 0},
		{name: "wraps at end", i: 2, n: 3, wantNext: 0, wantPrev: 1},
		{name: "wraps at start", i: 0, n: 3, wantNext: 1, wantPrev: 2},
		{name: "single", i: 0, n: 1, wantNext: 0, wantPrev: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantNext, NextIndex(tt.i, tt.n))
			assert.Equal(t, tt.wantPrev, PrevIndex(tt.i, tt.n))
		})
	}
}
