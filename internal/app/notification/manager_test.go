package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/app/playback"
)

func TestManager_PublishLatestWins(t *testing.T) {
	m := NewManager()
	_, ch := m.Subscribe()

	m.Publish(playback.Snapshot{Volume: 0.1})
	m.Publish(playback.Snapshot{Volume: 0.2})
	m.Publish(playback.Snapshot{Volume: 0.3})

	n := <-ch
	assert.Equal(t, uint64(3), n.SequenceNo)
	assert.Equal(t, 0.3, n.Snapshot.Volume)

	select {
	case <-ch:
		t.Fatal("only the newest snapshot is kept")
	default:
	}
}

func TestManager_SubscribeReceivesLatest(t *testing.T) {
	m := NewManager()
	m.Publish(playback.Snapshot{State: playback.StatePlaying})

	_, ch := m.Subscribe()

	n := <-ch
	assert.Equal(t, playback.StatePlaying, n.Snapshot.State)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	id, ch := m.Subscribe()
	require.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	m.Unsubscribe(id)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Publish(playback.Snapshot{})
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	_, a := m.Subscribe()
	_, b := m.Subscribe()

	m.Close()

	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 0, m.SubscriberCount())
}
