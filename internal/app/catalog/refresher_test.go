package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatdeck/beatdeck/internal/domain/track"
)

type countingLoader struct {
	mu    sync.Mutex
	loads int
	err   error
}

func (l *countingLoader) Load(ctx context.Context) ([]track.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	return []track.Track{{ID: "a", AudioURL: "/a.mp3"}}, nil
}

func (l *countingLoader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

func TestRefresher_Refresh(t *testing.T) {
	var applied []track.Track
	r := NewRefresher(&countingLoader{}, func(ctx context.Context, tracks []track.Track) error {
		applied = tracks
		return nil
	}, 0)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, []string{"a"}, track.IDs(applied))
}

func TestRefresher_LoadFailureKeepsQueue(t *testing.T) {
	applyCalls := 0
	r := NewRefresher(&countingLoader{err: ErrEmptyCatalog}, func(ctx context.Context, tracks []track.Track) error {
		applyCalls++
		return nil
	}, 0)

	err := r.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyCatalog))
	assert.Equal(t, 0, applyCalls)
}

func TestRefresher_ApplyFailure(t *testing.T) {
	r := NewRefresher(&countingLoader{}, func(ctx context.Context, tracks []track.Track) error {
		return errors.New("controller closed")
	}, 0)

	assert.Error(t, r.Refresh(context.Background()))
}

func TestRefresher_RunOnceWithoutInterval(t *testing.T) {
	loader := &countingLoader{}
	r := NewRefresher(loader, func(ctx context.Context, tracks []track.Track) error { return nil }, 0)

	r.Run(context.Background())
	assert.Equal(t, 1, loader.Loads())
}

func TestRefresher_RunPeriodically(t *testing.T) {
	loader := &countingLoader{}
	r := NewRefresher(loader, func(ctx context.Context, tracks []track.Track) error { return nil }, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return loader.Loads() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
