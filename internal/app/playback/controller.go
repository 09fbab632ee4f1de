package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/app/queue"
	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Publisher receives session snapshots for rendering.
// Publish is called from the controller loop and must not block.
type Publisher interface {
	Publish(snap Snapshot)
}

// command is a session mutation executed on the controller loop.
type command struct {
	name  string
	fn    func(s *Session) error
	reply chan commandResult
}

type commandResult struct {
	snap Snapshot
	err  error
}

// Controller owns the playback session and runs it on a single goroutine.
// Commands from any goroutine and engine events are serialized through
// channels, so the session never sees concurrent access.
type Controller struct {
	session       *Session
	publisher     Publisher
	frameInterval time.Duration

	cmdCh   chan command
	eventCh chan EngineEvent
	done    chan struct{}
}

// NewController creates a controller and binds it as the engine's event sink.
// publisher may be nil.
func NewController(cfg Config, engine Engine, q *queue.Manager, publisher Publisher, opts ...SessionOption) *Controller {
	frame := cfg.FrameInterval
	if frame <= 0 {
		frame = DefaultConfig().FrameInterval
	}
	c := &Controller{
		session:       NewSession(cfg, engine, q, opts...),
		publisher:     publisher,
		frameInterval: frame,
		cmdCh:         make(chan command),
		eventCh:       make(chan EngineEvent, 64),
		done:          make(chan struct{}),
	}
	engine.Bind(c)
	return c
}

// Run processes commands and engine events until ctx is cancelled.
// Snapshots are published at most once per frame, and only when something changed.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	ticker := time.NewTicker(c.frameInterval)
	defer ticker.Stop()

	dirty := true
	var last Snapshot

	zlog.Info().Msgf("playback: controller started: frame=%v", c.frameInterval)

	for {
		select {
		case <-ctx.Done():
			zlog.Info().Msg("playback: controller stopped")
			return nil

		case cmd := <-c.cmdCh:
			err := cmd.fn(c.session)
			if err != nil {
				zlog.Debug().Err(err).Msgf("playback: command %s", cmd.name)
			}
			cmd.reply <- commandResult{snap: c.session.Snapshot(), err: err}
			dirty = true

		case ev := <-c.eventCh:
			c.session.HandleEngineEvent(ev)
			dirty = true

		case <-ticker.C:
			if c.publisher == nil {
				continue
			}
			// Cooldown flags expire without any event.
			if !dirty && last.SkipCooldown == c.session.skipGate.Cooling() &&
				last.ShuffleCooldown == c.session.shuffleGate.Cooling() {
				continue
			}
			last = c.session.Snapshot()
			c.publisher.Publish(last)
			dirty = false
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// HandleEngineEvent queues an engine event for the loop. Time updates are
// dropped when the loop is behind; other events are always delivered.
func (c *Controller) HandleEngineEvent(ev EngineEvent) {
	if _, ok := ev.(EventTimeUpdate); ok {
		select {
		case c.eventCh <- ev:
		default:
		}
		return
	}

	select {
	case c.eventCh <- ev:
	case <-c.done:
	}
}

func (c *Controller) do(ctx context.Context, name string, fn func(s *Session) error) (Snapshot, error) {
	reply := make(chan commandResult, 1)

	select {
	case c.cmdCh <- command{name: name, fn: fn, reply: reply}:
	case <-c.done:
		return Snapshot{}, ErrControllerClosed
	case <-ctx.Done():
		return Snapshot{}, errors.Wrap(ctx.Err(), name)
	}

	select {
	case r := <-reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, errors.Wrap(ctx.Err(), name)
	}
}

// Snapshot returns the current session snapshot.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "snapshot", func(s *Session) error { return nil })
}

// Queue returns the active queue.
func (c *Controller) Queue(ctx context.Context) ([]track.Track, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Queue, nil
}

// PlayTrack starts the queued track with the given id from the beginning.
func (c *Controller) PlayTrack(ctx context.Context, id string) (Snapshot, error) {
	return c.do(ctx, "play_track", func(s *Session) error {
		t, err := s.Find(id)
		if err != nil {
			return err
		}
		return s.PlayTrack(t)
	})
}

// PlayIndex starts the track at index i of the active queue.
func (c *Controller) PlayIndex(ctx context.Context, i int) (Snapshot, error) {
	return c.do(ctx, "play_index", func(s *Session) error {
		return s.PlayIndex(i)
	})
}

// Toggle pauses or resumes the track with the given id when it is current,
// otherwise starts it.
func (c *Controller) Toggle(ctx context.Context, id string) (Snapshot, error) {
	return c.do(ctx, "toggle", func(s *Session) error {
		t, err := s.Find(id)
		if err != nil {
			return err
		}
		return s.Toggle(t)
	})
}

// ToggleCurrent pauses or resumes the current track.
func (c *Controller) ToggleCurrent(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "toggle_current", func(s *Session) error {
		return s.ToggleCurrent()
	})
}

// Resume resumes the current track.
func (c *Controller) Resume(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "resume", func(s *Session) error {
		return s.Resume()
	})
}

// Pause pauses playback.
func (c *Controller) Pause(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "pause", func(s *Session) error {
		s.Pause()
		return nil
	})
}

// SkipNext advances to the next track.
func (c *Controller) SkipNext(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "skip_next", func(s *Session) error {
		return s.SkipNext()
	})
}

// SkipBack restarts the current track or goes to the previous one.
func (c *Controller) SkipBack(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "skip_back", func(s *Session) error {
		return s.SkipBack()
	})
}

// Seek moves the current track to pos.
func (c *Controller) Seek(ctx context.Context, pos time.Duration) (Snapshot, error) {
	return c.do(ctx, "seek", func(s *Session) error {
		return s.Seek(pos)
	})
}

// SetVolume sets the output volume.
func (c *Controller) SetVolume(ctx context.Context, v float64) (Snapshot, error) {
	return c.do(ctx, "set_volume", func(s *Session) error {
		s.SetVolume(v)
		return nil
	})
}

// ToggleShuffle switches between sequential and shuffled order.
func (c *Controller) ToggleShuffle(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "toggle_shuffle", func(s *Session) error {
		return s.ToggleShuffle()
	})
}

// ToggleRepeat flips the repeat mode.
func (c *Controller) ToggleRepeat(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "toggle_repeat", func(s *Session) error {
		s.ToggleRepeat()
		return nil
	})
}

// ReplaceQueue installs a refreshed catalog.
func (c *Controller) ReplaceQueue(ctx context.Context, tracks []track.Track) (Snapshot, error) {
	return c.do(ctx, "replace_queue", func(s *Session) error {
		s.ReplaceQueue(tracks)
		return nil
	})
}
