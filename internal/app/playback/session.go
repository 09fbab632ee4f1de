package playback

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/app/cooldown"
	"github.com/beatdeck/beatdeck/internal/app/queue"
	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Errors
var (
	ErrNoTrack          = errors.New("no track selected")
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrMissingAudio     = errors.New("track has no audio source")
	ErrCooldown         = errors.New("command dropped during cooldown")
	ErrTrackNotFound    = errors.New("track not found in queue")
	ErrIndexOutOfRange  = errors.New("queue index out of range")
	ErrControllerClosed = errors.New("playback controller is closed")
)

// Config holds playback configuration.
type Config struct {
	SkipCooldown     time.Duration // Window for skip next/back
	ShuffleCooldown  time.Duration // Window for shuffle toggle
	RestartThreshold time.Duration // Skip back restarts the track past this position
	InitialVolume    float64       // Volume in [0,1] applied at startup
	FrameInterval    time.Duration // Minimum interval between published snapshots
}

// DefaultConfig returns the store's playback defaults.
func DefaultConfig() Config {
	return Config{
		SkipCooldown:     cooldown.DefaultWindow,
		ShuffleCooldown:  cooldown.DefaultWindow,
		RestartThreshold: 5 * time.Second,
		InitialVolume:    1.0,
		FrameInterval:    16 * time.Millisecond,
	}
}

// Gate admits or drops rate-limited commands.
type Gate interface {
	Allow() bool
	Cooling() bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithGates replaces the skip and shuffle cooldown gates.
func WithGates(skip, shuffle Gate) SessionOption {
	return func(s *Session) {
		s.skipGate = skip
		s.shuffleGate = shuffle
	}
}

// Session is the playback state machine. It owns the "now playing" state,
// turns commands into engine calls and engine events into transitions.
//
// Session is not safe for concurrent use. The Controller serializes access.
type Session struct {
	engine      Engine
	queue       *queue.Manager
	skipGate    Gate
	shuffleGate Gate

	restartThreshold time.Duration

	current     *track.Track
	position    int
	state       State
	currentTime time.Duration
	duration    time.Duration
	volume      float64
	repeat      RepeatMode

	autoplay    bool   // Start output once the pending load is ready
	playPending bool   // A Play call awaits its resolution
	loadToken   uint64 // Token of the most recent Load
}

// NewSession creates a session in the idle state and applies the initial volume.
func NewSession(cfg Config, engine Engine, q *queue.Manager, opts ...SessionOption) *Session {
	s := &Session{
		engine:           engine,
		queue:            q,
		skipGate:         cooldown.New(cfg.SkipCooldown),
		shuffleGate:      cooldown.New(cfg.ShuffleCooldown),
		restartThreshold: cfg.RestartThreshold,
		position:         -1,
		state:            StateIdle,
		volume:           clampVolume(cfg.InitialVolume),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.SetVolume(s.volume)
	return s
}

// PlayTrack starts t from the beginning, superseding any in-flight load.
// A track without audio is rejected and leaves the state unchanged.
func (s *Session) PlayTrack(t track.Track) error {
	if !t.Playable() {
		zlog.Warn().Msgf("playback: track has no audio source: id=%s title=%s", t.ID, t.DisplayTitle())
		return errors.Wrapf(ErrMissingAudio, "track %s", t.ID)
	}

	s.loadToken++
	cur := t
	s.current = &cur
	s.position = s.queue.IndexOfActive(t.ID)
	s.state = StateLoading
	s.currentTime = 0
	s.duration = 0
	s.autoplay = true
	s.playPending = false

	zlog.Debug().Msgf("playback: loading track: token=%d track=%s position=%d", s.loadToken, t, s.position)

	s.engine.Load(s.loadToken, t.AudioURL)
	return nil
}

// PlayIndex starts the track at index i of the active queue.
func (s *Session) PlayIndex(i int) error {
	t, ok := s.queue.At(i)
	if !ok {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d of %d", i, s.queue.Len())
	}
	return s.PlayTrack(t)
}

// Toggle pauses or resumes t when it is the current track, preserving the
// position. Any other track is started from the beginning.
func (s *Session) Toggle(t track.Track) error {
	if s.current == nil || s.current.ID != t.ID {
		return s.PlayTrack(t)
	}
	if s.outputActive() {
		s.Pause()
		return nil
	}
	return s.Resume()
}

// ToggleCurrent toggles the current track. With no current track it starts
// the active queue entry at the position index, or the first entry.
func (s *Session) ToggleCurrent() error {
	if s.current != nil {
		return s.Toggle(*s.current)
	}
	if s.queue.Len() == 0 {
		return ErrQueueEmpty
	}
	idx := s.position
	if idx < 0 {
		idx = 0
	}
	return s.PlayIndex(idx)
}

// Resume continues the current track from its stored position.
func (s *Session) Resume() error {
	if s.current == nil {
		return ErrNoTrack
	}

	switch {
	case s.state == StateLoading:
		s.autoplay = true
		return nil
	case s.state == StatePlaying, s.playPending:
		return nil
	}

	s.playPending = true
	s.engine.Play(s.loadToken)
	return nil
}

// Pause stops output. Pausing during a load cancels the autoplay intent.
func (s *Session) Pause() {
	s.autoplay = false
	s.playPending = false
	if s.current == nil {
		return
	}

	s.engine.Pause()
	if s.state != StateLoading {
		s.state = StatePaused
	}
}

// SkipNext starts the next track of the active queue, wrapping at the end.
func (s *Session) SkipNext() error {
	if !s.skipGate.Allow() {
		zlog.Debug().Msg("playback: skip next dropped (cooldown)")
		return ErrCooldown
	}
	return s.skipNext()
}

func (s *Session) skipNext() error {
	n := s.queue.Len()
	if n == 0 {
		return ErrQueueEmpty
	}
	next := 0
	if s.position >= 0 {
		next = queue.NextIndex(s.position, n)
	}
	return s.PlayIndex(next)
}

// SkipBack restarts the current track when it has played past the restart
// threshold, otherwise starts the previous track of the active queue.
func (s *Session) SkipBack() error {
	if !s.skipGate.Allow() {
		zlog.Debug().Msg("playback: skip back dropped (cooldown)")
		return ErrCooldown
	}

	if s.current != nil && s.currentTime > s.restartThreshold {
		s.engine.Seek(0)
		s.currentTime = 0
		return nil
	}

	n := s.queue.Len()
	if n == 0 {
		return ErrQueueEmpty
	}
	prev := n - 1
	if s.position >= 0 {
		prev = queue.PrevIndex(s.position, n)
	}
	return s.PlayIndex(prev)
}

// Seek moves the current track to pos, clamped to [0, duration]. An unknown
// duration leaves the position unbounded above.
func (s *Session) Seek(pos time.Duration) error {
	if s.current == nil {
		return ErrNoTrack
	}
	pos = clampTime(pos, s.duration)
	s.engine.Seek(pos)
	s.currentTime = pos
	return nil
}

// SetVolume sets the volume, clamped to [0,1]. NaN is ignored.
func (s *Session) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	s.volume = clampVolume(v)
	s.engine.SetVolume(s.volume)
}

// ToggleShuffle switches between sequential and shuffled order without
// interrupting playback.
func (s *Session) ToggleShuffle() error {
	if !s.shuffleGate.Allow() {
		zlog.Debug().Msg("playback: shuffle toggle dropped (cooldown)")
		return ErrCooldown
	}

	activeID := ""
	if s.current != nil {
		activeID = s.current.ID
	}
	_, idx := s.queue.ToggleShuffle(activeID)
	s.position = idx

	zlog.Debug().Msgf("playback: shuffle=%v position=%d", s.queue.Shuffled(), s.position)
	return nil
}

// ToggleRepeat flips the repeat mode.
func (s *Session) ToggleRepeat() {
	if s.repeat == RepeatOne {
		s.repeat = RepeatOff
	} else {
		s.repeat = RepeatOne
	}
}

// ReplaceQueue installs a refreshed catalog. The current track keeps playing;
// its position is recomputed and is -1 when it left the catalog.
func (s *Session) ReplaceQueue(tracks []track.Track) {
	s.queue.SetSource(tracks)
	if s.current == nil {
		s.position = -1
		return
	}
	s.position = s.queue.IndexOfActive(s.current.ID)
}

// HandleEngineEvent applies an engine event. Events for superseded loads are
// discarded.
func (s *Session) HandleEngineEvent(ev EngineEvent) {
	if ev.LoadToken() != s.loadToken || s.current == nil {
		zlog.Debug().Msgf("playback: stale engine event discarded: %T token=%d current=%d", ev, ev.LoadToken(), s.loadToken)
		return
	}

	switch e := ev.(type) {
	case EventReady:
		s.onReady(e)
	case EventLoadFailed:
		s.onLoadFailed(e)
	case EventPlayResolved:
		s.onPlayResolved(e)
	case EventTimeUpdate:
		if s.state == StateLoading {
			return
		}
		s.currentTime = clampTime(e.Position, s.duration)
	case EventPlayStateChanged:
		s.onPlayStateChanged(e)
	case EventEnded:
		s.onEnded()
	}
}

func (s *Session) onReady(e EventReady) {
	if s.state != StateLoading {
		return
	}
	if e.Duration > 0 {
		s.duration = e.Duration
	}
	if !s.autoplay {
		s.state = StatePaused
		return
	}
	s.state = StatePaused
	s.playPending = true
	s.engine.Play(s.loadToken)
}

func (s *Session) onLoadFailed(e EventLoadFailed) {
	zlog.Warn().Err(e.Err).Msgf("playback: load failed: track=%s", s.current)
	s.state = StatePaused
	s.autoplay = false
	s.playPending = false
}

func (s *Session) onPlayResolved(e EventPlayResolved) {
	if !s.playPending {
		return
	}
	s.playPending = false
	s.autoplay = false
	if e.Err != nil {
		zlog.Warn().Err(e.Err).Msgf("playback: play rejected: track=%s", s.current)
		s.state = StatePaused
		return
	}
	s.state = StatePlaying
}

func (s *Session) onPlayStateChanged(e EventPlayStateChanged) {
	if s.state == StateLoading || s.playPending {
		return
	}
	if e.Playing {
		s.state = StatePlaying
	} else {
		s.state = StatePaused
	}
}

// onEnded replays the track under RepeatOne, otherwise advances like a skip.
// An advance dropped by the skip cooldown leaves the session paused at the end.
func (s *Session) onEnded() {
	if s.repeat == RepeatOne {
		s.engine.Seek(0)
		s.currentTime = 0
		s.state = StatePaused
		s.playPending = false
		_ = s.Resume()
		return
	}

	if err := s.SkipNext(); err != nil {
		zlog.Debug().Err(err).Msg("playback: advance after end failed")
		s.state = StatePaused
		s.autoplay = false
		s.playPending = false
		s.currentTime = s.duration
	}
}

// outputActive reports whether the session is playing or about to.
func (s *Session) outputActive() bool {
	switch s.state {
	case StatePlaying:
		return true
	case StateLoading:
		return s.autoplay
	default:
		return s.playPending
	}
}

// Snapshot returns a read-only copy of the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Position:        s.position,
		State:           s.state,
		CurrentTime:     s.currentTime,
		Duration:        s.duration,
		Volume:          s.volume,
		Shuffle:         s.queue.Shuffled(),
		Repeat:          s.repeat,
		Autoplay:        s.autoplay,
		SkipCooldown:    s.skipGate.Cooling(),
		ShuffleCooldown: s.shuffleGate.Cooling(),
		Queue:           s.queue.Active(),
	}
	if s.current != nil {
		cur := *s.current
		snap.Track = &cur
	}
	return snap
}

// Find returns the queued track with the given id.
func (s *Session) Find(id string) (track.Track, error) {
	t, ok := s.queue.Find(id)
	if !ok {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "id %s", id)
	}
	return t, nil
}

// LoadToken returns the token of the most recent load.
func (s *Session) LoadToken() uint64 {
	return s.loadToken
}

// clampTime bounds t to [0, limit]. A limit of zero or less means the
// length is unknown and only the lower bound applies.
func clampTime(t, limit time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if limit > 0 && t > limit {
		return limit
	}
	return t
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
