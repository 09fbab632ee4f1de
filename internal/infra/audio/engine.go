// Package audio implements the playback engine on top of beep.
package audio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	zlog "github.com/rs/zerolog/log"

	"github.com/beatdeck/beatdeck/internal/app/playback"
)

// ErrNotLoaded is reported when play is requested for a load that is not
// ready or has been superseded.
var ErrNotLoaded = errors.New("no media loaded for token")

// Engine plays one track at a time. Every event carries the load token it
// belongs to; a superseded load is torn down and emits nothing further.
//
// Engine never emits EventPlayStateChanged. Output stops only on Pause,
// which the caller already knows about, or at end of stream, which is
// reported as EventEnded.
type Engine struct {
	out            Output
	open           Opener
	updateInterval time.Duration

	// mu is taken before the output lock, never after.
	mu         sync.Mutex
	sink       playback.EventSink
	token      uint64
	cancelLoad context.CancelFunc
	cur        *voice
	volume     float64
}

// voice is a loaded track. ctrl, vol and queued are guarded by the output lock.
type voice struct {
	token  uint64
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	vol    *effects.Volume
	queued bool
	stop   chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithUpdateInterval sets how often time updates are emitted while playing.
func WithUpdateInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.updateInterval = d
		}
	}
}

// NewEngine creates a new engine writing to out.
func NewEngine(out Output, open Opener, opts ...Option) *Engine {
	e := &Engine{
		out:            out,
		open:           open,
		updateInterval: 100 * time.Millisecond,
		volume:         1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind sets the receiver of engine events.
func (e *Engine) Bind(sink playback.EventSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Load supersedes the current media and starts loading url in the background.
func (e *Engine) Load(token uint64, url string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelLoad != nil {
		e.cancelLoad()
	}
	e.teardownLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.token = token
	e.cancelLoad = cancel

	go e.load(ctx, token, url)
}

func (e *Engine) load(ctx context.Context, token uint64, url string) {
	stream, format, err := e.open(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		zlog.Warn().Msgf("audio: load failed: token=%d url=%s error=%v", token, url, err)
		e.emit(playback.EventLoadFailed{Token: token, Err: err})
		return
	}

	e.mu.Lock()
	if ctx.Err() != nil || e.token != token {
		e.mu.Unlock()
		stream.Close()
		zlog.Debug().Msgf("audio: discarding superseded load: token=%d", token)
		return
	}

	v := &voice{
		token:  token,
		stream: stream,
		format: format,
		stop:   make(chan struct{}),
	}
	var src beep.Streamer = stream
	if rate := e.out.SampleRate(); format.SampleRate != rate {
		src = beep.Resample(4, format.SampleRate, rate, stream)
	}
	v.vol = &effects.Volume{Streamer: src, Base: 2}
	applyVolume(v.vol, e.volume)
	v.ctrl = &beep.Ctrl{Streamer: v.vol, Paused: true}
	e.cur = v
	e.enqueue(v)
	e.mu.Unlock()

	go e.reportTime(v)

	duration := format.SampleRate.D(stream.Len())
	zlog.Debug().Msgf("audio: loaded: token=%d duration=%s", token, duration)
	e.emit(playback.EventReady{Token: token, Duration: duration})
}

// enqueue adds the voice to the output unless it is already mixing.
// The caller holds e.mu.
func (e *Engine) enqueue(v *voice) {
	e.out.Lock()
	if v.queued {
		e.out.Unlock()
		return
	}
	v.queued = true
	e.out.Unlock()

	e.out.Play(beep.Seq(v.ctrl, beep.Callback(func() {
		// Runs with the output locked.
		v.queued = false
		go e.emit(playback.EventEnded{Token: v.token})
	})))
}

// Play starts the loaded media. The outcome is reported as EventPlayResolved.
func (e *Engine) Play(token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.cur
	if v == nil || v.token != token {
		go e.emit(playback.EventPlayResolved{Token: token, Err: ErrNotLoaded})
		return
	}

	e.enqueue(v)
	e.out.Lock()
	v.ctrl.Paused = false
	e.out.Unlock()

	go e.emit(playback.EventPlayResolved{Token: token})
}

// Pause halts output. The position is kept.
func (e *Engine) Pause() {
	e.withVoice(func(v *voice) {
		v.ctrl.Paused = true
	})
}

// Seek moves the playhead, clamped to the media.
func (e *Engine) Seek(pos time.Duration) {
	e.withVoice(func(v *voice) {
		n := v.format.SampleRate.N(pos)
		if n < 0 {
			n = 0
		}
		if n > v.stream.Len() {
			n = v.stream.Len()
		}
		if err := v.stream.Seek(n); err != nil {
			zlog.Warn().Msgf("audio: seek failed: token=%d pos=%s error=%v", v.token, pos, err)
		}
	})
}

// SetVolume sets the linear output volume in [0, 1].
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()

	e.withVoice(func(cur *voice) {
		applyVolume(cur.vol, v)
	})
}

// Close stops output and releases the current media.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.teardownLocked()
}

// withVoice runs fn on the current voice with the output locked.
func (e *Engine) withVoice(fn func(v *voice)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := e.cur
	if v == nil {
		return
	}

	e.out.Lock()
	defer e.out.Unlock()
	fn(v)
}

func (e *Engine) teardownLocked() {
	if e.cur == nil {
		return
	}
	v := e.cur
	e.cur = nil

	close(v.stop)
	e.out.Clear()
	if err := v.stream.Close(); err != nil {
		zlog.Debug().Msgf("audio: close failed: token=%d error=%v", v.token, err)
	}
}

// reportTime emits the playhead position while the voice is playing.
func (e *Engine) reportTime(v *voice) {
	ticker := time.NewTicker(e.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stop:
			return
		case <-ticker.C:
			e.out.Lock()
			playing := !v.ctrl.Paused && v.queued
			pos := v.format.SampleRate.D(v.stream.Position())
			e.out.Unlock()

			if playing {
				e.emit(playback.EventTimeUpdate{Token: v.token, Position: pos})
			}
		}
	}
}

func (e *Engine) emit(ev playback.EngineEvent) {
	e.mu.Lock()
	sink := e.sink
	e.mu.Unlock()

	if sink != nil {
		sink.HandleEngineEvent(ev)
	}
}

// applyVolume maps a linear volume onto a base 2 gain.
func applyVolume(vol *effects.Volume, v float64) {
	if v <= 0 {
		vol.Silent = true
		vol.Volume = 0
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(math.Min(v, 1))
}
