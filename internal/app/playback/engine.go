package playback

import "time"

// Engine is the audio output the session drives. It knows URLs and timings
// only, never tracks or queues.
//
// Load and Play are asynchronous: they return immediately and report their
// outcome through the bound EventSink. Every event carries the load token of
// the source it describes so that resolutions of superseded loads can be
// discarded by the session.
type Engine interface {
	// Bind sets the sink that receives engine events.
	Bind(sink EventSink)
	// Load starts loading url as the source for token, superseding any
	// previous source. Resolves with EventReady or EventLoadFailed.
	Load(token uint64, url string)
	// Play starts output of the source for token. Resolves with EventPlayResolved.
	Play(token uint64)
	Pause()
	Seek(pos time.Duration)
	// SetVolume sets the output volume in [0,1].
	SetVolume(v float64)
}

// EventSink receives engine events.
type EventSink interface {
	HandleEngineEvent(ev EngineEvent)
}

// EngineEvent is an event emitted by an Engine.
type EngineEvent interface {
	LoadToken() uint64
}

// EventReady reports that the source metadata is available.
type EventReady struct {
	Token    uint64
	Duration time.Duration
}

// EventLoadFailed reports that the source could not be opened or decoded.
type EventLoadFailed struct {
	Token uint64
	Err   error
}

// EventPlayResolved reports the outcome of Play. A non-nil Err is a rejection.
type EventPlayResolved struct {
	Token uint64
	Err   error
}

// EventTimeUpdate reports the playback position.
type EventTimeUpdate struct {
	Token    uint64
	Position time.Duration
}

// EventEnded reports that the source played to its end.
type EventEnded struct {
	Token uint64
}

// EventPlayStateChanged reports that output started or stopped.
type EventPlayStateChanged struct {
	Token   uint64
	Playing bool
}

func (e EventReady) LoadToken() uint64            { return e.Token }
func (e EventLoadFailed) LoadToken() uint64       { return e.Token }
func (e EventPlayResolved) LoadToken() uint64     { return e.Token }
func (e EventTimeUpdate) LoadToken() uint64       { return e.Token }
func (e EventEnded) LoadToken() uint64            { return e.Token }
func (e EventPlayStateChanged) LoadToken() uint64 { return e.Token }
