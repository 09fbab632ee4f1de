// Package playback provides the playback session state machine and the
// controller that serializes commands and engine events into it.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No track selected
	StateLoading              // Source is loading
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// ParseState returns the state named by s, or StateIdle.
func ParseState(s string) State {
	switch s {
	case "loading":
		return StateLoading
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	default:
		return StateIdle
	}
}

// RepeatMode represents the repeat setting.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota // Advance to the next track on end
	RepeatOne                   // Replay the current track on end
)

// String returns the string representation of the repeat mode.
func (r RepeatMode) String() string {
	switch r {
	case RepeatOff:
		return "off"
	case RepeatOne:
		return "one"
	default:
		return "unknown"
	}
}

// ParseRepeatMode returns the repeat mode named by s, or RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	if s == "one" {
		return RepeatOne
	}
	return RepeatOff
}
