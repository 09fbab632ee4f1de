// Package input maps global key presses to playback commands.
package input

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"
)

// Focus describes the control that holds keyboard focus when a key is pressed.
type Focus int

const (
	FocusNone      Focus = iota // Nothing focused, or a non-editable control
	FocusButton                 // A button or list row
	FocusTextInput              // A single-line text field
	FocusTextArea               // A multi-line text field
	FocusEditable               // Any other content-editable region
)

// String returns the string representation of the focus kind.
func (f Focus) String() string {
	switch f {
	case FocusNone:
		return "none"
	case FocusButton:
		return "button"
	case FocusTextInput:
		return "text_input"
	case FocusTextArea:
		return "text_area"
	case FocusEditable:
		return "editable"
	default:
		return "unknown"
	}
}

// Editable reports whether keystrokes belong to the focused control.
func (f Focus) Editable() bool {
	return f == FocusTextInput || f == FocusTextArea || f == FocusEditable
}

// KeyEvent is a key press with its focus target.
type KeyEvent struct {
	Key   string // Key name, e.g. " " or "space"
	Focus Focus
}

// Toggler plays or pauses the current track.
type Toggler interface {
	ToggleCurrent(ctx context.Context) error
}

// ToggleFunc adapts a function to Toggler.
type ToggleFunc func(ctx context.Context) error

// ToggleCurrent calls f.
func (f ToggleFunc) ToggleCurrent(ctx context.Context) error {
	return f(ctx)
}

// Dispatcher routes the play/pause key to a Toggler.
type Dispatcher struct {
	toggler Toggler
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(toggler Toggler) *Dispatcher {
	return &Dispatcher{toggler: toggler}
}

// Dispatch handles a key event. It returns true when the key was consumed,
// in which case the host must suppress the key's default action.
func (d *Dispatcher) Dispatch(ctx context.Context, ev KeyEvent) bool {
	if !IsPlayPauseKey(ev.Key) {
		return false
	}
	if ev.Focus.Editable() {
		return false
	}

	if err := d.toggler.ToggleCurrent(ctx); err != nil {
		zlog.Debug().Err(err).Msg("input: toggle failed")
	}
	return true
}

// IsPlayPauseKey reports whether key is the play/pause shortcut.
func IsPlayPauseKey(key string) bool {
	return key == " " || strings.EqualFold(key, "space")
}
