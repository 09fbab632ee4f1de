package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/beatdeck/beatdeck/internal/app/playback"
)

// droppedReason reports commands that were deliberately ignored rather than
// failed. The caller still receives the current snapshot.
func droppedReason(err error) (string, bool) {
	switch {
	case errors.Is(err, playback.ErrCooldown):
		return "cooldown", true
	case errors.Is(err, playback.ErrQueueEmpty):
		return "queue_empty", true
	default:
		return "", false
	}
}

// toConnectError maps playback errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	var code connect.Code
	switch {
	case errors.Is(err, playback.ErrTrackNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, playback.ErrIndexOutOfRange):
		code = connect.CodeOutOfRange
	case errors.Is(err, playback.ErrNoTrack), errors.Is(err, playback.ErrMissingAudio):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, playback.ErrControllerClosed):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
