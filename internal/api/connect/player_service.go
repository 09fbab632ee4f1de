package connect

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/beatdeck/beatdeck/internal/app/notification"
	"github.com/beatdeck/beatdeck/internal/app/playback"
	"github.com/beatdeck/beatdeck/internal/domain/license"
	"github.com/beatdeck/beatdeck/internal/domain/track"
)

// Player is the playback surface driven by the service.
type Player interface {
	Snapshot(ctx context.Context) (playback.Snapshot, error)
	Queue(ctx context.Context) ([]track.Track, error)
	PlayTrack(ctx context.Context, id string) (playback.Snapshot, error)
	PlayIndex(ctx context.Context, i int) (playback.Snapshot, error)
	Toggle(ctx context.Context, id string) (playback.Snapshot, error)
	ToggleCurrent(ctx context.Context) (playback.Snapshot, error)
	Resume(ctx context.Context) (playback.Snapshot, error)
	Pause(ctx context.Context) (playback.Snapshot, error)
	SkipNext(ctx context.Context) (playback.Snapshot, error)
	SkipBack(ctx context.Context) (playback.Snapshot, error)
	Seek(ctx context.Context, pos time.Duration) (playback.Snapshot, error)
	SetVolume(ctx context.Context, v float64) (playback.Snapshot, error)
	ToggleShuffle(ctx context.Context) (playback.Snapshot, error)
	ToggleRepeat(ctx context.Context) (playback.Snapshot, error)
}

// Watcher delivers published snapshots.
type Watcher interface {
	Subscribe() (string, <-chan notification.Notification)
	Unsubscribe(subscriptionID string)
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player  Player
	watcher Watcher
	tiers   []license.Tier
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(player Player, watcher Watcher, tiers []license.Tier) *PlayerService {
	if tiers == nil {
		tiers = license.DefaultTiers()
	}
	return &PlayerService{
		player:  player,
		watcher: watcher,
		tiers:   tiers,
	}
}

// NewPlayerServiceHandler builds an HTTP handler that serves every procedure
// of svc. It returns the path prefix to mount it on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()

	mux.Handle(GetSnapshotProcedure, connect.NewUnaryHandler(GetSnapshotProcedure, svc.GetSnapshot, opts...))
	mux.Handle(GetQueueProcedure, connect.NewUnaryHandler(GetQueueProcedure, svc.GetQueue, opts...))
	mux.Handle(PlayTrackProcedure, connect.NewUnaryHandler(PlayTrackProcedure, svc.PlayTrack, opts...))
	mux.Handle(PlayIndexProcedure, connect.NewUnaryHandler(PlayIndexProcedure, svc.PlayIndex, opts...))
	mux.Handle(ToggleProcedure, connect.NewUnaryHandler(ToggleProcedure, svc.Toggle, opts...))
	mux.Handle(ToggleCurrentProcedure, connect.NewUnaryHandler(ToggleCurrentProcedure, svc.ToggleCurrent, opts...))
	mux.Handle(PauseProcedure, connect.NewUnaryHandler(PauseProcedure, svc.Pause, opts...))
	mux.Handle(ResumeProcedure, connect.NewUnaryHandler(ResumeProcedure, svc.Resume, opts...))
	mux.Handle(SkipNextProcedure, connect.NewUnaryHandler(SkipNextProcedure, svc.SkipNext, opts...))
	mux.Handle(SkipBackProcedure, connect.NewUnaryHandler(SkipBackProcedure, svc.SkipBack, opts...))
	mux.Handle(SeekProcedure, connect.NewUnaryHandler(SeekProcedure, svc.Seek, opts...))
	mux.Handle(SetVolumeProcedure, connect.NewUnaryHandler(SetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(ToggleShuffleProcedure, connect.NewUnaryHandler(ToggleShuffleProcedure, svc.ToggleShuffle, opts...))
	mux.Handle(ToggleRepeatProcedure, connect.NewUnaryHandler(ToggleRepeatProcedure, svc.ToggleRepeat, opts...))
	mux.Handle(GetLicenseOptionsProcedure, connect.NewUnaryHandler(GetLicenseOptionsProcedure, svc.GetLicenseOptions, opts...))
	mux.Handle(WatchProcedure, connect.NewServerStreamHandler(WatchProcedure, svc.Watch, opts...))

	return "/" + PlayerServiceName + "/", mux
}

// snapshotResponse turns a command outcome into a response. Dropped
// commands answer with the unchanged snapshot and a DroppedHeader.
func snapshotResponse(snap playback.Snapshot, err error) (*connect.Response[structpb.Struct], error) {
	reason, dropped := droppedReason(err)
	if err != nil && !dropped {
		return nil, toConnectError(err)
	}

	msg, err := SnapshotToStruct(snap)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := connect.NewResponse(msg)
	if dropped {
		resp.Header().Set(DroppedHeader, reason)
	}
	return resp, nil
}

// GetSnapshot returns the current playback snapshot.
func (s *PlayerService) GetSnapshot(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.Snapshot(ctx))
}

// GetQueue returns the active queue in play order.
func (s *PlayerService) GetQueue(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	tracks, err := s.player.Queue(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	msg, err := QueueToStruct(tracks)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// PlayTrack starts the track with the given id.
func (s *PlayerService) PlayTrack(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	id := strings.TrimSpace(req.Msg.GetValue())
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("track id is required"))
	}
	return snapshotResponse(s.player.PlayTrack(ctx, id))
}

// PlayIndex starts the track at a queue index.
func (s *PlayerService) PlayIndex(
	ctx context.Context,
	req *connect.Request[wrapperspb.Int32Value],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.PlayIndex(ctx, int(req.Msg.GetValue())))
}

// Toggle pauses or resumes the given track, starting it if it is not current.
func (s *PlayerService) Toggle(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	id := strings.TrimSpace(req.Msg.GetValue())
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("track id is required"))
	}
	return snapshotResponse(s.player.Toggle(ctx, id))
}

// ToggleCurrent pauses or resumes the current track.
func (s *PlayerService) ToggleCurrent(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.ToggleCurrent(ctx))
}

// Pause pauses playback.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.Pause(ctx))
}

// Resume resumes playback.
func (s *PlayerService) Resume(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.Resume(ctx))
}

// SkipNext advances to the next track.
func (s *PlayerService) SkipNext(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.SkipNext(ctx))
}

// SkipBack restarts the current track or goes back one.
func (s *PlayerService) SkipBack(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.SkipBack(ctx))
}

// Seek moves the playhead to the given number of seconds.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[wrapperspb.DoubleValue],
) (*connect.Response[structpb.Struct], error) {
	seconds := req.Msg.GetValue()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("seek position must be finite"))
	}
	return snapshotResponse(s.player.Seek(ctx, time.Duration(seconds*float64(time.Second))))
}

// SetVolume sets the output volume in [0,1].
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[wrapperspb.DoubleValue],
) (*connect.Response[structpb.Struct], error) {
	v := req.Msg.GetValue()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("volume must be finite"))
	}
	return snapshotResponse(s.player.SetVolume(ctx, v))
}

// ToggleShuffle switches between sequential and shuffled order.
func (s *PlayerService) ToggleShuffle(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.ToggleShuffle(ctx))
}

// ToggleRepeat flips the repeat mode.
func (s *PlayerService) ToggleRepeat(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return snapshotResponse(s.player.ToggleRepeat(ctx))
}

// GetLicenseOptions lists the license offers for a track. An empty id means
// the current track.
func (s *PlayerService) GetLicenseOptions(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	id := strings.TrimSpace(req.Msg.GetValue())
	if id == "" {
		snap, err := s.player.Snapshot(ctx)
		if err != nil {
			return nil, toConnectError(err)
		}
		if snap.Track == nil {
			return nil, toConnectError(playback.ErrNoTrack)
		}
		id = snap.Track.ID
	}

	tracks, err := s.player.Queue(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	i := indexOf(tracks, id)
	if i < 0 {
		return nil, toConnectError(errors.Wrapf(playback.ErrTrackNotFound, "track %s", id))
	}

	msg, err := LicenseOptionsToStruct(tracks[i], s.tiers)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// Watch streams snapshots as they are published. A slow watcher skips
// intermediate snapshots and always receives the latest.
func (s *PlayerService) Watch(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	subscriptionID, ch := s.watcher.Subscribe()
	defer s.watcher.Unsubscribe(subscriptionID)

	zlog.Debug().Msgf("connect: watch started: subscription=%s", subscriptionID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := SnapshotToStruct(n.Snapshot)
			if err != nil {
				return connect.NewError(connect.CodeInternal, err)
			}
			if err := stream.Send(msg); err != nil {
				zlog.Debug().Msgf("connect: watch ended: subscription=%s error=%v", subscriptionID, err)
				return nil
			}
		}
	}
}

func indexOf(tracks []track.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
