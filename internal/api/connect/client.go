package connect

import (
	"context"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Result is the outcome of a playback command.
type Result struct {
	Snapshot SnapshotView
	// Dropped is set when the command was ignored, e.g. "cooldown".
	Dropped string
}

// Client is a typed client for PlayerService.
type Client struct {
	getSnapshot       *connect.Client[emptypb.Empty, structpb.Struct]
	getQueue          *connect.Client[emptypb.Empty, structpb.Struct]
	playTrack         *connect.Client[wrapperspb.StringValue, structpb.Struct]
	playIndex         *connect.Client[wrapperspb.Int32Value, structpb.Struct]
	toggle            *connect.Client[wrapperspb.StringValue, structpb.Struct]
	toggleCurrent     *connect.Client[emptypb.Empty, structpb.Struct]
	pause             *connect.Client[emptypb.Empty, structpb.Struct]
	resume            *connect.Client[emptypb.Empty, structpb.Struct]
	skipNext          *connect.Client[emptypb.Empty, structpb.Struct]
	skipBack          *connect.Client[emptypb.Empty, structpb.Struct]
	seek              *connect.Client[wrapperspb.DoubleValue, structpb.Struct]
	setVolume         *connect.Client[wrapperspb.DoubleValue, structpb.Struct]
	toggleShuffle     *connect.Client[emptypb.Empty, structpb.Struct]
	toggleRepeat      *connect.Client[emptypb.Empty, structpb.Struct]
	getLicenseOptions *connect.Client[wrapperspb.StringValue, structpb.Struct]
	watch             *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient creates a PlayerService client. A non-empty token is sent with
// every call.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithInterceptors(NewTokenInterceptor(token))}, opts...)

	return &Client{
		getSnapshot:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetSnapshotProcedure, opts...),
		getQueue:          connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetQueueProcedure, opts...),
		playTrack:         connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+PlayTrackProcedure, opts...),
		playIndex:         connect.NewClient[wrapperspb.Int32Value, structpb.Struct](httpClient, baseURL+PlayIndexProcedure, opts...),
		toggle:            connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+ToggleProcedure, opts...),
		toggleCurrent:     connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ToggleCurrentProcedure, opts...),
		pause:             connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+PauseProcedure, opts...),
		resume:            connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ResumeProcedure, opts...),
		skipNext:          connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SkipNextProcedure, opts...),
		skipBack:          connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SkipBackProcedure, opts...),
		seek:              connect.NewClient[wrapperspb.DoubleValue, structpb.Struct](httpClient, baseURL+SeekProcedure, opts...),
		setVolume:         connect.NewClient[wrapperspb.DoubleValue, structpb.Struct](httpClient, baseURL+SetVolumeProcedure, opts...),
		toggleShuffle:     connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ToggleShuffleProcedure, opts...),
		toggleRepeat:      connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+ToggleRepeatProcedure, opts...),
		getLicenseOptions: connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+GetLicenseOptionsProcedure, opts...),
		watch:             connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+WatchProcedure, opts...),
	}
}

func call[Req any](ctx context.Context, c *connect.Client[Req, structpb.Struct], msg *Req) (Result, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return Result{}, err
	}
	snap, err := SnapshotFromStruct(resp.Msg)
	if err != nil {
		return Result{}, err
	}
	return Result{Snapshot: snap, Dropped: resp.Header().Get(DroppedHeader)}, nil
}

// Snapshot returns the current snapshot.
func (c *Client) Snapshot(ctx context.Context) (SnapshotView, error) {
	res, err := call(ctx, c.getSnapshot, &emptypb.Empty{})
	return res.Snapshot, err
}

// Queue returns the active queue.
func (c *Client) Queue(ctx context.Context) ([]TrackView, error) {
	resp, err := c.getQueue.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	var out struct {
		Tracks []TrackView `mapstructure:"tracks"`
	}
	if err := decodeStruct(resp.Msg, &out); err != nil {
		return nil, err
	}
	return out.Tracks, nil
}

func (c *Client) PlayTrack(ctx context.Context, id string) (Result, error) {
	return call(ctx, c.playTrack, wrapperspb.String(id))
}

func (c *Client) PlayIndex(ctx context.Context, i int) (Result, error) {
	return call(ctx, c.playIndex, wrapperspb.Int32(int32(i)))
}

func (c *Client) Toggle(ctx context.Context, id string) (Result, error) {
	return call(ctx, c.toggle, wrapperspb.String(id))
}

func (c *Client) ToggleCurrent(ctx context.Context) (Result, error) {
	return call(ctx, c.toggleCurrent, &emptypb.Empty{})
}

func (c *Client) Pause(ctx context.Context) (Result, error) {
	return call(ctx, c.pause, &emptypb.Empty{})
}

func (c *Client) Resume(ctx context.Context) (Result, error) {
	return call(ctx, c.resume, &emptypb.Empty{})
}

func (c *Client) SkipNext(ctx context.Context) (Result, error) {
	return call(ctx, c.skipNext, &emptypb.Empty{})
}

func (c *Client) SkipBack(ctx context.Context) (Result, error) {
	return call(ctx, c.skipBack, &emptypb.Empty{})
}

func (c *Client) Seek(ctx context.Context, pos time.Duration) (Result, error) {
	return call(ctx, c.seek, wrapperspb.Double(pos.Seconds()))
}

func (c *Client) SetVolume(ctx context.Context, v float64) (Result, error) {
	return call(ctx, c.setVolume, wrapperspb.Double(v))
}

func (c *Client) ToggleShuffle(ctx context.Context) (Result, error) {
	return call(ctx, c.toggleShuffle, &emptypb.Empty{})
}

func (c *Client) ToggleRepeat(ctx context.Context) (Result, error) {
	return call(ctx, c.toggleRepeat, &emptypb.Empty{})
}

// LicenseOptions returns the offers for a track, or the current track when
// id is empty.
func (c *Client) LicenseOptions(ctx context.Context, id string) (LicenseOptionsView, error) {
	var out LicenseOptionsView
	resp, err := c.getLicenseOptions.CallUnary(ctx, connect.NewRequest(wrapperspb.String(id)))
	if err != nil {
		return out, err
	}
	err = decodeStruct(resp.Msg, &out)
	return out, err
}

// Watch calls fn for every published snapshot until ctx is done or the
// server ends the stream.
func (c *Client) Watch(ctx context.Context, fn func(SnapshotView)) error {
	stream, err := c.watch.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		snap, err := SnapshotFromStruct(stream.Msg())
		if err != nil {
			return err
		}
		fn(snap)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
