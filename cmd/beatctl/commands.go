package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	apiconnect "github.com/beatdeck/beatdeck/internal/api/connect"
)

// errQuit ends an interactive session.
var errQuit = errors.New("quit")

// player is the remote control surface used by every front end.
type player interface {
	Snapshot(ctx context.Context) (apiconnect.SnapshotView, error)
	Queue(ctx context.Context) ([]apiconnect.TrackView, error)
	PlayTrack(ctx context.Context, id string) (apiconnect.Result, error)
	PlayIndex(ctx context.Context, i int) (apiconnect.Result, error)
	Toggle(ctx context.Context, id string) (apiconnect.Result, error)
	ToggleCurrent(ctx context.Context) (apiconnect.Result, error)
	Pause(ctx context.Context) (apiconnect.Result, error)
	Resume(ctx context.Context) (apiconnect.Result, error)
	SkipNext(ctx context.Context) (apiconnect.Result, error)
	SkipBack(ctx context.Context) (apiconnect.Result, error)
	Seek(ctx context.Context, pos time.Duration) (apiconnect.Result, error)
	SetVolume(ctx context.Context, v float64) (apiconnect.Result, error)
	ToggleShuffle(ctx context.Context) (apiconnect.Result, error)
	ToggleRepeat(ctx context.Context) (apiconnect.Result, error)
	LicenseOptions(ctx context.Context, id string) (apiconnect.LicenseOptionsView, error)
	Watch(ctx context.Context, fn func(apiconnect.SnapshotView)) error
}

// commandNames lists the commands understood by execute, for completion.
var commandNames = []string{
	"status", "queue", "play", "index", "toggle", "pause", "resume",
	"next", "back", "seek", "volume", "shuffle", "repeat", "license",
	"help", "quit",
}

const usage = `Commands:
  status            Show the current track and state
  queue             List the queue in play order
  play <track-id>   Play a track
  index <n>         Play the n-th queue entry (1-based)
  toggle [track-id] Play or pause a track, or the current one
  pause | resume    Pause or resume playback
  next | back       Skip forward or back
  seek <seconds>    Move the playhead
  volume <0-100>    Set the volume in percent
  shuffle | repeat  Toggle shuffle or repeat
  license [id]      Show license options
  quit              Leave the shell`

// execute runs one command line against p and prints the outcome to w.
func execute(ctx context.Context, p player, args []string, w io.Writer) error {
	if len(args) == 0 {
		return nil
	}

	var (
		res apiconnect.Result
		err error
	)

	switch cmd := strings.ToLower(args[0]); cmd {
	case "status":
		res.Snapshot, err = p.Snapshot(ctx)
	case "queue":
		return printQueue(ctx, p, w)
	case "play":
		if len(args) < 2 {
			return errors.New("usage: play <track-id>")
		}
		res, err = p.PlayTrack(ctx, args[1])
	case "index":
		if len(args) < 2 {
			return errors.New("usage: index <n>")
		}
		n, perr := strconv.Atoi(args[1])
		if perr != nil {
			return errors.Newf("invalid index %q", args[1])
		}
		res, err = p.PlayIndex(ctx, n-1)
	case "toggle":
		if len(args) > 1 {
			res, err = p.Toggle(ctx, args[1])
		} else {
			res, err = p.ToggleCurrent(ctx)
		}
	case "pause":
		res, err = p.Pause(ctx)
	case "resume":
		res, err = p.Resume(ctx)
	case "next":
		res, err = p.SkipNext(ctx)
	case "back":
		res, err = p.SkipBack(ctx)
	case "seek":
		if len(args) < 2 {
			return errors.New("usage: seek <seconds>")
		}
		secs, perr := strconv.ParseFloat(args[1], 64)
		if perr != nil {
			return errors.Newf("invalid position %q", args[1])
		}
		res, err = p.Seek(ctx, time.Duration(secs*float64(time.Second)))
	case "volume":
		if len(args) < 2 {
			return errors.New("usage: volume <0-100>")
		}
		pct, perr := strconv.ParseFloat(args[1], 64)
		if perr != nil {
			return errors.Newf("invalid volume %q", args[1])
		}
		res, err = p.SetVolume(ctx, pct/100)
	case "shuffle":
		res, err = p.ToggleShuffle(ctx)
	case "repeat":
		res, err = p.ToggleRepeat(ctx)
	case "license":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		return printLicense(ctx, p, id, w)
	case "help", "?":
		fmt.Fprintln(w, usage)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return errors.Newf("unknown command %q (try help)", cmd)
	}

	if err != nil {
		return err
	}
	printSnapshot(w, res.Snapshot)
	if res.Dropped != "" {
		fmt.Fprintf(w, "  (ignored: %s)\n", res.Dropped)
	}
	return nil
}

func printSnapshot(w io.Writer, s apiconnect.SnapshotView) {
	if s.Track == nil {
		fmt.Fprintf(w, "%s | nothing selected | vol %d%%\n", s.State, int(s.Volume*100+0.5))
		return
	}
	fmt.Fprintf(w, "%s | %s - %s [%d/%d] %s / %s | vol %d%% | shuffle %s | repeat %s\n",
		s.State, s.Track.Artist, s.Track.Title, s.Position+1, s.QueueLength,
		formatClock(s.Elapsed()), formatClock(s.Total()),
		int(s.Volume*100+0.5), onOff(s.Shuffle), s.Repeat)
}

func printQueue(ctx context.Context, p player, w io.Writer) error {
	tracks, err := p.Queue(ctx)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Fprintln(w, "Queue is empty")
		return nil
	}
	for i, t := range tracks {
		fmt.Fprintf(w, "%3d. %-36s %-20s %-8s %3d BPM  $%.2f  (%s)\n",
			i+1, t.Title, t.Artist, t.Genre, t.BPM, t.Price, t.ID)
	}
	return nil
}

func printLicense(ctx context.Context, p player, id string, w io.Writer) error {
	opts, err := p.LicenseOptions(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "License options for %s (from $%.2f):\n", opts.TrackID, opts.StartingPrice)
	for _, o := range opts.Offers {
		price := fmt.Sprintf("$%.2f", o.Price)
		if o.Negotiated {
			price = "negotiable"
		}
		fmt.Fprintf(w, "  %-22s %-12s %s\n", o.Tier, price, o.Terms)
	}
	return nil
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
