// Package main provides the beatdeck remote control client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	apiconnect "github.com/beatdeck/beatdeck/internal/api/connect"
	"github.com/beatdeck/beatdeck/internal/infra/logger"
)

var (
	app     = kingpin.New("beatctl", "beatdeck playback remote control")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("BEATDECK_SERVER").String()
	token   = app.Flag("token", "Control token (or set CONTROL_TOKEN env)").Envar("CONTROL_TOKEN").String()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile = app.Flag("logfile", "Path to log file (default: stderr)").String()

	statusCmd = app.Command("status", "Show the current track and state")
	queueCmd  = app.Command("queue", "List the queue in play order")

	playCmd   = app.Command("play", "Play a track")
	playTrack = playCmd.Arg("track-id", "Track ID").Required().String()

	indexCmd = app.Command("index", "Play the n-th queue entry (1-based)")
	indexArg = indexCmd.Arg("n", "Queue position").Required().Int()

	toggleCmd   = app.Command("toggle", "Play or pause a track, or the current one")
	toggleTrack = toggleCmd.Arg("track-id", "Track ID (optional)").String()

	pauseCmd   = app.Command("pause", "Pause playback")
	resumeCmd  = app.Command("resume", "Resume playback")
	nextCmd    = app.Command("next", "Skip to the next track")
	backCmd    = app.Command("back", "Restart the track or go back one")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle")
	repeatCmd  = app.Command("repeat", "Toggle repeat")

	seekCmd = app.Command("seek", "Move the playhead")
	seekArg = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	volumeCmd = app.Command("volume", "Set the volume")
	volumeArg = volumeCmd.Arg("percent", "Volume in percent (0-100)").Required().Float64()

	licenseCmd   = app.Command("license", "Show license options for a track")
	licenseTrack = licenseCmd.Arg("track-id", "Track ID (default: current track)").String()

	watchCmd = app.Command("watch", "Print snapshots as they change")
	shellCmd = app.Command("shell", "Interactive command shell")
	tuiCmd   = app.Command("tui", "Full-screen player").Default()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "warn",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case watchCmd.FullCommand():
		err = watch(ctx, client)
	case shellCmd.FullCommand():
		err = runShell(ctx, client)
	case tuiCmd.FullCommand():
		err = runTUI(ctx, client)
	default:
		err = execute(ctx, client, oneShotArgs(command), os.Stdout)
	}

	if err != nil {
		zlog.Debug().Err(err).Msgf("beatctl: command %s failed", command)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}

// oneShotArgs turns a parsed kingpin command into an execute command line.
func oneShotArgs(command string) []string {
	switch command {
	case statusCmd.FullCommand():
		return []string{"status"}
	case queueCmd.FullCommand():
		return []string{"queue"}
	case playCmd.FullCommand():
		return []string{"play", *playTrack}
	case indexCmd.FullCommand():
		return []string{"index", strconv.Itoa(*indexArg)}
	case toggleCmd.FullCommand():
		if *toggleTrack != "" {
			return []string{"toggle", *toggleTrack}
		}
		return []string{"toggle"}
	case pauseCmd.FullCommand():
		return []string{"pause"}
	case resumeCmd.FullCommand():
		return []string{"resume"}
	case nextCmd.FullCommand():
		return []string{"next"}
	case backCmd.FullCommand():
		return []string{"back"}
	case shuffleCmd.FullCommand():
		return []string{"shuffle"}
	case repeatCmd.FullCommand():
		return []string{"repeat"}
	case seekCmd.FullCommand():
		return []string{"seek", strconv.FormatFloat(*seekArg, 'f', -1, 64)}
	case volumeCmd.FullCommand():
		return []string{"volume", strconv.FormatFloat(*volumeArg, 'f', -1, 64)}
	case licenseCmd.FullCommand():
		return []string{"license", *licenseTrack}
	default:
		return nil
	}
}

func watch(ctx context.Context, p player) error {
	fmt.Println("Watching playback. Press Ctrl+C to exit.")

	var last apiconnect.SnapshotView
	first := true
	return p.Watch(ctx, func(s apiconnect.SnapshotView) {
		// Time updates arrive every frame; print only on discrete changes.
		if !first && sameTrackState(last, s) {
			last = s
			return
		}
		first = false
		last = s
		printSnapshot(os.Stdout, s)
	})
}

func sameTrackState(a, b apiconnect.SnapshotView) bool {
	idA, idB := "", ""
	if a.Track != nil {
		idA = a.Track.ID
	}
	if b.Track != nil {
		idB = b.Track.ID
	}
	return idA == idB && a.State == b.State && a.Volume == b.Volume &&
		a.Shuffle == b.Shuffle && a.Repeat == b.Repeat
}
