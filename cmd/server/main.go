// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/beatdeck/beatdeck/internal/api/connect"
	"github.com/beatdeck/beatdeck/internal/app/catalog"
	"github.com/beatdeck/beatdeck/internal/app/notification"
	"github.com/beatdeck/beatdeck/internal/app/playback"
	"github.com/beatdeck/beatdeck/internal/app/queue"
	"github.com/beatdeck/beatdeck/internal/domain/track"
	"github.com/beatdeck/beatdeck/internal/infra/audio"
	"github.com/beatdeck/beatdeck/internal/infra/config"
	"github.com/beatdeck/beatdeck/internal/infra/lastfm"
	"github.com/beatdeck/beatdeck/internal/infra/logger"
	"github.com/beatdeck/beatdeck/internal/infra/mysql"
	"github.com/beatdeck/beatdeck/internal/infra/objectstore"
	"github.com/beatdeck/beatdeck/internal/infra/spotify"
)

var (
	app        = kingpin.New("beatdeck-server", "beatdeck playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// catalog command
	catalogCmd = app.Command("catalog", "Load the catalog once, print it and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
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

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == catalogCmd.FullCommand() {
		err = printCatalog(cfg)
	} else {
		err = run(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// services holds the external clients built from configuration.
type services struct {
	deps    catalog.Dependencies
	closers []io.Closer
}

func (s *services) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			zlog.Warn().Msgf("Failed to close service: %v", err)
		}
	}
}

// newServices creates only the clients the configuration asks for.
func newServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{}

	if cfg.HasProvider(config.ProviderTypeSpotify) {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		s.deps.Spotify = client
	}

	if cfg.HasProvider(config.ProviderTypeMySQL) {
		store, err := mysql.Open(cfg.MySQL.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open beat database")
		}
		s.deps.Beats = store
		s.closers = append(s.closers, store)
	}

	if cfg.StorageEnabled() {
		presigner, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Region:    cfg.Storage.Region,
			Insecure:  cfg.Storage.Insecure,
		})
		if err != nil {
			s.Close()
			return nil, errors.Wrap(err, "failed to create object storage presigner")
		}
		s.deps.Presigner = presigner
	}

	if cfg.LastFM.APIKey != "" {
		client, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey})
		if err != nil {
			s.Close()
			return nil, errors.Wrap(err, "failed to create Last.fm client")
		}
		s.deps.Tags = client
	} else {
		zlog.Info().Msg("Last.fm not configured, genre enrichment disabled")
	}

	return s, nil
}

// newOutput creates the configured audio output.
func newOutput(cfg *config.Config, stop <-chan struct{}) (audio.Output, error) {
	sr := beep.SampleRate(cfg.Audio.SampleRate)
	buffer := time.Duration(cfg.Audio.BufferMs) * time.Millisecond

	switch cfg.Audio.Output {
	case "null":
		out := audio.NewNullOutput(sr)
		go out.Run(buffer, stop)
		return out, nil
	default:
		return audio.NewSpeakerOutput(sr, buffer)
	}
}

func playbackConfig(cfg *config.Config) playback.Config {
	return playback.Config{
		SkipCooldown:     time.Duration(cfg.Playback.SkipCooldownMs) * time.Millisecond,
		ShuffleCooldown:  time.Duration(cfg.Playback.ShuffleCooldownMs) * time.Millisecond,
		RestartThreshold: time.Duration(cfg.Playback.RestartThresholdMs) * time.Millisecond,
		InitialVolume:    cfg.Playback.InitialVolume,
		FrameInterval:    time.Duration(cfg.Playback.FrameIntervalMs) * time.Millisecond,
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcs, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	chain, err := catalog.NewChainFromConfig(cfg, svcs.deps)
	if err != nil {
		return errors.Wrap(err, "failed to create catalog chain")
	}

	// Audio engine
	stopAudio := make(chan struct{})
	defer close(stopAudio)
	out, err := newOutput(cfg, stopAudio)
	if err != nil {
		return errors.Wrap(err, "failed to open audio output")
	}
	opener := audio.NewOpener(&http.Client{
		Timeout: time.Duration(cfg.Audio.HTTPTimeoutSec) * time.Second,
	})
	engine := audio.NewEngine(out, opener,
		audio.WithUpdateInterval(time.Duration(cfg.Audio.TimeUpdateIntervalMs)*time.Millisecond))
	defer engine.Close()

	// Playback controller
	notifier := notification.NewManager()
	controller := playback.NewController(playbackConfig(cfg), engine, queue.New(), notifier)
	controllerErrCh := make(chan error, 1)
	go func() {
		controllerErrCh <- controller.Run(ctx)
	}()

	// Catalog refresh
	refresher := catalog.NewRefresher(chain, func(ctx context.Context, tracks []track.Track) error {
		_, err := controller.ReplaceQueue(ctx, tracks)
		return err
	}, cfg.RefreshInterval())
	go refresher.Run(ctx)

	// RPC service
	playerService := apiconnect.NewPlayerService(controller, notifier, nil)
	if cfg.Control.Token == "" {
		zlog.Warn().Msg("Control token not configured, the control API is open")
	}
	path, handler := apiconnect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(cfg.Control.Token)),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-controllerErrCh:
		runErr = errors.Wrap(err, "playback controller stopped")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "server error")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Close watchers first to terminate active streams
	notifier.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	cancel()
	<-controller.Done()

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// printCatalog loads the catalog once and prints the active tracks.
func printCatalog(cfg *config.Config) error {
	ctx := context.Background()

	svcs, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	chain, err := catalog.NewChainFromConfig(cfg, svcs.deps)
	if err != nil {
		return errors.Wrap(err, "failed to create catalog chain")
	}

	tracks, err := chain.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog (%d tracks):\n", len(tracks))
	for i, t := range tracks {
		fmt.Printf("  %3d. %-40s %-24s %-10s %3d BPM  $%.2f\n",
			i+1, t.DisplayTitle(), t.DisplayArtist(), t.Genre, t.BPM, t.DisplayPrice())
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
