package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/realgarit/shinytrack/internal/api"
	"github.com/realgarit/shinytrack/internal/config"
	"github.com/realgarit/shinytrack/internal/handoff"
	"github.com/realgarit/shinytrack/internal/stats"
	"github.com/realgarit/shinytrack/internal/stream"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config file")
	profileDir := flag.String("profile", "", "Profile directory (overrides config)")
	listenAddr := flag.String("listen", "", "API listen address (overrides config)")
	logEncounters := flag.Bool("log-encounters", false, "Persist every encounter, not just ones of interest")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("shinytrack %s (%s)\n", version, commit)
		os.Exit(0)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		printError("failed to load config", err, configLoadFix(*configPath))
	}

	// CLI overrides
	if *profileDir != "" {
		cfg.Profile.Dir = *profileDir
	}
	if *listenAddr != "" {
		cfg.API.Listen = *listenAddr
	}
	if *logEncounters {
		cfg.Logging.LogEncounters = true
	}

	if cfg.Profile.Dir == "" {
		printError("no profile selected",
			errors.New("profile.dir is empty"),
			"Pass -profile <dir> or set profile.dir in the config file.")
	}

	// Setup logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Profile.Dir, 0o700); err != nil {
		printError("failed to create profile directory", err, dbPathFix(cfg.DBPath()))
	}

	// Open the stats engine; migrates the schema and imports flat-file stats
	// from older profiles on first run.
	engine, err := stats.Open(stats.Options{
		DBPath:              cfg.DBPath(),
		LegacyStatsDir:      cfg.LegacyStatsDir(),
		LogAllEncounters:    cfg.Logging.LogEncounters,
		EncounterBufferSize: cfg.Stats.EncounterBufferSize,
		Logger:              logger,
	})
	if err != nil {
		switch {
		case errors.Is(err, stats.ErrSchemaTooNew):
			printError("stats database is too new", err, schemaTooNewFix(cfg.DBPath()))
		case errors.Is(err, stats.ErrStoreLocked):
			printError("stats database is locked", err, dbLockedFix(cfg.DBPath()))
		default:
			printError("failed to open stats database", err, dbPathFix(cfg.DBPath()))
		}
	}
	defer engine.Close()
	slog.Info("stats database opened", "path", cfg.DBPath())

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Read handoff between API request goroutines and the engine loop.
	reads := handoff.New(time.Duration(cfg.API.HandoffTimeoutMs)*time.Millisecond, 64, logger)
	defer reads.Close()
	go reads.Run()

	// WebSocket hub pushing live encounters to dashboards.
	hub := stream.NewHub(logger)
	go hub.Run(ctx)
	engine.OnEncounter(hub.BroadcastEncounter)

	server := &http.Server{
		Addr:    cfg.API.Listen,
		Handler: api.NewServer(engine, reads, hub, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("starting shinytrack",
		"listen", cfg.API.Listen,
		"profile", cfg.Profile.Dir,
	)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  API:     http://%s\n", cfg.API.Listen)
	fmt.Fprintf(os.Stderr, "  Stream:  ws://%s/stream\n", cfg.API.Listen)
	fmt.Fprintf(os.Stderr, "  DB:      %s\n", cfg.DBPath())
	fmt.Fprintf(os.Stderr, "\n")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if isPortInUse(err) {
			printError("failed to bind API listener", err, portInUseFix(cfg.API.Listen))
		}
		slog.Error("api server error", "error", err)
		os.Exit(1)
	}

	slog.Info("shinytrack shutdown complete")
}

// logLevel maps the config level string to a slog level, defaulting to info.
func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
