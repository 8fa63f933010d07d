package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/star/debrisview/internal/api"
	"github.com/star/debrisview/internal/camera"
	"github.com/star/debrisview/internal/config"
	"github.com/star/debrisview/internal/debris"
	"github.com/star/debrisview/internal/simclock"
	"github.com/star/debrisview/internal/stream"
	"github.com/star/debrisview/internal/tle"
	"github.com/star/debrisview/internal/viewer"
	"golang.org/x/term"
)

// defaultLogFile receives logs when stderr is the terminal the viewer draws on.
const defaultLogFile = "debrisview.log"

var configPath = flag.String("config", "", "config file (overrides DEBRIS_CONFIG)")

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() (code int) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debrisview: %v\n", err)
		return 1
	}

	logPath := logDestination(cfg.LogFile, term.IsTerminal(int(os.Stderr.Fd())))
	logOut, closeLog, err := openLog(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "debrisview: %v\n", err)
		return 1
	}
	defer closeLog()
	if logPath != "" {
		defer func() {
			if code != 0 {
				fmt.Fprintf(os.Stderr, "debrisview: failed, see %s\n", logPath)
			}
		}()
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger.Info("config loaded", "config", cfg)

	elements, err := tle.LoadFile(cfg.TLEPath, logger)
	if err != nil {
		logger.Error("failed to load element records", "path", cfg.TLEPath, "error", err)
		return 1
	}
	epochs := tle.Range(elements)
	logger.Info("element records loaded",
		"count", len(elements),
		"epoch_min", epochs.Min.Format(time.RFC3339),
		"epoch_max", epochs.Max.Format(time.RFC3339),
	)

	field, err := debris.Build(elements, cfg.Field, logger)
	if err != nil {
		logger.Error("failed to initialize propagators", "error", err)
		return 1
	}

	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	clock, err := simclock.New(start, cfg.TimeScale)
	if err != nil {
		logger.Error("invalid clock", "error", err)
		return 1
	}

	settings := cfg.Camera
	rig := camera.NewRig(camera.Default(), &settings)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *debris.Store
	if cfg.MetricsAddr != "" {
		store = debris.NewStore()
		srv := api.NewServer(cfg.MetricsAddr, logger, store, stream.NewHandler(store, cfg.Stream, logger))
		go func() {
			logger.Info("starting server", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server listen error", "error", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", "error", err)
			}
		}()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Error("failed to open terminal", "error", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		logger.Error("failed to initialize terminal", "error", err)
		return 1
	}

	// Restore the terminal before reporting a crash.
	defer func() {
		r := recover()
		screen.Fini()
		if r != nil {
			logger.Error("viewer crashed", "panic", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "debrisview crashed: %v\n", r)
			code = 1
		}
	}()

	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	screen.HideCursor()

	v := viewer.New(clock, field, rig, &settings, store, cfg.Viewer, logger)
	if err := v.Run(ctx, screen); err != nil {
		logger.Error("viewer error", "error", err)
		return 1
	}
	return 0
}

// logDestination picks the log file. An empty result means stderr, which is
// only used when stderr is not the viewer's terminal.
func logDestination(configured string, stderrIsTerminal bool) string {
	if configured == "" && stderrIsTerminal {
		return defaultLogFile
	}
	return configured
}

// openLog returns stderr, or the named file opened for append.
func openLog(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, f.Close, nil
}
