package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/fantaledger/internal/adapters/biwenger"
	"github.com/okian/fantaledger/internal/adapters/http/api"
	"github.com/okian/fantaledger/internal/adapters/http/site"
	"github.com/okian/fantaledger/internal/adapters/http/swagger"
	"github.com/okian/fantaledger/internal/adapters/recorder"
	"github.com/okian/fantaledger/internal/adapters/storage"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/config"
	"github.com/okian/fantaledger/internal/export"
	"github.com/okian/fantaledger/internal/scheduler"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 60 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "fantaledger stopped with error", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// application is the wired process: the HTTP handler plus the components
// that need an orderly shutdown.
type application struct {
	handler   http.Handler
	service   *service.Service
	scheduler *scheduler.Scheduler
}

// stop shuts the scheduler down before the service so no snapshot runs
// against a closed recorder.
func (a *application) stop() {
	a.scheduler.Stop()
	a.service.Stop()
}

// GetStats merges service and scheduler statistics for /stats.
func (a *application) GetStats() map[string]interface{} {
	stats := a.service.GetStats()
	stats["scheduler"] = a.scheduler.GetStats()
	return stats
}

// build wires every component from cfg and starts the service and scheduler.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	client := biwenger.New(
		biwenger.WithTimeout(cfg.RequestTimeout()),
		biwenger.WithLoginURL(cfg.LoginURL),
		biwenger.WithLeagueURL(cfg.LeagueURL),
		biwenger.WithPlayersURL(cfg.PlayersURL),
		biwenger.WithMarketURL(cfg.MarketURL),
		biwenger.WithLeague(cfg.LeagueID, cfg.UserID),
		biwenger.WithLogger(log.Named("biwenger")),
	)

	rec, history, err := openRecorder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		_ = rec.Close()
		return nil, err
	}
	svc := service.New(append(opts,
		service.WithSource(client),
		service.WithRecorder(rec),
		service.WithLogger(log.Named("service")),
	)...)
	if err := svc.Start(ctx); err != nil {
		_ = rec.Close()
		return nil, fmt.Errorf("starting service: %w", err)
	}

	schedOpts := []scheduler.Option{
		scheduler.WithSpec(cfg.RefreshCron),
		scheduler.WithLogger(log.Named("scheduler")),
	}
	exporter, err := newExporter(ctx, cfg, log)
	if err != nil {
		svc.Stop()
		return nil, err
	}
	if exporter != nil {
		schedOpts = append(schedOpts, scheduler.WithHook(exporter.Hook))
	}
	sched := scheduler.New(svc, schedOpts...)
	if err := sched.Start(ctx); err != nil {
		svc.Stop()
		return nil, fmt.Errorf("starting scheduler: %w", err)
	}

	app := &application{service: svc, scheduler: sched}

	r := chi.NewRouter()
	api.NewServer(svc, app,
		api.WithMaxTopN(cfg.MaxTopN),
		api.WithHistory(history),
		api.WithLogger(log.Named("http")),
	).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	app.handler = r

	log.Info(ctx, "fantaledger wired",
		logger.String("league", cfg.LeagueID),
		logger.String("email", cfg.Email),
		logger.String("password", cfg.MaskedPassword()),
		logger.Bool("recorder", cfg.SQLitePath != ""),
		logger.Bool("scheduler", sched.Enabled()),
		logger.Bool("export", exporter != nil),
	)
	return app, nil
}

// openRecorder returns the snapshot recorder and its history view. Without a
// sqlite path snapshots are discarded.
func openRecorder(ctx context.Context, cfg *config.Config, log logger.Logger) (recorder.Recorder, api.History, error) {
	if cfg.SQLitePath == "" {
		return recorder.NoopRecorder{}, recorder.NoopRecorder{}, nil
	}
	rec, err := recorder.NewSQLiteRecorder(ctx, cfg.SQLitePath, log.Named("recorder"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening recorder: %w", err)
	}
	return rec, rec, nil
}

// newExporter returns nil when no export bucket is configured.
func newExporter(ctx context.Context, cfg *config.Config, log logger.Logger) (*export.Exporter, error) {
	if cfg.ExportBucket == "" {
		return nil, nil
	}
	format, err := export.ParseFormat(cfg.ExportFormat)
	if err != nil {
		return nil, err
	}
	uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
		Bucket:          cfg.ExportBucket,
		Endpoint:        cfg.ExportEndpoint,
		Region:          cfg.ExportRegion,
		AccessKeyID:     cfg.ExportAccessKeyID,
		SecretAccessKey: cfg.ExportSecretAccessKey,
		PublicBaseURL:   cfg.ExportPublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return export.New(
		export.WithFormat(format),
		export.WithPrefix(cfg.ExportPrefix),
		export.WithUploader(uploader),
		export.WithLogger(log.Named("export")),
	), nil
}

// run serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
