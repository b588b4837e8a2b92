package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/buffer"
	"github.com/hamed0406/uptimeengine/internal/config"
	"github.com/hamed0406/uptimeengine/internal/engine"
	"github.com/hamed0406/uptimeengine/internal/httpapi"
	apimw "github.com/hamed0406/uptimeengine/internal/httpapi/middleware"
	"github.com/hamed0406/uptimeengine/internal/logging"
	"github.com/hamed0406/uptimeengine/internal/maintenance"
	"github.com/hamed0406/uptimeengine/internal/notify"
	"github.com/hamed0406/uptimeengine/internal/probe"
	"github.com/hamed0406/uptimeengine/internal/repo"
	"github.com/hamed0406/uptimeengine/internal/repo/memory"
	"github.com/hamed0406/uptimeengine/internal/repo/postgres"
	"github.com/hamed0406/uptimeengine/internal/scheduler"
	"github.com/hamed0406/uptimeengine/internal/status"
)

var privilegedPing bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, write buffer and operator API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&privilegedPing, "privileged-ping", false, "use raw ICMP sockets for ping monitors")
	rootCmd.AddCommand(serveCmd)
}

// store is what both repo adapters provide.
type store interface {
	repo.MonitorStore
	repo.AlertStateStore
	repo.CheckStore
	repo.StatsStore
}

func openStore(ctx context.Context, log *zap.Logger) (store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("store_memory", zap.String("reason", "DATABASE_URL empty; data is lost on exit"))
		return memory.New(), func() {}, nil
	}
	pg, err := postgres.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	log.Info("store_postgres")
	return pg, pg.Close, nil
}

func openMaintenance(ctx context.Context, log *zap.Logger) (maintenance.Store, func(), error) {
	if cfg.RedisURL == "" {
		return maintenance.NewMemory(), func() {}, nil
	}
	r, err := maintenance.NewRedis(ctx, cfg.RedisURL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return r, func() { _ = r.Close() }, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel, Stdout: cfg.LogStdout})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}
	settings := config.NewStaticSettings(s)

	st, closeStore, err := openStore(ctx, log)
	if err != nil {
		return err
	}
	defer closeStore()
	maint, closeMaint, err := openMaintenance(ctx, log)
	if err != nil {
		return err
	}
	defer closeMaint()

	buf := buffer.New(st, cfg.FlushInterval, log.Named("buffer"))
	bus := status.NewBus()
	statusEngine := status.NewEngine(st, st, buf, bus, log.Named("status"))
	prober := probe.NewDefault(probe.Options{
		HTTPTimeout:   cfg.ProbeTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
		Settings:      settings,
		Privileged:    privilegedPing,
	})
	dispatcher := notify.NewDispatcher(settings, st, notify.DefaultSenders(settings), log.Named("notify"))
	pipeline := engine.NewPipeline(prober, statusEngine, dispatcher, log.Named("pipeline"))

	sched := scheduler.New(pipeline, scheduler.Options{
		Timeout:     cfg.TickTimeout(),
		Grace:       cfg.ShutdownGrace,
		StuckAfter:  cfg.StuckAfter,
		Maintenance: maint,
		Logger:      log.Named("scheduler"),
	})
	mgr := engine.NewManager(st, st, sched, settings, log.Named("manager"))

	if _, err := mgr.Bootstrap(ctx); err != nil {
		// partial failures were logged per monitor; keep the rest running
		log.Warn("bootstrap_incomplete", zap.Error(err))
	}

	events, unsubscribe := bus.Subscribe(64)
	defer unsubscribe()
	go logTransitions(log, events)

	buf.Start()
	sched.Start()

	api := httpapi.NewServer(log.Named("api"), mgr, st, sched, maint)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(
			apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
			cfg.AllowedOrigins,
			httpapi.Limits{PublicRPM: cfg.PublicRPM, PublicBurst: cfg.PublicBurst, AdminRPM: cfg.AdminRPM, AdminBurst: cfg.AdminBurst},
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown_signal")
	case err := <-serveErr:
		if err != nil {
			log.Error("api_error", zap.Error(err))
		}
	}
	return shutdown(log, srv, sched, buf)
}

// shutdown stops intake first, then ticks, then drains the buffer.
func shutdown(log *zap.Logger, srv *http.Server, sched *scheduler.Scheduler, buf *buffer.Buffer) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace+10*time.Second)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, srv.Shutdown(ctx))
	errs = multierr.Append(errs, sched.Stop(ctx))
	errs = multierr.Append(errs, buf.Stop(ctx))
	if errs != nil {
		log.Error("shutdown_incomplete", zap.Error(errs))
	} else {
		log.Info("shutdown_complete")
	}
	return errs
}

func logTransitions(log *zap.Logger, events <-chan status.Event) {
	for e := range events {
		log.Info("status_transition",
			zap.String("monitor_id", string(e.MonitorID)),
			zap.String("name", e.Name),
			zap.String("from", e.From.String()),
			zap.String("to", e.To.String()),
			zap.Time("at", e.At))
	}
}
