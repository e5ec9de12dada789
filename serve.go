package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"initiativehub/auth"
	"initiativehub/cache"
	"initiativehub/db"
	"initiativehub/jobs"
	"initiativehub/realtime"
	"initiativehub/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Migrates and seeds the database, then serves the REST API, the websocket
change feed on /ws and Prometheus metrics on /metrics.

The snapshot job runs on the configured cron schedule.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	conn, closeDB, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	authService := auth.NewService(cfg.Auth)
	admin, err := bootstrapAdmin(cfg, authService)
	if err != nil {
		return err
	}
	if err := db.Seed(conn, admin); err != nil {
		return err
	}

	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(cfg.Uploads.Dir, 0755); err != nil {
		return fmt.Errorf("create uploads directory: %w", err)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := realtime.NewHub(log.Named("realtime"))
	go hub.Run(ctx)

	sinks := []realtime.Sink{hub}
	if cfg.Kafka.Enabled() {
		sinks = append(sinks, realtime.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Named("kafka")))
		log.Info("kafka change feed enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}
	publisher := realtime.NewPublisher(log.Named("realtime"), sinks...)
	defer publisher.Close()

	handler := &routes.Handler{
		DB:        conn,
		Auth:      authService,
		Cache:     store,
		Publisher: publisher,
		Hub:       hub,
		Metrics:   routes.NewMetrics(hub, publisher),
		Log:       log.Named("http"),
		Config:    cfg,
	}
	app := routes.NewApp(handler)

	if cfg.Snapshots.Schedule != "" {
		job := jobs.NewSnapshotJob(conn, publisher, log.Named("snapshots"), cfg.Snapshots.Retention)
		scheduler, err := jobs.Schedule(cfg.Snapshots.Schedule, job)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
		log.Info("snapshot job scheduled", zap.String("schedule", cfg.Snapshots.Schedule))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTP.Addr)
	}()
	log.Info("server started", zap.String("addr", cfg.HTTP.Addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
