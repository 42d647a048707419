package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron"

	"gagyebu/internal/amqp"
	"gagyebu/internal/backend"
	"gagyebu/internal/cli"
	"gagyebu/internal/ledger"
	"gagyebu/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting gagyebu-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	snapshots := cli.InitSnapshots(logger, cfg.SQLiteDBPath)
	defer snapshots.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateSource(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create spreadsheet source", "error", err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Source cleanup failed", "error", err)
			}
		}()
	}

	store := ledger.NewStore(result.Source, snapshots, ledger.Config{
		RowRange:        cfg.RowRange,
		BudgetCell:      cfg.BudgetCell,
		DetailRange:     cfg.DetailRange,
		RequestInterval: cfg.RequestInterval,
	})

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store.WarmStart(startCtx)
	if err := store.Initialize(startCtx, time.Now()); err != nil {
		logger.Error("Store initialization failed", "error", err)
		startCancel()
		os.Exit(1)
	}
	startCancel()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(amqpClient, result.Source, store)
	go func() {
		if err := syncWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Mutation consumption failed", "error", err)
			cancel()
		}
	}()

	// Full sweep on startup so a fresh worker has every partition cached,
	// then on the configured schedule.
	refreshAll := func() {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, 30*time.Minute)
		defer sweepCancel()
		if err := store.RefreshAll(sweepCtx); err != nil {
			logger.Error("Scheduled refresh failed", "error", err)
		}
	}
	go refreshAll()

	c := cron.New()
	if err := c.AddFunc(cfg.RefreshCron, refreshAll); err != nil {
		logger.Error("Invalid refresh cron expression", "error", err, "cron", cfg.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	logger.Info("Scheduled partition refresh", "cron", cfg.RefreshCron)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		c.Stop()
		cancel()
	})

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
