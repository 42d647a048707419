package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"gagyebu/internal/amqp"
	"gagyebu/internal/backend"
	"gagyebu/internal/classify"
	"gagyebu/internal/cli"
	apphttp "gagyebu/internal/http"
	"gagyebu/internal/ledger"
	"gagyebu/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting gagyebu server", "backend", cfg.DataBackend)

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

	classifier := classify.New()
	if cfg.ClassifyRulesFile != "" {
		classifier, err = classify.NewFromFile(cfg.ClassifyRulesFile)
		if err != nil {
			logger.Error("Failed to load classifier rules", "error", err, "path", cfg.ClassifyRulesFile)
			os.Exit(1)
		}
		logger.Info("Loaded classifier rule overrides", "path", cfg.ClassifyRulesFile)
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
		// Access problems are a servable state: the API reports them and
		// the warm-started cache still answers reads.
		logger.Warn("Store initialization failed", "error", err, "state", store.State().String())
	} else {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := store.RefreshSelected(ctx); err != nil {
				logger.Warn("Initial refresh failed", "error", err)
			}
		}()
	}
	startCancel()

	// AMQP is optional; without it writes go straight to the source.
	var publisher services.MutationPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, writes go direct", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP publisher",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(store, result.Source, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, store, svc, classifier)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
