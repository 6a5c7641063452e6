package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/sheets/google"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting expenses-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	sheetsClient, err := google.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare sheet", "error", err, "sheet", cfg.GoogleSheetName)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(sheetsClient, logger.WithComponent(applog.ComponentSheets).Logger)

	// The worker only reads the store, so it opens it without a publisher.
	storeCfg, err := backend.FromAppConfig(cfg)
	var store *backend.BackendResult
	if err == nil {
		storeCfg.AMQPURL = ""
		store, err = backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, storeCfg)
	}
	if err != nil {
		logger.Warn("Store unavailable, skipping startup reconcile", "error", err)
	} else {
		logger.Info("Performing startup reconcile...")
		if err := syncWorker.Reconcile(ctx, store.Service); err != nil {
			logger.Error("Startup reconcile failed", "error", err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Store cleanup failed", "error", err)
		}
	}

	if err := cli.Run(ctx, consumeTask(logger, cfg, syncWorker)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// consumeTask consumes expense events, reconnecting with exponential backoff
// after connection failures.
func consumeTask(logger *applog.Logger, cfg *config.Config, w *worker.SyncWorker) cli.Task {
	log := logger.WithComponent(applog.ComponentAMQP)
	return func(ctx context.Context) error {
		attempt := 0
		for {
			connected, err := consumeOnce(ctx, cfg, w)
			if ctx.Err() != nil {
				return nil
			}
			if !amqp.IsConnectionError(err) {
				return err
			}
			if connected {
				attempt = 0
			}

			attempt++
			if attempt > cfg.MaxReconnectAttempts {
				log.Error("Giving up on AMQP broker", "attempts", attempt-1, "error", err)
				return err
			}
			wait := amqp.ExponentialBackoff(attempt)
			log.Warn("AMQP connection lost, reconnecting",
				"error", err,
				"attempt", attempt,
				"max_attempts", cfg.MaxReconnectAttempts,
				"backoff", wait)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
	}
}

func consumeOnce(ctx context.Context, cfg *config.Config, w *worker.SyncWorker) (connected bool, err error) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return false, err
	}
	defer client.Close()
	return true, client.Consume(ctx, w.HandleEvent)
}
