package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := log.DefaultConfig()
	logCfg.Component = log.ComponentWorker
	logger := log.New(logCfg)
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP carries balance drift events found during reconciliation.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without event publishing", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - drift events will not be published")
	}

	ledger := services.NewBalanceLedger(repo)
	processor := services.NewRecurringProcessor(repo, ledger)
	reconciler := services.NewReconciler(repo, amqpClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runSweep := func() {
		now := time.Now().UTC()

		logger.Info("Sweeping due recurring transactions...")
		generated, err := processor.SweepAll(ctx, now)
		if err != nil {
			logger.Error("Recurring sweep failed", "error", err)
		} else {
			logger.Info("Recurring sweep complete", "transactions_generated", generated)
		}

		// Verify the balances of the owners the sweep just touched.
		owners, err := repo.ListOwnersWithActiveRecurring(ctx)
		if err != nil {
			logger.Error("Failed to list owners for reconciliation", "error", err)
			return
		}
		for _, owner := range owners {
			reports, err := reconciler.ReconcileAll(ctx, owner, cfg.ReconcileRepair)
			if err != nil {
				logger.Error("Reconciliation failed", "error", err, "owner", owner)
				continue
			}
			for _, report := range reports {
				logger.Warn("Balance drift detected",
					"owner", owner,
					"error", report.Err(),
					"repaired", report.Repaired)
			}
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SweepSchedule, runSweep); err != nil {
		logger.Error("Failed to schedule recurring sweep", "error", err, "schedule", cfg.SweepSchedule)
		os.Exit(1)
	}

	logger.Info("Recurring sweep scheduled",
		"schedule", cfg.SweepSchedule,
		"sqlite_db", cfg.SQLiteDBPath,
		"reconcile_repair", cfg.ReconcileRepair)

	// Catch up anything that came due while the worker was down.
	logger.Info("Running initial sweep...")
	runSweep()

	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Timed out waiting for in-flight sweep to finish")
	}

	logger.Info("Recurring-worker stopped gracefully")
}
