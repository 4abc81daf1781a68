package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"duit/internal/amqp"
	"duit/internal/config"
	"duit/internal/insight"
	"duit/internal/ledger"
	ledgermem "duit/internal/ledger/memory"
	ledgersheets "duit/internal/ledger/sheets"
	"duit/internal/log"
	"duit/internal/members"
	"duit/internal/notify"
	"duit/internal/pending"
	"duit/internal/prefs"
	"duit/internal/scheduler"
	"duit/internal/services"
	"duit/internal/storage"
	"duit/internal/telegram"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting duit bot")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to load timezone", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Query backend for reports. SQLite is the local mirror and the default;
	// the sheets backend reads the shared spreadsheet feed directly.
	var rowSource ledger.RowSource
	switch cfg.DataBackend {
	case "sheets":
		sheetClient, err := ledgersheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		rowSource = sheetClient
	case "memory":
		rowSource = ledgermem.New()
	default:
		rowSource = repo
	}
	querier := ledger.NewStore(rowSource)
	logger.Info("Ledger backend initialized", "backend", cfg.DataBackend)

	// AMQP is optional; without it entries stay local until the worker's
	// periodic reconcile finds them.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, entries will sync via periodic reconcile", "error", err)
		} else {
			defer amqpClient.Close()
		}
	}

	registry := members.NewRegistry(repo)
	prefStore := prefs.NewStore(repo)
	entryService := services.NewEntryService(repo, amqpClient)
	drafts := pending.NewStore(logger.WithComponent(log.ComponentBot).Logger)

	insights, err := insight.NewGenerator(ctx, cfg.GeminiAPIKey, logger.WithComponent(log.ComponentInsight).Logger)
	if err != nil {
		logger.Error("Failed to initialize insight generator", "error", err)
		os.Exit(1)
	}
	defer insights.Close()
	if insights == nil {
		logger.Info("Gemini disabled - monthly insights use the deterministic fallback")
	}

	bot, err := telegram.NewBot(
		cfg.TelegramToken,
		registry,
		entryService,
		prefStore,
		querier,
		drafts,
		location,
		cfg.GoogleSpreadsheetID,
		logger.WithComponent(log.ComponentBot).Logger,
	)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(bot, prefStore, logger.WithComponent(log.ComponentNotify).Logger)
	sched := scheduler.New(location, querier, registry, dispatcher, insights,
		logger.WithComponent(log.ComponentScheduler).Logger)

	specs := scheduler.Specs{
		Daily:   cfg.DailyCron,
		Weekly:  cfg.WeeklyCron,
		Monthly: cfg.MonthlyCron,
	}
	if err := sched.Start(ctx, specs); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		drafts.StartJanitor(gctx)
		return nil
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bot shutdown complete")
}
