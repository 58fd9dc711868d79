package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rwtips/tipster/internal/pkg/config"
	"github.com/rwtips/tipster/internal/pkg/logging"
	"github.com/rwtips/tipster/internal/pkg/metrics"
	"github.com/rwtips/tipster/internal/pkg/storage"
	"github.com/rwtips/tipster/internal/tipster/engine"
	"github.com/rwtips/tipster/internal/tipster/feed"
	"github.com/rwtips/tipster/internal/tipster/notify"
)

const defaultConfigPath = "configs/local.yaml"

func main() {
	// Secrets come from the environment; .env is a local convenience and
	// its absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("tipster: loaded .env")
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	var configPath string
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	cfg, err := config.LoadTipster(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, closeLogs, err := logging.Setup(&cfg.Logging, "tipster")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer closeLogs()
	slog.Info("config loaded", "path", configPath)

	loc, err := time.LoadLocation(cfg.Engine.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Engine.Timezone, err)
	}

	feedClient := feed.NewClient(feed.Options{
		LiveURL:      cfg.Feeds.LiveURL,
		HistoryURL:   cfg.Feeds.HistoryURL,
		H2HURL:       cfg.Feeds.H2HURL,
		AuthToken:    cfg.Feeds.AuthToken,
		Timeout:      cfg.Feeds.Timeout,
		Retries:      cfg.Feeds.Retries,
		RetryBackoff: cfg.Feeds.RetryBackoff,
		RatePerSec:   cfg.Feeds.RatePerSec,
	})

	telegram, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("Failed to initialize telegram: %v", err)
	}

	var store storage.TipStore
	if cfg.Postgres.DSN != "" {
		pgStore, err := storage.NewPostgresTipStore(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("Failed to initialize postgres tip store: %v", err)
		}
		store = pgStore
		defer func() {
			if err := pgStore.Close(); err != nil {
				slog.Error("closing tip store", "error", err)
			}
		}()
	} else {
		slog.Info("no postgres DSN configured, tips are not persisted")
	}

	m := metrics.New()

	eng := engine.New(engine.Config{
		LiveInterval:      cfg.Engine.LiveInterval,
		ReconcileInterval: cfg.Engine.ReconcileInterval,
		ReconcileDelay:    cfg.Engine.ReconcileDelay,
		PlayerCacheTTL:    cfg.Engine.PlayerCacheTTL,
		HistoryCacheTTL:   cfg.Engine.HistoryCacheTTL,
		H2HCacheTTL:       cfg.Engine.H2HCacheTTL,
		HistoryPageSize:   cfg.Engine.HistoryPageSize,
		Location:          loc,
		Tracker: engine.TrackerConfig{
			MinConfidence: cfg.Engine.MinConfidence,
			WindowBefore:  cfg.Engine.WindowBefore,
			WindowAfter:   cfg.Engine.WindowAfter,
			GracePeriod:   cfg.Engine.ReconcileDelay,
			PendingExpiry: cfg.Engine.PendingExpiry,
		},
	}, feedClient, telegram, store, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received shutdown signal, stopping")
		cancel()
	}()

	if store != nil {
		loadCtx, loadCancel := context.WithTimeout(ctx, 10*time.Second)
		open, err := store.LoadOpenTips(loadCtx)
		loadCancel()
		if err != nil {
			slog.Error("loading open tips failed, starting cold", "error", err)
		} else if len(open) > 0 {
			eng.RestoreTips(open)
		}
	}

	go func() {
		if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	slog.Info("tipster started")
	eng.Run(ctx)
	slog.Info("tipster stopped")
}
