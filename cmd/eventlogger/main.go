package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventlogger/internal/analytics"
	"eventlogger/internal/bot"
	"eventlogger/internal/config"
	"eventlogger/internal/eventconfig"
	"eventlogger/internal/metrics"
	"eventlogger/internal/modules/audit"
	"eventlogger/internal/pending"
	"eventlogger/internal/server"
	"eventlogger/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	events, err := eventconfig.Load(cfg.EventConfigPath)
	if err != nil {
		logger.Fatal("event config load failed", zap.String("path", cfg.EventConfigPath), zap.Error(err))
	}

	store, err := storage.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	botMetrics := metrics.New()
	auditLogger := audit.NewLogger(store, logger)
	auditLogger.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
		botMetrics.AuditEvent(entry.Level, entry.Event)
	})
	analyticsSvc := analytics.New(store)
	pendingTable := pending.New(time.Duration(cfg.PendingTTLMinutes) * time.Minute)

	botSvc, err := bot.New(cfg, logger, events, pendingTable, store, auditLogger, botMetrics)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started",
		zap.String("storage", string(store.Dialect())),
		zap.Int("event_types", len(events.EventTypes())),
		zap.Bool("log_channel_set", events.LogChannelID() != ""),
	)

	var srv *server.Server
	if cfg.Health.Enabled {
		srv = server.New(cfg.Health.Addr, logger, analyticsSvc, botMetrics.Registry)
		srv.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("http shutdown failed", zap.Error(err))
		}
	}
	if err := botSvc.Close(ctx); err != nil {
		logger.Warn("bot close failed", zap.Error(err))
	}
}
