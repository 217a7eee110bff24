package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stake-plus/finapp-discord/src/actions"
	"github.com/stake-plus/finapp-discord/src/config"
	"github.com/stake-plus/finapp-discord/src/data"
	"github.com/stake-plus/finapp-discord/src/logging"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", ".", "directory holding config.yaml and config.local.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Use a single DB connection pool for every module
	db, err := data.ConnectMySQL(cfg.Database.DSN, logger)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}

	settings := data.NewSettingsStore()
	if err := settings.Load(ctx, db); err != nil {
		logger.Warn("settings table unavailable, using file and environment configuration only", zap.Error(err))
	}
	config.ApplySettings(cfg, settings.Get)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	deps := actions.Deps{Config: cfg, DB: db, Logger: logger, Metrics: prometheus.NewRegistry()}
	deps.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Redis.URL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("redis unavailable, invocation stream disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			deps.Stream = rdb
		}
	}

	manager, err := actions.StartAll(ctx, deps)
	if err != nil {
		logger.Fatal("actions start", zap.Error(err))
	}

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Info("shutting down", zap.String("signal", sig.String()))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	manager.Stop(stopCtx)
}
