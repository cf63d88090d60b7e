// Ringline offline core: opens the local store, connects to the hosted
// backend and keeps the two in sync until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ringline-app/backend/internal/config"
	"github.com/ringline-app/backend/internal/connectivity"
	"github.com/ringline-app/backend/internal/logging"
	"github.com/ringline-app/backend/internal/remote"
	"github.com/ringline-app/backend/internal/retry"
	"github.com/ringline-app/backend/internal/store"
	syncengine "github.com/ringline-app/backend/internal/sync"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(os.Stderr, "info").Error("failed to load config", err)
		os.Exit(1)
	}

	logging.Init(os.Stderr, cfg.LogLevel)
	log := logging.Get()
	log.Info("ringline core starting", map[string]interface{}{
		"version":  Version,
		"data_dir": cfg.DataDir,
	})

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Error("failed to open local store", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.NewMigrator(db.DB).Up(); err != nil {
		log.Error("failed to migrate local store", err)
		os.Exit(1)
	}
	local := store.NewStore(db)

	ctx := context.Background()
	pool, err := remote.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to backend", err)
		os.Exit(1)
	}
	defer pool.Close()
	backend := remote.NewPostgresBackend(pool, cfg.RingerID)

	monitor := connectivity.NewProbeMonitor(cfg.ProbeAddr, 15*time.Second)
	monitor.Start()
	defer monitor.Stop()

	engine := syncengine.NewEngine(syncengine.Config{
		Store:   local,
		Backend: backend,
		Monitor: monitor,
		Logger:  log,
		Retry: retry.Options{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			Multiplier:  2,
		},
	})
	engine.StartAutoSync(cfg.SyncInterval)
	defer engine.StopAutoSync()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down", nil)
}
