package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nekogravitycat/slot-swap-backend/internal/app"
	"github.com/nekogravitycat/slot-swap-backend/internal/config"
	"github.com/nekogravitycat/slot-swap-backend/internal/db"
)

// migrate applies all pending schema migrations and exits.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := db.NewPool(ctx, cfg.DBDSN, 1)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	version, err := db.Version(ctx, pool)
	if err != nil {
		logger.Fatal("failed to read schema version", zap.Error(err))
	}
	logger.Info("database is up to date", zap.Int64("version", version))
}
