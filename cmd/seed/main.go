package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/slot-swap-backend/internal/app"
	"github.com/nekogravitycat/slot-swap-backend/internal/config"
	"github.com/nekogravitycat/slot-swap-backend/internal/db"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

const demoPassword = "password123"

type demoSlot struct {
	title  string
	start  time.Duration // offset from tomorrow 00:00 UTC
	length time.Duration
	status slot.Status
}

type demoUser struct {
	email string
	name  string
	slots []demoSlot
}

var demoUsers = []demoUser{
	{
		email: "alice@example.com",
		name:  "Alice Smith",
		slots: []demoSlot{
			{"Team Meeting", 10 * time.Hour, time.Hour, slot.StatusBusy},
			{"Client Presentation", 14 * time.Hour, 90 * time.Minute, slot.StatusSwappable},
		},
	},
	{
		email: "bob@example.com",
		name:  "Bob Johnson",
		slots: []demoSlot{
			{"Project Review", 9 * time.Hour, 90 * time.Minute, slot.StatusSwappable},
			{"Training Session", 16 * time.Hour, time.Hour, slot.StatusBusy},
		},
	},
}

// seed creates demo users with a few slots each. Users that already exist keep their slots.
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

	pool, err := db.NewPool(ctx, cfg.DBDSN, 2)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	container, err := app.NewContainer(app.Config{
		DBPool:     pool,
		Logger:     logger,
		JWTSecret:  cfg.JWTSecret,
		JWTTTL:     cfg.JWTAccessTokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		logger.Fatal("failed to init app", zap.Error(err))
	}

	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	for _, du := range demoUsers {
		u, err := container.UserService.Register(ctx, user.RegisterRequest{
			Email:       du.email,
			Password:    demoPassword,
			DisplayName: du.name,
		})
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			logger.Info("demo user exists, skipping", zap.String("email", du.email))
			continue
		}
		if err != nil {
			logger.Fatal("failed to create demo user", zap.String("email", du.email), zap.Error(err))
		}

		for _, ds := range du.slots {
			start := tomorrow.Add(ds.start)
			if _, err := container.SlotService.Create(ctx, slot.CreateRequest{
				OwnerID:   u.ID,
				Title:     ds.title,
				StartTime: start,
				EndTime:   start.Add(ds.length),
				Status:    &ds.status,
			}); err != nil {
				logger.Fatal("failed to create demo slot", zap.String("title", ds.title), zap.Error(err))
			}
		}
	}

	logger.Info("seed complete", zap.String("password", demoPassword))
}
