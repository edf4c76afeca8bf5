package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/slot-swap-backend/internal/api"
	"github.com/nekogravitycat/slot-swap-backend/internal/auth"
	"github.com/nekogravitycat/slot-swap-backend/internal/db"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router      *gin.Engine
	JWTManager  *auth.JWTManager
	UserService user.Service
	SlotService slot.Service
	SwapService swap.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	transactor := db.NewTransactor(cfg.DBPool)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, logger.Named("user"))

	// Slot Module
	slotRepo := slot.NewPgxRepository(cfg.DBPool)
	slotService := slot.NewService(slotRepo, transactor, logger.Named("slot"))

	// Swap Module
	swapRepo := swap.NewPgxRepository(cfg.DBPool)
	swapService := swap.NewService(swapRepo, slotRepo, transactor, logger.Named("swap"))

	router, err := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		Logger:       logger.Named("http"),
		UserService:  userService,
		SlotService:  slotService,
		SwapService:  swapService,
		JWTManager:   jwtManager,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Router:      router,
		JWTManager:  jwtManager,
		UserService: userService,
		SlotService: slotService,
		SwapService: swapService,
	}, nil
}
