package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/slot-swap-backend/internal/auth"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	slotHttp "github.com/nekogravitycat/slot-swap-backend/internal/slot/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	swapHttp "github.com/nekogravitycat/slot-swap-backend/internal/swap/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
	userHttp "github.com/nekogravitycat/slot-swap-backend/internal/user/http"
)

// Config holds the services and settings the router is assembled from.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Logger       *zap.Logger
	UserService  user.Service
	SlotService  slot.Service
	SwapService  swap.Service
	JWTManager   *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if err := slotHttp.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(RequestLogger(cfg.Logger), Recovery(cfg.Logger))

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Web client
			"http://localhost:5173", // Vite dev server
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	if len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	slotHandler := slotHttp.NewHandler(cfg.SlotService)
	swapHandler := swapHttp.NewHandler(cfg.SwapService)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		slotHttp.RegisterRoutes(v1, slotHandler, authMiddleware)
		swapHttp.RegisterRoutes(v1, swapHandler, authMiddleware)
	}

	return r, nil
}
