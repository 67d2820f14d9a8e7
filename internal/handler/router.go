package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cetler74/dbcars-sub000/internal/platform/middleware"
)

// RouterConfig carries everything the HTTP router is built from.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	AdminAPIKey    string
	Health         *HealthHandler
	Bookings       *BookingHandler
	Admin          *AdminHandler
}

// NewRouter builds the gin engine with the global middleware chain and all
// routes under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.LoggerMiddleware(cfg.Logger))
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(router)
	}

	apiV1 := router.Group("/api/v1")
	cfg.Bookings.RegisterRoutes(apiV1)
	cfg.Admin.RegisterRoutes(apiV1, cfg.AdminAPIKey)

	return router
}
