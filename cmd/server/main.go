package main

import (
	"tempo-api/internal/handler"
	"tempo-api/internal/middleware"
	"tempo-api/pkg/config"
	"tempo-api/pkg/database"
	"tempo-api/pkg/jwtutil"
	"tempo-api/pkg/logger"
	"tempo-api/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting tempo API...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no tenant context required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Everything below is tenant-scoped: the resolver turns the slug in the
	// path into a tenant context or terminates the request.
	tenantGroup := e.Group("/" + cfg.Tenant.PathPrefix + "/:slug")
	tenantGroup.Use(middleware.TenantResolver(db, cfg.Tenant.PathPrefix))

	// Authentication routes - for getting access to the API
	auth := tenantGroup.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/signup", handler.Signup)
	auth.POST("/reset/request", handler.RequestPasswordReset)
	auth.POST("/reset/confirm", handler.ConfirmPasswordReset)

	// API routes - all require authentication
	api := tenantGroup.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.GET("/me", handler.GetProfile)
	api.POST("/password", handler.ChangePassword)

	// Employee onboarding - manager only
	invites := api.Group("/invites")
	invites.Use(middleware.RequireManager)
	invites.GET("", handler.ListInvites)
	invites.POST("", handler.CreateInvite)
	invites.DELETE("/:id", handler.RevokeInvite)

	// Rota scheduling
	rota := api.Group("/rota")
	rota.GET("/weeks", handler.ListWeeks)
	rota.GET("/weeks/:id/shifts", handler.ListShifts)
	rota.POST("/weeks", handler.CreateWeek, middleware.RequireManager)
	rota.POST("/weeks/:id/publish", handler.PublishWeek, middleware.RequireManager)
	rota.POST("/weeks/:id/shifts", handler.CreateShift, middleware.RequireManager)

	api.PATCH("/shifts/:id", handler.UpdateShift, middleware.RequireManager)
	api.DELETE("/shifts/:id", handler.DeleteShift, middleware.RequireManager)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
