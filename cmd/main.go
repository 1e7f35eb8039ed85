package main

import (
	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/repository"
	"auth-service/internal/service"
	"auth-service/pkg/config"
	"auth-service/pkg/database"
	"auth-service/pkg/jwtutil"
	"auth-service/pkg/logger"
	"auth-service/prometheus"

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
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting authentication service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.Connect(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire stores and services
	store := repository.NewStore(db)
	tokens := jwtutil.New(jwtutil.Config{
		SigningKey:     cfg.JWT.SigningKey,
		Algorithm:      cfg.JWT.Algorithm,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})
	authService := service.NewAuthService(store, tokens, cfg.JWT.RefreshTokenTTL, cfg.TOTP.Issuer)
	tenantService := service.NewTenantService(store)
	gate := service.NewSessionGate(store, tokens, cfg.Auth.EnforceTenantIsolation)

	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService, authService)
	userHandler := handler.NewUserHandler(authService)
	healthHandler := handler.NewHealthHandler(db)
	wellKnownHandler := handler.NewWellKnownHandler(cfg.Server.BaseURL)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/.well-known/oauth-authorization-server", wellKnownHandler.AuthorizationServer)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/totp/validate", authHandler.TOTPLogin)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/tenant/login", tenantHandler.Login)
	auth.POST("/tenant/user-login", authHandler.TenantUserLogin)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.SessionMiddleware(gate))

	// User management
	users := api.Group("/users")
	users.GET("/profile", userHandler.Profile)
	users.PATCH("/profile", userHandler.UpdateProfile)
	users.POST("/change-password", userHandler.ChangePassword)
	users.POST("/logout-all", userHandler.LogoutAll)

	// TOTP enrollment
	totp := api.Group("/totp")
	totp.POST("/setup", authHandler.TOTPSetup)
	totp.POST("/verify", authHandler.TOTPVerify)

	// Tenant management - scoped to the caller's own tenant
	tenants := api.Group("/tenants/me")
	tenants.GET("", tenantHandler.Get)
	tenants.GET("/cascade-impact", tenantHandler.Impact)
	tenants.GET("/users", tenantHandler.ListUsers, middleware.RequireRole(model.RoleAdmin))
	tenants.PATCH("", tenantHandler.Update, middleware.RequireRole(model.RoleOwner))
	tenants.PATCH("/status", tenantHandler.UpdateStatus, middleware.RequireRole(model.RoleOwner))
	tenants.DELETE("", tenantHandler.Delete, middleware.RequireRole(model.RoleOwner))

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
