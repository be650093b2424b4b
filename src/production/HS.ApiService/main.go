package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/controllers"
	container "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Container"

	jwt "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/implementation/jwt"
	authMiddleware "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.ApiService/middleware"
	api_models "gitlab.com/hydroscan1/hs.fleet_server/src/production/HS.Models/api"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting API Service")

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	mongoClient, err := ctr.GetMongoClient()
	if err != nil {
		logger.FatalWithError(err, "Failed to connect to MongoDB")
	}

	repos, err := ctr.GetRepositories()
	if err != nil {
		logger.FatalWithError(err, "Failed to build repositories")
	}

	// Core services
	commandDispatcher, err := ctr.GetDispatcher()
	if err != nil {
		logger.FatalWithError(err, "Failed to build dispatcher")
	}
	orchestrator, err := ctr.GetOrchestrator()
	if err != nil {
		logger.FatalWithError(err, "Failed to build firmware orchestrator")
	}
	telemetryService, err := ctr.GetTelemetryService()
	if err != nil {
		logger.FatalWithError(err, "Failed to build telemetry service")
	}

	config := ctr.GetConfig()

	// Initialize JWT service for token validation
	jwtConfig := api_models.Config{
		SecretKey:           config.Auth.JWTSecretKey,
		AccessTokenDuration: config.Auth.AccessTokenDuration,
		Issuer:              config.Auth.JWTIssuer,
	}
	jwtService := jwt.NewService(jwtConfig)

	// Create auth middleware
	authMiddlewareInstance := authMiddleware.NewAuthMiddleware(jwtService, authMiddleware.DefaultConfig())

	// Background loops: expire overdue commands, promote due scheduled ones
	sweeperCtx, stopSweepers := context.WithCancel(context.Background())
	defer stopSweepers()
	go commandDispatcher.RunExpirySweeper(sweeperCtx, config.Sweeper.ExpiryInterval)
	go orchestrator.RunScheduleSweeper(sweeperCtx, config.Sweeper.ScheduledInterval)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	commandController := controllers.NewCommandController(commandDispatcher, logger, authMiddlewareInstance)
	firmwareController := controllers.NewFirmwareController(orchestrator, logger, authMiddlewareInstance)
	telemetryController := controllers.NewTelemetryController(telemetryService, logger, authMiddlewareInstance)
	deviceController := controllers.NewDeviceController(repos.Devices, repos.Readings, repos.Alerts, repos.Quality, logger, authMiddlewareInstance)
	healthController := controllers.NewHealthController(db, mongoClient, ctr.GetTransport(), logger)

	commandController.RegisterRoutes(router)
	firmwareController.RegisterRoutes(router)
	telemetryController.RegisterRoutes(router)
	deviceController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("API service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	stopSweepers()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
