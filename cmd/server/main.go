package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/config"
	"github.com/clubpulse/lead-conversion-backend/internal/database"
	"github.com/clubpulse/lead-conversion-backend/internal/events"
	"github.com/clubpulse/lead-conversion-backend/internal/handlers"
	"github.com/clubpulse/lead-conversion-backend/internal/kpi"
	"github.com/clubpulse/lead-conversion-backend/internal/lifecycle"
	"github.com/clubpulse/lead-conversion-backend/internal/middleware"
	"github.com/clubpulse/lead-conversion-backend/internal/services"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting ClubPulse Lead Conversion Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Open the store
	logger.WithField("driver", cfg.Database.Driver).Info("Opening store...")
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := database.Open(startupCtx, cfg.Database, logger)
	cancelStartup()
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()
	logger.Info("Store ready")

	// Lifecycle events go to RabbitMQ when configured, otherwise to the log
	var publisher events.Publisher
	if cfg.Events.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = amqpPublisher
		logger.WithField("exchange", cfg.Events.Exchange).Info("Publishing lifecycle events to RabbitMQ")
	} else {
		publisher = events.NewLogPublisher(logger)
		logger.Info("AMQP_URL not set, lifecycle events will be logged only")
	}
	defer publisher.Close()

	// Initialize services
	logger.Info("Initializing services...")
	mode, err := lifecycle.ParseMode(cfg.Lifecycle.Mode)
	if err != nil {
		logger.Fatalf("Invalid lifecycle mode: %v", err)
	}
	rateMetric, err := kpi.ParseRateMetric(cfg.KPI.RateMetric)
	if err != nil {
		logger.Fatalf("Invalid KPI rate metric: %v", err)
	}

	entityService := services.NewEntityService(store, logger)
	lifecycleService := services.NewLifecycleService(store, entityService, lifecycle.NewMachine(mode), publisher, logger)
	reportService := services.NewReportService(store, rateMetric, logger)
	ingestionService := services.NewIngestionService(entityService, logger)
	logger.WithFields(logrus.Fields{
		"lifecycle_mode": mode,
		"rate_metric":    rateMetric,
	}).Info("Services initialized")

	// Scheduled jobs
	cronService := services.NewCronService(cfg.Cron, store, reportService, logger)
	memStore, isMemory := store.(*database.MemoryStore)
	if isMemory && cfg.Database.SnapshotPath != "" {
		cronService.WithSnapshots(memStore, cfg.Database.SnapshotPath)
	}
	if cfg.Cron.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	} else {
		logger.Info("Cron service disabled")
	}

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Server.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}
	router.Use(middleware.Metrics())

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	systemHandler := handlers.NewSystemHandler(store, cronService, version)

	// Health check and metrics endpoints
	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	handlers.RegisterRoutes(v1, &handlers.Handlers{
		Clubs:             handlers.NewClubHandler(entityService),
		Staff:             handlers.NewStaffHandler(entityService),
		SubscriptionTypes: handlers.NewSubscriptionTypeHandler(entityService),
		Leads:             handlers.NewLeadHandler(entityService, lifecycleService),
		Subscriptions:     handlers.NewSubscriptionHandler(entityService),
		Reports:           handlers.NewReportHandler(reportService),
		Ingest:            handlers.NewIngestHandler(ingestionService, cfg.Server.MaxIngestRows),
		System:            systemHandler,
	})

	// Debug endpoint - list all registered routes
	if cfg.Server.Environment != "production" {
		v1.GET("/debug/routes", func(c *gin.Context) {
			routes := router.Routes()
			routeList := make([]map[string]string, 0, len(routes))
			for _, route := range routes {
				routeList = append(routeList, map[string]string{
					"method": route.Method,
					"path":   route.Path,
				})
			}
			c.JSON(http.StatusOK, gin.H{
				"message":      "Registered routes",
				"total_routes": len(routeList),
				"routes":       routeList,
			})
		})
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Cron.Enabled {
		cronService.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// The memory store only survives a restart through its snapshot file
	if isMemory && cfg.Database.SnapshotPath != "" {
		if err := memStore.SaveSnapshot(ctx, cfg.Database.SnapshotPath); err != nil {
			logger.Errorf("Failed to save snapshot: %v", err)
		} else {
			logger.WithField("path", cfg.Database.SnapshotPath).Info("Snapshot saved")
		}
	}

	logger.Info("Server exited successfully")
}
