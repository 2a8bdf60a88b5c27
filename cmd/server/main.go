package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/courtside/pickem/internal/api"
	"github.com/courtside/pickem/internal/api/handlers"
	"github.com/courtside/pickem/internal/api/middleware"
	"github.com/courtside/pickem/internal/projection"
	"github.com/courtside/pickem/internal/providers"
	"github.com/courtside/pickem/internal/services"
	"github.com/courtside/pickem/pkg/config"
	"github.com/courtside/pickem/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis; the app runs without it, just slower
	var cacheService *services.CacheService
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logrus.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logrus.Warnf("Redis unavailable, caching disabled: %v", err)
		} else {
			cacheService = services.NewCacheService(redisClient)
			defer redisClient.Close()
		}
	}

	// Upstream clients
	nbaClient := providers.NewNBAStatsClient(cfg.ExternalAPITimeout, cfg.NBARateLimit, cfg.CircuitBreakerThreshold, logger)
	espnClient := providers.NewESPNClient(cfg.ExternalAPITimeout, cfg.CircuitBreakerThreshold, logger)
	sportsbook := providers.SportsbookFromConfig(cfg, logger)

	// Core services
	store := services.NewStore(db, logger)
	engine := projection.NewEngine(nbaClient, logger)
	scheduleService := services.NewScheduleService(db, cacheService, espnClient, cfg.ScheduleCacheTTL, cfg.RosterCacheTTL, logger)
	linesService := services.NewLinesService(db, sportsbook, cfg.LineCacheTTL, logger)
	scorer := services.NewScorer(db, store, engine, nbaClient, scheduleService, logger)

	// Background jobs
	if cfg.EnableBackgroundJobs {
		jobs := services.NewJobRunner(db, scorer, scheduleService, linesService, cfg.ScoreSweepSchedule, cfg.ScheduleWarmSchedule, cfg.LineRefreshSchedule, logger)
		if err := jobs.Start(); err != nil {
			logrus.Errorf("Failed to start background jobs: %v", err)
		} else {
			defer jobs.Stop()
		}
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, api.Dependencies{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Engine:   engine,
		Schedule: scheduleService,
		Lines:    linesService,
		Scorer:   scorer,
		NBA:      nbaClient,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
