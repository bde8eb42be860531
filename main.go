package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genai-customer-service/backend/ai"
	"genai-customer-service/backend/internal/api"
	"genai-customer-service/backend/internal/kb"
	"genai-customer-service/backend/internal/models"
	"genai-customer-service/backend/internal/service"
	"genai-customer-service/backend/pkg/cache"
	"genai-customer-service/backend/pkg/config"
	apperrors "genai-customer-service/backend/pkg/errors"
	"genai-customer-service/backend/pkg/logger"
	"genai-customer-service/backend/pkg/middleware"
	"genai-customer-service/backend/pkg/secrets"
	"genai-customer-service/backend/shared/observability"
	sharedredis "genai-customer-service/backend/shared/redis"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	// Load configuration (reads .env if present)
	cfg := config.New()

	// Set up logging
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format == "json"
	appLogger := logger.New(logConfig)
	logger.SetGlobal(appLogger)

	// Initialize secrets manager (Vault when enabled, env fallback)
	if err := secrets.Init(appLogger); err != nil {
		log.Fatalf("Failed to initialize secrets manager: %v", err)
	}

	// Initialize database
	db, err := setupDatabase()
	if err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}

	// Resolve the Gemini API key and build the generator
	apiKey := secrets.GetSecretWithDefault(context.Background(), "google_api_key", os.Getenv("GOOGLE_API_KEY"))
	generator, err := ai.NewGenerator(apiKey, cfg.Gemini.Model, cfg.Gemini.Endpoint, cfg.Gemini.Timeout)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	// Load the static knowledge base once at startup
	knowledgeBase := kb.Load()

	// Metrics
	meterProvider := observability.SetupPrometheusMetrics()
	pipelineMetrics := observability.NewPipelineMetrics()

	// Initialize services
	chatService := service.NewChatService(db, generator, knowledgeBase, appLogger)
	chatService.SetMetrics(pipelineMetrics)
	chatService.SetLimits(cfg.Features.HistoryLimit, cfg.Features.HistoryFragmentLen, cfg.Features.SlowResponseThreshold)

	// Escalation hand-off queue; redis being down only disables the channel
	escalationQueue := sharedredis.NewEscalationQueue()
	if err := escalationQueue.Ping(context.Background()); err != nil {
		appLogger.Warn("Redis unavailable, escalation queue disabled", "error", err.Error())
	} else {
		chatService.SetEscalationQueue(escalationQueue)
	}

	analyticsService := service.NewAnalyticsService(db, appLogger)

	var surveyCache *cache.Cache
	if cfg.Cache.Enabled {
		surveyCache = cache.NewCache()
	}
	followupService := service.NewFollowupService(db, generator, surveyCache, appLogger)

	// Initialize Gin router
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginEngine := gin.New()
	ginEngine.SetTrustedProxies(cfg.Security.TrustedProxies)
	ginEngine.Use(middleware.RequestIDMiddleware())
	ginEngine.Use(logger.Middleware(appLogger))
	ginEngine.Use(apperrors.RecoveryWithLogger())
	ginEngine.Use(apperrors.ErrorHandler())

	rateLimiter := middleware.NewRateLimiter(appLogger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
	})

	// Index and metrics
	ginEngine.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "GenAI Customer Service"})
	})
	ginEngine.GET("/metrics", observability.MetricsHandler())

	// API routes
	apiGroup := ginEngine.Group("/api")
	apiGroup.Use(rateLimiter.Middleware())
	{
		api.NewChatHandler(chatService).RegisterRoutes(apiGroup)
		api.NewAnalyticsHandler(analyticsService).RegisterRoutes(apiGroup)
		api.NewFollowupHandler(followupService).RegisterRoutes(apiGroup)
		(&api.HealthHandler{}).RegisterRoutes(apiGroup)
	}

	// Create the server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: ginEngine,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Set up graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop

	// Shutdown the server gracefully
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Failed to shutdown server: %v", err)
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		appLogger.Warn("Failed to shutdown meter provider", "error", err.Error())
	}

	appLogger.Info("Server shutdown complete")
}

// setupDatabase initializes the database connection and runs migrations
func setupDatabase() (*gorm.DB, error) {
	db, err := config.NewDB()
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Analytics{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return db, nil
}
