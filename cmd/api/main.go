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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/datamon/datamon-api/config"
	"github.com/datamon/datamon-api/internal/cache"
	"github.com/datamon/datamon-api/internal/handlers"
	"github.com/datamon/datamon-api/internal/middleware"
	"github.com/datamon/datamon-api/internal/repository"
	"github.com/datamon/datamon-api/internal/services"
	"github.com/datamon/datamon-api/pkg/kv"
	"github.com/datamon/datamon-api/pkg/logger"
	"github.com/datamon/datamon-api/pkg/profiling"
	"github.com/datamon/datamon-api/pkg/tracing"
)

// registerWebhookRoutes wires the ingestion endpoint plus the key-gated
// management surface.
func registerWebhookRoutes(
	api *gin.RouterGroup,
	cfg *config.Config,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
) {
	api.GET("/webhook", healthHandler.Status)
	api.POST("/webhook/:token", middleware.BodySizeLimitMiddleware(1*1024*1024), webhookHandler.Ingest)

	manage := api.Group("/webhook/manage", middleware.APIKeyAuthMiddleware(cfg.Auth.WebhookAPIKey))
	manage.POST("/create", middleware.BodySizeLimitMiddleware(16*1024), webhookHandler.Create)
	manage.GET("/list/:projectId", webhookHandler.List)
	manage.DELETE("/delete/:projectId/:token", webhookHandler.Delete)
}

// registerProjectRoutes wires the owner-facing project and data point routes
// behind the identity header plus the public share view.
func registerProjectRoutes(
	api *gin.RouterGroup,
	projectHandler *handlers.ProjectHandler,
	dataPointHandler *handlers.DataPointHandler,
	shareHandler *handlers.ShareHandler,
) {
	projects := api.Group("/projects", middleware.RequireUserMiddleware())
	projects.GET("", projectHandler.List)
	projects.POST("", middleware.BodySizeLimitMiddleware(64*1024), projectHandler.Create)
	projects.GET("/:id", projectHandler.Get)
	projects.PATCH("/:id", middleware.BodySizeLimitMiddleware(64*1024), projectHandler.Update)
	projects.DELETE("/:id", projectHandler.Delete)
	projects.POST("/:id/regenerate-token", projectHandler.RegenerateShareToken)

	projects.GET("/:id/data", dataPointHandler.List)
	projects.POST("/:id/data", middleware.BodySizeLimitMiddleware(64*1024), dataPointHandler.Create)
	projects.DELETE("/:id/data/:dataId", dataPointHandler.Delete)

	api.GET("/share/:token", shareHandler.Get)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Datamon API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.OTLPEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling when configured
	if cfg.Profiling.Enabled {
		stopProfiler, err := profiling.InitProfiler(
			cfg.Profiling,
			cfg.Observability.ServiceName,
			cfg.Observability.ServiceNamespace,
			cfg.Observability.ServiceVersion,
			cfg.Observability.ServiceInstanceID,
			cfg.Server.AppEnv,
		)
		if err != nil {
			logger.Fatal("Failed to initialize profiler", zap.Error(err))
		}
		defer stopProfiler()
	}

	// Initialize the key/value store. Offline mode swaps the hosted store
	// for an in-process map, which is enough for local development.
	var store kv.Store
	if cfg.KV.WorkOffline {
		logger.Warn("Running against the in-memory store; data will not survive a restart")
		store = kv.NewMemory()
	} else {
		client, err := kv.NewClient(cfg.KV.RestURL, cfg.KV.RestToken)
		if err != nil {
			logger.Fatal("Failed to initialize store client", zap.Error(err))
		}
		store = client
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(store)
	webhookRepo := repository.NewWebhookRepository(store)
	dataPointRepo := repository.NewDataPointRepository(store)

	// Token resolutions are cached briefly so a chatty sender does not pay
	// a store round trip per push
	tokenCache := cache.NewTokenCache(cfg.Cache.TokenTTLSeconds)

	// Initialize services
	webhookService := services.NewWebhookService(webhookRepo, projectRepo, tokenCache, cfg.Server.BaseURL)
	projectService := services.NewProjectService(projectRepo, webhookRepo, dataPointRepo, tokenCache)
	dataPointService := services.NewDataPointService(dataPointRepo, projectRepo)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	projectHandler := handlers.NewProjectHandler(projectService)
	dataPointHandler := handlers.NewDataPointHandler(dataPointService)
	shareHandler := handlers.NewShareHandler(projectService)
	healthHandler := handlers.NewHealthHandler(store)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Webhook senders push from arbitrary origins, so CORS stays open
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-User-Id", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// API routes
	api := router.Group("/api")
	api.GET("/healthcheck", healthHandler.Healthcheck)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerWebhookRoutes(api, cfg, webhookHandler, healthHandler)
	registerProjectRoutes(api, projectHandler, dataPointHandler, shareHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
