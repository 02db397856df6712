package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/AnTengye/lexiguide/config"
	"github.com/AnTengye/lexiguide/handler"
	"github.com/AnTengye/lexiguide/middleware"
	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/AnTengye/lexiguide/pkg/telemetry"
	"github.com/AnTengye/lexiguide/service"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName, os.Stderr, slog.Default())
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	llm, err := service.NewLLMService(&cfg.LLM)
	if err != nil {
		slog.Error("failed to initialize LLM service", "error", err)
		os.Exit(1)
	}

	opts := service.Options{
		MaxConcurrency:   cfg.Analysis.MaxConcurrency,
		CallTimeout:      cfg.LLM.CallTimeout,
		MaxContractBytes: cfg.Analysis.MaxContractBytes,
	}

	// Object storage is optional
	if cfg.Minio.Enabled() {
		minioSvc, err := service.NewMinioService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO service", "error", err)
			os.Exit(1)
		}
		if err := minioSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to check MINIO bucket", "error", err)
			os.Exit(1)
		}
		opts.Source = minioSvc
		slog.Info("contract import enabled", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.Bucket)
	}

	guide := service.NewLexiGuide(llm, service.NewSessionStore(), opts)

	contractHandler := handler.NewContractHandler(guide, int64(cfg.Analysis.MaxContractBytes))
	advisorHandler := handler.NewAdvisorHandler(guide)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())

	serveStatic(router, cfg.Server.StaticDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")

	// The event stream stays open for the whole analysis, so it gets no deadline
	api.GET("/contract/events", contractHandler.Events)

	bounded := api.Group("/")
	bounded.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		bounded.GET("/contract", contractHandler.Get)
		bounded.DELETE("/contract", contractHandler.Reset)
		bounded.GET("/contract/clauses/:id", contractHandler.GetClause)
		bounded.GET("/contract/report", contractHandler.Report)
		bounded.GET("/advisor/messages", advisorHandler.Messages)
	}

	// Routes that start AI calls
	ai := bounded.Group("/")
	ai.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		ai.POST("/contract", contractHandler.Process)
		ai.POST("/contract/import", contractHandler.Import)
		ai.POST("/advisor", advisorHandler.Ask)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     otelhttp.NewHandler(router, "lexiguide.http"),
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "model", cfg.LLM.Model)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	guide.Close()
	if err := shutdownTracer(ctx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}

	slog.Info("server exited gracefully")
}

// serveStatic serves the single-page UI when static_dir is set and exists
func serveStatic(router *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		slog.Warn("static directory has no index.html, UI disabled", "directory", dir)
		return
	}

	slog.Info("serving static files", "directory", dir)
	router.Static("/static", dir)
	router.StaticFile("/", index)
	router.StaticFile("/index.html", index)
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// cacheMiddleware disables caching for API responses and allows it for static files
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if strings.HasPrefix(path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
			return
		}

		if strings.HasPrefix(path, "/static/") || path == "/" || path == "/index.html" {
			c.Header("Cache-Control", "public, max-age=3600, must-revalidate")
		}

		c.Next()
	}
}
