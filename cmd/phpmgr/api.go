package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/thesabbir/phpmanager/docs"
	"github.com/thesabbir/phpmanager/pkg/audit"
	"github.com/thesabbir/phpmanager/pkg/auth"
	"github.com/thesabbir/phpmanager/pkg/db"
	"github.com/thesabbir/phpmanager/pkg/handlers"
	"github.com/thesabbir/phpmanager/pkg/logger"
	"github.com/thesabbir/phpmanager/pkg/mgrconfig"
	"github.com/thesabbir/phpmanager/pkg/middleware"
)

// @title phpmgr API
// @version 1.0
// @description Checks and repairs the PHP FastCGI configuration of a web server

// @host localhost:8890
// @BasePath /api
// @schemes http

// @securityDefinitions.apikey APIKey
// @in header
// @name X-API-Key

const docsPrefix = "/api/docs"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("listen") {
			cfg.API.Listen, _ = cmd.Flags().GetString("listen")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid phpmgr configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return startAPIServer(ctx)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default phpmgr configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mgrconfig.CreateDefaultConfig(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", mgrconfig.DefaultAPIPort, "API server port")
	serveCmd.Flags().String("listen", mgrconfig.DefaultListen, "API listen address")
}

func newRouter(ctx context.Context) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Security headers middleware (should be early in the chain)
	r.Use(middleware.SecurityHeadersMiddleware(docsPrefix))

	// Request logging middleware (log all requests)
	r.Use(middleware.RequestLoggingMiddleware())

	// Global rate limiting
	limiter := middleware.NewIPRateLimiter(ctx, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	r.Use(middleware.RateLimitMiddleware(limiter))

	if cfg.API.EnableSwagger {
		docs.SwaggerInfo.Host = cfg.Address()
		r.GET(docsPrefix+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/health", handlers.HealthHandler)

	api := r.Group("/api")
	if cfg.KeyRequired() {
		api.Use(auth.APIKeyMiddleware())
	} else {
		logger.Warn("API keys disabled, any local process can change PHP settings", "listen", cfg.API.Listen)
	}
	api.Use(middleware.JSONContentTypeMiddleware())
	handlers.New(newReconciler, transactionMgr).Register(api)

	return r
}

func startAPIServer(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	if cfg.KeyRequired() {
		keys, err := db.ListAPIKeys(false)
		if err != nil {
			return fmt.Errorf("failed to list API keys: %w", err)
		}
		if len(keys) == 0 {
			logger.Warn("No API keys exist, every API request will be rejected. Create one with 'phpmgr apikey create <name>'")
		}
	}

	// Start audit log cleanup scheduler (runs daily)
	if cfg.Audit.Enabled {
		audit.StartCleanupScheduler(ctx, cfg.Audit.RetentionDays, 24*time.Hour)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           newRouter(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting API server", "address", srv.Addr, "swagger", cfg.API.EnableSwagger)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
