package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/config"
	dbpkg "github.com/BruksfildServices01/marketplace/internal/db"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/infra/search"
	"github.com/BruksfildServices01/marketplace/internal/infra/storage"
	"github.com/BruksfildServices01/marketplace/internal/logger"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/middleware"
	"github.com/BruksfildServices01/marketplace/internal/routes"
)

func main() {

	cfg := config.Load()
	log := logger.New(cfg.IsProduction())
	defer func() { _ = log.Sync() }()

	db := dbpkg.NewDB(cfg, log)
	metrics.Register()

	redisClient := cache.NewRedisClient(cfg, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMin, log))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	app := routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		Config:  cfg,
		Log:     log,
		Redis:   redisClient,
		Elastic: search.NewElasticClient(cfg, log),
		S3:      storage.NewS3Client(cfg, log),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.Broker.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}

	app.Audit.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
