package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calendar-sync-api/core/cache"
	"calendar-sync-api/core/config"
	"calendar-sync-api/core/constants"
	"calendar-sync-api/core/database"
	"calendar-sync-api/core/logger"
	"calendar-sync-api/core/middleware"
	"calendar-sync-api/core/storage"
	"calendar-sync-api/core/worker"
	"calendar-sync-api/modules/nylas"
	"calendar-sync-api/modules/webhook"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Run wires everything together and serves until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// Webhook archiving only runs when a bucket is configured
	var enqueuer worker.Enqueuer
	var archiveWorker *worker.Server
	if cfg.Archive.Bucket != "" {
		uploader, err := storage.NewS3Uploader(storage.S3Config{
			Bucket:    cfg.Archive.Bucket,
			Region:    cfg.Archive.Region,
			Endpoint:  cfg.Archive.Endpoint,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
		})
		if err != nil {
			return err
		}

		workerRedis := worker.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		enqueuer = worker.NewEnqueuer(workerRedis)
		defer enqueuer.Close()

		archiveWorker = worker.NewServer(workerRedis, uploader)
		archiveWorker.Start()
		defer archiveWorker.Shutdown()
	} else {
		logger.Info("Webhook archive disabled, ARCHIVE_S3_BUCKET not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())

	mw := middleware.NewMiddleware()
	e.Use(mw.RequestIDMiddleware())

	e.GET("/health", func(c echo.Context) error {
		if err := redisCache.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	nylas.Init(e, db, redisCache, mw)
	webhook.Init(e, db, enqueuer)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Server starting", "addr", addr, "env", cfg.Server.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server:Start:Error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server:Shutdown:Error", "error", err)
		return err
	}

	// Give in-flight archive tasks a moment before the deferred shutdowns run
	time.Sleep(100 * time.Millisecond)
	logger.Info("Server stopped")
	return nil
}
