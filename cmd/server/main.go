package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/database"
	"smartbin-backend/internal/events"
	"smartbin-backend/internal/logger"
	"smartbin-backend/internal/middleware"
	"smartbin-backend/internal/server"
	"smartbin-backend/internal/storage"
	"smartbin-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	envFiles := pflag.StringSlice("env-file", []string{".env"}, "dotenv files to load before reading the environment")
	migrate := pflag.Bool("migrate", true, "create or update tables at startup")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	// 1. Load configuration
	cfg := config.LoadConfig(*envFiles...)

	// 2. Initialize logging
	logCloser, err := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	log := logger.Log
	log.WithField("version", version).Info("Configuration loaded successfully")

	// 3. Initialize JWT utilities with config
	utils.InitJWT(cfg.JWT.AccessSecret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	// 4. Initialize database connection
	db, err := database.Connect(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	log.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	if *migrate {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
		log.Info("Database migration completed")
	}

	// 5. Optional collaborators
	deps := server.Deps{Config: cfg, DB: db}

	if cfg.NATS.URL != "" {
		nc, err := events.Connect(cfg.NATS.URL)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, event publishing disabled")
		} else {
			defer nc.Drain()
			deps.Publisher = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
			log.WithField("url", cfg.NATS.URL).Info("Publishing events to NATS")
		}
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("Redis ping failed, rate limiter will fail open until it recovers")
		}
		deps.Limiter = middleware.NewRedisRateLimiter(rdb)
	}

	files, err := storage.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare upload storage")
	}
	deps.Files = files

	// 6. Initialize services
	services := server.NewServices(deps)

	// 7. Start background worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go services.Worker.Start(ctx)

	// 8. Setup router
	gin.SetMode(cfg.Server.GinMode)
	router := server.NewRouter(deps, services)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// 9. Serve until interrupted
	go func() {
		log.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server exited")
}
