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

	"go.uber.org/zap"

	"github.com/marvingabia/da-agrimanage-gabia/config"
	"github.com/marvingabia/da-agrimanage-gabia/internal/api/handler"
	"github.com/marvingabia/da-agrimanage-gabia/internal/api/router"
	"github.com/marvingabia/da-agrimanage-gabia/internal/repository"
	"github.com/marvingabia/da-agrimanage-gabia/internal/service"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/database"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/jwt"
	applogger "github.com/marvingabia/da-agrimanage-gabia/pkg/logger"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/notify"
	"github.com/marvingabia/da-agrimanage-gabia/pkg/redis"
)

func main() {
	// 1. Config
	cfg, err := config.Load(os.Getenv("AGRI_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("duty_store", cfg.Duty.Store),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. Database and schema
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	if err := database.Prepare(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("prepare schema failed", zap.Error(err))
	}

	// 4. Redis is optional; without it tokens cannot be revoked and rate limits are off
	var rdb *redis.Client
	var revoker service.TokenRevoker
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, token revocation and rate limiting disabled", zap.Error(err))
			rdb = nil
		} else {
			revoker = rdb
		}
	}

	// 5. JWT
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. Repository → Service → Handler
	repo, err := repository.NewRepository(db, cfg.Duty.Store)
	if err != nil {
		logger.Fatal("init repository failed", zap.Error(err))
	}

	gateway, err := notify.New(&cfg.Mail, &cfg.SMS, logger.Named("gateway"))
	if err != nil {
		logger.Fatal("init notification gateway failed", zap.Error(err))
	}

	svc := service.NewService(cfg, repo, jwtMgr, gateway, revoker, logger)
	h := handler.NewHandler(svc, &cfg.Auth.Cookie)

	// 7. Router
	engine, err := router.Setup(cfg, h, jwtMgr, rdb, logger)
	if err != nil {
		logger.Fatal("init router failed", zap.Error(err))
	}

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
