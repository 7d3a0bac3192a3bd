package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/config"
	"github.com/chxdon9587/NextForD/internal/database"
	"github.com/chxdon9587/NextForD/internal/event"
	"github.com/chxdon9587/NextForD/internal/logger"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/chxdon9587/NextForD/internal/payment"
	"github.com/chxdon9587/NextForD/internal/router"
	"github.com/chxdon9587/NextForD/internal/storage"
	"github.com/chxdon9587/NextForD/internal/task"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// redis 未配置时不缓存，验证码存内存
	var (
		pageCache cache.ProjectCache = cache.Nop{}
		otpStore  auth.OTPStore      = auth.NewMemoryOTPStore()
	)
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		pageCache = cache.NewRedisCache(rdb, cfg.Cache.ProjectPageTTL)
		otpStore = auth.NewRedisOTPStore(rdb)
	} else {
		logger.Warn("Redis is not configured, project pages will not be cached")
	}

	var publisher event.Publisher = event.LogPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := event.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	dispatcher, err := event.NewDispatcher(db, publisher, cfg.Task.DispatchWorkers, cfg.Task.DispatchBatch, cfg.Task.MaxAttempts)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	store := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		DB:          db,
		Cache:       pageCache,
		Store:       store,
		UploadDir:   store.Dir(),
		Payment:     payment.NewMockGateway(),
		Tokens:      auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		OTP:         auth.NewOTPService(otpStore, auth.LogMailer{}, cfg.Auth.OTPTTL),
		MaxUploadMB: cfg.Storage.MaxUploadMB,
	})

	// 启动定时任务
	manager, err := task.NewManager(
		task.NewProjectFinishJob(logic.NewProjectLogic(db, pageCache, store), cfg.Task.Interval),
		task.NewEventDispatchJob(dispatcher, cfg.Task.DispatchInterval),
	)
	if err != nil {
		return err
	}
	if err := manager.Start(); err != nil {
		return err
	}
	defer manager.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
