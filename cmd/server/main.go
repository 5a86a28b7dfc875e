package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/api"
	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
	"github.com/d60-Lab/yatube/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// @title Yatube API
// @version 1.0
// @description Yatube 只读 JSON 接口：帖子、评论、分组与关注关系
// @BasePath /
func main() {
	if err := run(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	defer logger.Sync()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := middleware.InitSentry(cfg.Sentry)
	if err != nil {
		return err
	}
	defer flush()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	cacheStore, rdb, err := cache.Open(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	app := api.NewApp(cfg, db, store, cacheStore, nil)
	stopThumbs := app.Thumbnails.Start(cfg.Auth.ThumbWorkers)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stopThumbs(sctx); err != nil {
			logger.Warn("thumbnail workers did not drain", zap.Error(err))
		}
	}()

	sessionStore, err := auth.NewStore(cfg.Session, db)
	if err != nil {
		return err
	}
	limiter := auth.NewIPRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst)
	go limiter.Run(ctx, time.Minute, 10*time.Minute)
	if ms, ok := cacheStore.(*cache.MemoryStore); ok {
		go ms.Run(ctx, time.Minute)
	}

	router, err := api.SetupRouter(cfg, app, sessionStore, limiter)
	if err != nil {
		return err
	}

	if len(cfg.Server.TLSDomains) > 0 {
		logger.Info("serving with autotls", zap.Strings("domains", cfg.Server.TLSDomains))
		return autotls.RunWithContext(ctx, router, cfg.Server.TLSDomains...)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
