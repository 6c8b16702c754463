package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/chessbuilder"
	appcfg "github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/config"
	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("tutor init error", zap.Error(err))
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("tutor shutdown close error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           deps.Server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tutor_http_listen", zap.String("addr", cfg.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	logger.Info("tutor_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}
}
