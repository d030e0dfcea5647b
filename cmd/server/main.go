package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"finguard/internal/app"
	"finguard/internal/config"
	"finguard/internal/handler"
	"finguard/internal/logger"
	"finguard/internal/router"
	"finguard/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer a.Close()

	// Initialize services
	tokenSvc := service.NewTokenService(cfg.JWT)
	validationSvc := service.NewValidationService(a.Engine, a.Runs, a.Storage, service.ValidationServiceConfig{
		Concurrency:  cfg.Engine.BatchConcurrency,
		MaxBatchSize: cfg.Engine.MaxBatchSize,
		ReportBucket: cfg.S3.Bucket,
		ReportPrefix: cfg.S3.ReportPrefix,
	}, zl)

	// Initialize handlers
	validationH := handler.NewValidationHandler(validationSvc, zl)
	var pinger handler.Pinger
	if a.DB != nil {
		pinger = a.DB
	}
	healthH := handler.NewHealthHandler(pinger)

	r := router.Setup(cfg, zl, tokenSvc, validationH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
