package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/config"
	"github.com/roktofy/client/internal/mockapi"
)

func main() {
	// env vars override .env
	_ = godotenv.Load(".env")

	cfg, err := config.LoadMock()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store := mockapi.NewStore()
	if cfg.SeedDemo {
		if err := store.Seed(); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
		logger.Info("seeded demo accounts",
			zap.String("donor", mockapi.DemoEmail),
			zap.String("admin", mockapi.AdminEmail),
			zap.String("recipient", mockapi.RecipientEmail),
		)
	}

	api := mockapi.NewServer(cfg, store, logger)
	defer api.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("mock API listening", zap.String("addr", srv.Addr), zap.String("prefix", mockapi.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
