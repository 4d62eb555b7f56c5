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

	"bazaar/backend/internal/api"
	"bazaar/backend/internal/api/handler"
	"bazaar/backend/internal/app"
	"bazaar/backend/internal/config"
	"bazaar/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.FromConfig(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET не встановлено!")
	}
	gin.SetMode(cfg.GinMode)

	log.Info("starting bazaar backend", zap.String("store", cfg.StoreDriver))

	// 1. Ініціалізація залежностей
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(startCtx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}

	// 2. Роутинг
	h := handler.NewHandler(a.Registry, a.Ledger, a.Engine, nil, a.Store)
	if a.Inbox != nil {
		h.Inbox = a.Inbox
	}
	r := api.NewRouter(h, cfg.JWTSecret, a.Guard, log)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// 3. Очікування сигналу завершення
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Warn("closing connections", zap.Error(err))
	}
	log.Info("server stopped")
}
