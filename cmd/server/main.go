package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/d2bcart/backend/internal/bootstrap"
	"github.com/d2bcart/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init --dir ../.. --generalInfo cmd/server/main.go --output ../../docs --exclude ../../_examples

//	@title			D2BCart API
//	@version		1.0
//	@description	B2B wholesale marketplace connecting manufacturers with retailers
//	@contact.name	D2BCart Engineering

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, tel, err := bootstrap.NewLogger(context.Background(), cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting D2BCart backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	app, err := bootstrap.New(context.Background(), cfg, log, tel.Metrics)
	if err != nil {
		log.Fatal("Failed to wire application", zap.Error(err))
	}
	if err := app.Start(context.Background()); err != nil {
		log.Fatal("Failed to start background workers", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      newEngine(app),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := app.Close(ctx); err != nil {
		log.Error("Failed to release resources", zap.Error(err))
	}
	if err := tel.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
