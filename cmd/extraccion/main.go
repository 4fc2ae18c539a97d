package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"3tcapital/ms_extraccion_gastos/internal/adapters/document/gemini"
	"3tcapital/ms_extraccion_gastos/internal/adapters/document/validation"
	extractionhttp "3tcapital/ms_extraccion_gastos/internal/adapters/http/extraction"
	"3tcapital/ms_extraccion_gastos/internal/application/extraction"
	"3tcapital/ms_extraccion_gastos/internal/infrastructure/config"
	infrahttp "3tcapital/ms_extraccion_gastos/internal/infrastructure/http"
	"3tcapital/ms_extraccion_gastos/internal/infrastructure/http/middleware"
	"3tcapital/ms_extraccion_gastos/internal/infrastructure/http/server"
	"3tcapital/ms_extraccion_gastos/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	breaker := gemini.NewCircuitBreaker(cfg.Gemini.BreakerThreshold, cfg.Gemini.BreakerCooldown)

	tracedClient := infrahttp.NewTracedClient(&infrahttp.TracedClientConfig{
		Timeout: cfg.Gemini.APITimeout,
	}, log, "gemini")

	gateway := gemini.NewClient(gemini.Config{
		BaseURL:         cfg.Gemini.BaseURL,
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		PollInterval:    cfg.Gemini.PollInterval,
		PollMaxAttempts: cfg.Gemini.PollMaxAttempts,
	}, tracedClient, breaker, log)

	validator := validation.NewValidator(validation.Limits{
		MaxFileSizeBytes: cfg.Validation.MaxFileSizeBytes,
		MaxPDFPages:      cfg.Validation.MaxPDFPages,
		MinPDFWidth:      cfg.Validation.MinPDFWidth,
		MinPDFHeight:     cfg.Validation.MinPDFHeight,
		MinImageWidth:    cfg.Validation.MinImageWidth,
		MinImageHeight:   cfg.Validation.MinImageHeight,
	}, log)

	retry := extraction.NewRetryPolicy(cfg.Gemini.MaxRetries, cfg.Gemini.RetryBaseDelay, log)
	service := extraction.NewService(gateway, validator, gemini.ParseResponse, retry, gateway.Model(), log)

	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("configure auth: %w", err)
	}
	defer auth.Close()

	handler := extractionhttp.NewHandler(service, cfg.Validation.MaxFileSizeBytes, log)

	srv, err := server.New(server.Options{
		Addr:            cfg.HTTP.Address(),
		Logger:          log,
		ServiceName:     cfg.App.Name,
		Version:         cfg.App.Version,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		ExtractHandler:  handler.ExtractDocument,
		Auth:            auth,
		BreakerState: func() string {
			return breaker.State().String()
		},
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Starting HTTP server",
		"port", cfg.HTTP.Port,
		"model", cfg.Gemini.Model,
		"auth_enabled", cfg.Auth.Enabled)
	return srv.Run(ctx)
}
