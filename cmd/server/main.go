package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinescope/backend/internal/api"
	"github.com/cinescope/backend/internal/auth"
	"github.com/cinescope/backend/internal/config"
	"github.com/cinescope/backend/internal/db"
	"github.com/cinescope/backend/internal/mail"
	"github.com/cinescope/backend/internal/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}

	userRepo := db.NewUserRepository(database)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	tokens := auth.NewTokens(cfg.SessionSecret)
	collector := metrics.NewCollector()

	authService := auth.NewService(userRepo, mailer, tokens, cfg.BcryptCost, cfg.BaseURL)
	authHandlers := auth.NewHandlers(authService, cfg.IsProduction(), collector)
	profileHandlers := api.NewProfileHandlers(authService)

	router := api.NewRouter(authHandlers, profileHandlers, tokens, collector, logger)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
