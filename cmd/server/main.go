package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/PersonalGenomesOrg/gennotes/internal/app"
	"github.com/PersonalGenomesOrg/gennotes/internal/database"
	"github.com/PersonalGenomesOrg/gennotes/internal/email"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/config"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/logging"
	"github.com/PersonalGenomesOrg/gennotes/internal/platform/version"
	"github.com/PersonalGenomesOrg/gennotes/internal/server"
	"github.com/PersonalGenomesOrg/gennotes/internal/token"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"port", cfg.Port,
		"version", version.Version,
	)

	pool := setupDB(cfg)
	defer pool.Close()

	mailer, err := email.New(cfg, clock)
	if err != nil {
		slog.Error("Failed to create email backend", "error", err)
		os.Exit(1)
	}

	userRepo := database.NewUserRepo(pool)
	variantRepo := database.NewVariantRepo(pool)
	relationRepo := database.NewRelationRepo(pool)
	editRepo := database.NewEditRepo(pool)

	signer := token.NewSigner(cfg.SecretKey, clock)
	appSvc := app.NewService(userRepo, variantRepo, relationRepo, editRepo, mailer, signer, cfg.BaseURL, clock)

	srv := server.NewServer(cfg, appSvc, pool)

	done := runGracefulShutdown(srv)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
