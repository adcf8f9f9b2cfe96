package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Guessometer/internal/app"
	"github.com/Alias1177/Guessometer/internal/config"
	"github.com/Alias1177/Guessometer/internal/logging"
	"github.com/Alias1177/Guessometer/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}

	deps := server.Deps{
		Predictions:  a.Predictions,
		Stats:        a.Stats,
		Users:        a.DB,
		Categories:   a.DB,
		AdminKeyHash: cfg.AdminKeyHash,
		Timeout:      cfg.Timeout(),
	}
	if a.Importer != nil {
		deps.Importer = a.Importer
	}
	if cfg.AdminKeyHash == "" {
		log.Warn().Msg("ADMIN_KEY_HASH not set, admin routes are disabled")
	}
	srv := server.New(deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Closing services")
	}
	log.Info().Msg("Server stopped")
}
