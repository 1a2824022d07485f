package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/paylinkhq/server/internal/config"
	"github.com/paylinkhq/server/internal/httpserver"
	"github.com/paylinkhq/server/pkg/paylink"
)

const shutdownGrace = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("config.load_failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := paylink.NewApp(ctx, cfg)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("app.init_failed")
	}
	log := app.Logger()

	srv := httpserver.New(cfg, app.Handler())

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Str("cluster", cfg.Solana.Cluster).
			Str("route_prefix", cfg.Server.RoutePrefix).
			Msg("server.listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server.listen_failed")
		}
	case <-ctx.Done():
		log.Info().Msg("server.shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server.shutdown_failed")
	}
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("app.close_failed")
	}
	log.Info().Msg("server.stopped")
}
