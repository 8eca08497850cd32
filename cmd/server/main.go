package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"bookdrop/internal/config"
	"bookdrop/internal/domain/device"
	"bookdrop/internal/domain/session"
	"bookdrop/internal/domain/upload"
	"bookdrop/internal/infrastructure/converter"
	"bookdrop/internal/infrastructure/logger"
	"bookdrop/internal/infrastructure/observability"
	"bookdrop/internal/infrastructure/storage"
	"bookdrop/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	store := storage.New(cfg, log)
	if err := store.Reset(); err != nil {
		log.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("prepare storage directory")
	}

	registry := session.NewRegistry(store, cfg.SessionIdleTTL, cfg.SessionHardTTL, log)

	converters := map[device.Class]upload.Converter{
		device.ClassKindle: converter.NewKindlegen(cfg.KindlegenPath, cfg.ConvertTimeout, log),
		device.ClassKobo:   converter.NewKepubify(cfg.KepubifyPath, cfg.ConvertTimeout, log),
	}

	uploads := upload.NewService(registry, store, converters, cfg.MaxUploadBytes, cfg.MaxUploadFiles, log)

	httpServer := httpserver.New(cfg, log, registry, uploads, store)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
