package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/regiondesk/backend/internal/access"
	"github.com/regiondesk/backend/internal/config"
	"github.com/regiondesk/backend/internal/db"
	"github.com/regiondesk/backend/internal/events"
	httpapi "github.com/regiondesk/backend/internal/http"
	"github.com/regiondesk/backend/internal/region"
	"github.com/regiondesk/backend/internal/service"
	"github.com/regiondesk/backend/internal/ticketing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "regiondesk-gateway").Logger()

	groups, err := region.ParseGroupOverrides(cfg.RegionGroups)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REGION_GROUPS")
	}
	directory := region.NewDirectory(groups, cfg.FallbackGroupID)

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var client ticketing.Client
	if cfg.TicketingURL == "" {
		client = ticketing.SeedMockClient()
		logger.Info().Msg("using mock ticketing backend")
	} else {
		client = &ticketing.HTTPClient{BaseURL: cfg.TicketingURL, Token: cfg.TicketingToken}
	}

	evaluator := access.Evaluator{Directory: directory}
	assigner := &service.Assigner{
		Ticketing:    client,
		Directory:    directory,
		SystemEmails: cfg.SystemEmails(),
		Logger:       logger,
	}

	hub := events.NewHub(logger)
	go hub.Run()

	router := httpapi.Router(cfg, store, client, evaluator, assigner, hub, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
