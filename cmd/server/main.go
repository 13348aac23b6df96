package main

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/lovettlabs/contactsync/internal/config"
	httphandler "github.com/lovettlabs/contactsync/internal/handler/http"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/server"
	"github.com/lovettlabs/contactsync/internal/store"
	"github.com/lovettlabs/contactsync/internal/syncer"
	"github.com/lovettlabs/contactsync/internal/workers"
	"github.com/lovettlabs/contactsync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("contactsync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	engine := syncer.NewEngine(cfg.App.Version, cfg.Sync, storages, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err = engine.LoadStore(ctx); err != nil {
		log.Fatal().Err(err).Msg("error loading contact store")
	}

	clk := clock.New()
	workers.NewWorkers(
		workers.NewCheckpointWorker(ctx, engine, cfg.Sync.CheckpointInterval, clk, log),
		workers.NewSweepWorker(ctx, engine, cfg.Sync.SessionIdleTimeout, clk, log),
	).Run()

	handler := httphandler.NewHandler(engine, log)

	srv, err := server.NewServer(handler, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	info := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	fmt.Printf("Build version: %s\n", info.BuildVersion())
	fmt.Printf("Build date: %s\n", info.BuildDate())
	fmt.Printf("Build commit: %s\n", info.BuildCommit())
}
