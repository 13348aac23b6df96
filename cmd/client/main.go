package main

import (
	"context"
	"fmt"

	"github.com/lovettlabs/contactsync/internal/adapter"
	"github.com/lovettlabs/contactsync/internal/client"
	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
	"github.com/lovettlabs/contactsync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("contactsync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx := context.Background()

	serverURL := cfg.Adapter.ServerURL
	if serverURL == "" {
		serverURL, err = adapter.Discover(ctx, cfg.Adapter.DiscoveryPort, cfg.Adapter.RequestTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("error discovering sync server")
		}
		log.Info().Str("server_url", serverURL).Msg("sync server discovered")
		cfg.Adapter.ServerURL = serverURL
	}

	transport, err := adapter.NewHTTPServerProxy(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server proxy")
	}

	deviceID, err := client.EnsureDeviceID(cfg.Device.IDFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading device id")
	}

	replica, err := client.LoadReplica(cfg.Storage.ReplicaPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading replica")
	}

	handshake := protocol.Handshake{
		ClientVersion: cfg.App.Version,
		DeviceName:    cfg.Device.Name,
		DeviceID:      deviceID,
	}

	runner := client.NewSyncRunner(transport, replica, handshake, cfg.Adapter.RetryInterval, log)
	if err = runner.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("sync round failed")
	}
}

func printBuildInfo() {
	info := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	fmt.Printf("Build version: %s\n", info.BuildVersion())
	fmt.Printf("Build date: %s\n", info.BuildDate())
	fmt.Printf("Build commit: %s\n", info.BuildCommit())
}
