package server

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/lovettlabs/contactsync/internal/config"
	httphandler "github.com/lovettlabs/contactsync/internal/handler/http"
	"github.com/lovettlabs/contactsync/internal/logger"
)

type server struct {
	httpServer *httpServer
	discovery  *discoveryServer
	logger     *logger.Logger
}

func NewServer(handler *httphandler.Handler, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := new(server)

	if cfg.HTTPAddress != "" {
		servers.httpServer = newHTTPServer(handler.Init(), cfg, logger)
	}
	if cfg.DiscoveryPort != 0 {
		discovery, err := newDiscoveryServer(cfg, logger)
		if err != nil {
			return nil, err
		}
		servers.discovery = discovery
	}

	if servers.httpServer == nil {
		return nil, errNoServersAreCreated
	}

	servers.logger = logger

	return servers, nil
}

func (s *server) RunServer() {
	if err := s.run(); err != nil {
		s.logger.Info().Msgf("Error running server: %v \n", err)
	}
}

func (s *server) Shutdown() {
	if s.httpServer != nil {
		s.httpServer.Shutdown()
	}
	if s.discovery != nil {
		s.discovery.Shutdown()
	}
}

func (s *server) run() error {
	if s.httpServer == nil {
		return errors.New("no servers to run")
	}

	idleConnectionsClosed := make(chan struct{})
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	// listen for stop signals
	go func() {
		<-ctx.Done()

		// finish started servers
		s.Shutdown()

		close(idleConnectionsClosed)
	}()

	// launch all created servers
	s.logger.Info().Msg("Launching HTTP server")
	go s.httpServer.RunServer()

	if s.discovery != nil {
		s.logger.Info().Msg("Launching discovery beacon")
		go s.discovery.RunServer()
	}

	<-idleConnectionsClosed
	s.logger.Info().Msg("server Shutdown gracefully")

	return nil
}
