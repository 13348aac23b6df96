package server

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
)

// discoveryServer answers UDP service probes from devices on the local
// network so a phone can find the desktop without manual configuration.
type discoveryServer struct {
	conn   net.PacketConn
	reply  []byte
	logger *logger.Logger
}

func newDiscoveryServer(cfg config.Server, logger *logger.Logger) (*discoveryServer, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", cfg.DiscoveryPort))
	if err != nil {
		return nil, fmt.Errorf("error starting discovery beacon: %w", err)
	}

	return &discoveryServer{
		conn:   conn,
		reply:  []byte(protocol.DiscoveryAnnouncePrefix + cfg.HTTPAddress),
		logger: logger,
	}, nil
}

func (d *discoveryServer) RunServer() {
	buf := make([]byte, 256)

	for {
		n, addr, err := d.conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				d.logger.Error().Err(err).Msg("discovery beacon read")
			}
			return
		}

		if strings.TrimSpace(string(buf[:n])) != protocol.DiscoveryProbe {
			continue
		}

		if _, err := d.conn.WriteTo(d.reply, addr); err != nil {
			d.logger.Warn().Err(err).Str("addr", addr.String()).Msg("error answering discovery probe")
		}
	}
}

func (d *discoveryServer) Shutdown() {
	if err := d.conn.Close(); err != nil {
		d.logger.Error().Err(err).Msg("discovery beacon Shutdown")
	}
}
