package adapter

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lovettlabs/contactsync/internal/protocol"
)

// Discover broadcasts a service probe on the given UDP port and returns the
// base URL of the first server that answers. It gives up when ctx is done or
// after timeout, whichever comes first.
func Discover(ctx context.Context, port int, timeout time.Duration) (string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return "", fmt.Errorf("discovery socket: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("discovery deadline: %w", err)
	}

	// Closing the socket unblocks ReadFrom, so cancellation takes effect
	// immediately instead of waiting out the deadline.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	target := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	if _, err = conn.WriteTo([]byte(protocol.DiscoveryProbe), target); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s", ErrNoServerFound, ctx.Err())
		}
		return "", fmt.Errorf("discovery probe: %w", err)
	}

	buf := make([]byte, 256)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %s", ErrNoServerFound, ctx.Err())
			}
			return "", fmt.Errorf("%w: %s", ErrNoServerFound, err)
		}

		answer := strings.TrimSpace(string(buf[:n]))
		if !strings.HasPrefix(answer, protocol.DiscoveryAnnouncePrefix) {
			continue
		}

		addr := strings.TrimPrefix(answer, protocol.DiscoveryAnnouncePrefix)

		// The server may announce a wildcard listen address; substitute the
		// host the answer actually came from.
		if host, portPart, splitErr := net.SplitHostPort(addr); splitErr == nil {
			if host == "" || host == "0.0.0.0" || host == "::" {
				if fromHost, _, fromErr := net.SplitHostPort(from.String()); fromErr == nil {
					addr = net.JoinHostPort(fromHost, portPart)
				}
			}
		}

		return "http://" + addr, nil
	}
}
