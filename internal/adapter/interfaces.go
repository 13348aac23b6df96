// Package adapter provides the device-side transport for talking to the
// desktop sync server.
//
// The primary abstraction is [ServerTransport], which decouples the sync
// runner from the underlying protocol. The package ships an HTTP
// implementation ([NewHTTPServerProxy]) and a UDP helper ([Discover]) for
// finding the server on the local network.
package adapter

import (
	"context"

	"github.com/lovettlabs/contactsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_transport_mock.go -package=mock

// ServerTransport carries wire envelopes between the device and the server.
// Implementations are responsible for envelope serialization and for mapping
// transport-level failures to the sentinel values defined in this package.
type ServerTransport interface {
	// Exchange posts one envelope to the server and returns its reply, or
	// nil when the server had none. A nil reply is a normal outcome for
	// commands such as Hello.
	Exchange(ctx context.Context, m models.Message) (*models.Message, error)

	// ServerVersion fetches the server's protocol compatibility version.
	ServerVersion(ctx context.Context) (string, error)
}
