package http

import (
	"context"

	"github.com/lovettlabs/contactsync/models"
)

// SyncEngine is the part of the sync engine the transport needs: envelope
// dispatch, trust decisions, and status surfaces.
type SyncEngine interface {
	OnMessage(ctx context.Context, addr string, m models.Message) *models.Message
	Allow(ctx context.Context, addr string) error
	Sessions() []models.DeviceSession
	Version() string
}
