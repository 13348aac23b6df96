package store

import (
	"context"

	"github.com/lovettlabs/contactsync/models"
)

// ContactRepository persists the authoritative contact collection. The sync
// engine calls LoadAll once at startup and SaveAll at round checkpoints
// (FinishUpdate and the background autosave worker); it performs no other
// disk I/O.
type ContactRepository interface {
	LoadAll(ctx context.Context) ([]models.Contact, error)
	SaveAll(ctx context.Context, contacts []models.Contact) error
}

// TrustedDeviceRepository persists the device allow-list. The list is
// read-mostly and append-only: devices are trusted once and never untrusted
// by the engine itself.
type TrustedDeviceRepository interface {
	IsTrusted(ctx context.Context, deviceID string) (bool, error)
	Trust(ctx context.Context, deviceID string) error
	List(ctx context.Context) ([]string, error)
}
