package store

import (
	"database/sql"
	"fmt"

	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/internal/logger"
)

// Storages aggregates every persistence dependency of the sync engine.
type Storages struct {
	ContactRepository       ContactRepository
	TrustedDeviceRepository TrustedDeviceRepository

	db *sql.DB
}

// NewStorages opens the sqlite database, migrates the schema, and wires up
// the repositories.
func NewStorages(cfg config.Storage, log *logger.Logger) (*Storages, error) {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating storages: %w", err)
	}

	return &Storages{
		ContactRepository:       NewContactRepository(db, log),
		TrustedDeviceRepository: NewTrustedDeviceRepository(db, log),
		db:                      db,
	}, nil
}

// Close releases the underlying database handle.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
