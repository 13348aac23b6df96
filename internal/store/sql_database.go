package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lovettlabs/contactsync/internal/config"
	"github.com/lovettlabs/contactsync/migrations"
)

// OpenDatabase opens the sqlite database backing the contact snapshot and
// the trusted-device list, and brings the schema up to date.
//
// The desktop store is a single-process file database; sqlite's default
// locking is sufficient because all engine writes already funnel through
// the store mutex and round checkpoints.
func OpenDatabase(cfg config.Storage) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database %q: %w", cfg.DBPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error pinging sqlite database %q: %w", cfg.DBPath, err)
	}

	if err := migrations.Migrate(db); err != nil {
		return nil, fmt.Errorf("error migrating sqlite database %q: %w", cfg.DBPath, err)
	}

	return db, nil
}
