package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"github.com/lovettlabs/contactsync/internal/logger"
)

// trustedDeviceRepository persists the device allow-list. Reads are served
// from an in-memory cache loaded lazily from the database; the list is
// append-only, so a cached positive answer can never go stale. Appends are
// serialized through the repository mutex.
type trustedDeviceRepository struct {
	db     *sql.DB
	logger *logger.Logger

	mu     sync.RWMutex
	loaded bool
	cache  map[string]struct{}
}

// NewTrustedDeviceRepository constructs a [TrustedDeviceRepository] backed
// by the given database handle.
func NewTrustedDeviceRepository(db *sql.DB, log *logger.Logger) TrustedDeviceRepository {
	return &trustedDeviceRepository{
		db:     db,
		logger: log,
		cache:  make(map[string]struct{}),
	}
}

func (r *trustedDeviceRepository) IsTrusted(ctx context.Context, deviceID string) (bool, error) {
	if deviceID == "" {
		return false, nil
	}

	if err := r.ensureLoaded(ctx); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cache[deviceID]
	return ok, nil
}

func (r *trustedDeviceRepository) Trust(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrEmptyDeviceID
	}

	if err := r.ensureLoaded(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache[deviceID]; ok {
		return nil
	}

	query, args, err := sq.
		Insert("trusted_devices").
		Columns("device_id").
		Values(deviceID).
		Suffix("ON CONFLICT (device_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}

	r.cache[deviceID] = struct{}{}
	r.logger.Info().Str("device_id", deviceID).Msg("device trusted")
	return nil
}

func (r *trustedDeviceRepository) List(ctx context.Context) ([]string, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *trustedDeviceRepository) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	query, args, err := sq.Select("device_id").From("trusted_devices").ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("%w: %v", ErrScanningRows, err)
		}
		r.cache[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrScanningRows, err)
	}

	r.loaded = true
	return nil
}
