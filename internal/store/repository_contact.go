package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/models"
)

// contactRepository persists the contact snapshot in sqlite. The payload
// column carries the full external record format; foreign_id and version
// are lifted out for inspection with plain SQL tooling.
type contactRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewContactRepository constructs a [ContactRepository] backed by the given
// database handle.
func NewContactRepository(db *sql.DB, log *logger.Logger) ContactRepository {
	return &contactRepository{db: db, logger: log}
}

func (r *contactRepository) LoadAll(ctx context.Context) ([]models.Contact, error) {
	query, args, err := sq.
		Select("payload").
		From("contacts").
		OrderBy("foreign_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrScanningRows, err)
		}

		contact, err := models.ParseContact(payload)
		if err != nil {
			// One unreadable row must not block loading the rest.
			r.logger.Warn().Err(err).Msg("skipping unparseable persisted contact")
			continue
		}
		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScanningRows, err)
	}

	return contacts, nil
}

// SaveAll replaces the persisted snapshot with the given contacts in a
// single transaction, so a failed checkpoint leaves the previous snapshot
// intact.
func (r *contactRepository) SaveAll(ctx context.Context, contacts []models.Contact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrExecutingQuery, err)
	}
	defer tx.Rollback()

	deleteQuery, deleteArgs, err := sq.Delete("contacts").ToSql()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}

	for _, contact := range contacts {
		payload, err := contact.ToJSON()
		if err != nil {
			return fmt.Errorf("serializing contact %q: %w", contact.ForeignID, err)
		}

		insertQuery, insertArgs, err := sq.
			Insert("contacts").
			Columns("foreign_id", "version", "payload").
			Values(contact.ForeignID, contact.VersionNumber, payload).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
		}

		res, err := tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExecutingQuery, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("%w: %q", ErrContactNotSaved, contact.ForeignID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrExecutingQuery, err)
	}

	r.logger.Debug().Int("count", len(contacts)).Msg("contact snapshot persisted")
	return nil
}
