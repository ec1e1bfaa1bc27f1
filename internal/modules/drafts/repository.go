package drafts

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradejournal/internal/database"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrDraftNotFound is returned when no draft has the requested id
var ErrDraftNotFound = errors.New("draft not found")

// Repository stores drafts in the local database
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a draft repository over a migrated drafts database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "drafts").Logger(),
	}
}

// Save inserts or replaces the draft of d.SessionID. A session has at most
// one draft: saving again keeps the original id and creation time.
func (r *Repository) Save(d *Draft) error {
	if d.SessionID == "" {
		return fmt.Errorf("draft has no session id")
	}

	blob, err := msgpack.Marshal(payload{
		Form:            d.Form,
		StagedPaths:     d.StagedPaths,
		Persisted:       d.Persisted,
		PendingDeletion: d.PendingDeletion,
	})
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	now := r.now().UTC()
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var existingID string
		var createdAt int64
		err := tx.QueryRow(`SELECT id, created_at FROM drafts WHERE session_id = ?`, d.SessionID).Scan(&existingID, &createdAt)
		switch {
		case err == nil:
			d.ID = existingID
			d.CreatedAt = time.UnixMilli(createdAt).UTC()
		case errors.Is(err, sql.ErrNoRows):
			if d.ID == "" {
				d.ID = uuid.New().String()
			}
			d.CreatedAt = now
		default:
			return fmt.Errorf("failed to look up draft for session %s: %w", d.SessionID, err)
		}
		d.UpdatedAt = now

		_, err = tx.Exec(`
			INSERT OR REPLACE INTO drafts (id, session_id, journal_id, trade_id, payload, last_error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.SessionID, d.JournalID, d.TradeID, blob, d.LastError,
			d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to store draft %s: %w", d.ID, err)
		}

		r.log.Debug().Str("draft_id", d.ID).Str("session_id", d.SessionID).Msg("Draft saved")
		return nil
	})
}

const selectColumns = `SELECT id, session_id, journal_id, trade_id, payload, last_error, created_at, updated_at FROM drafts`

// Get returns the draft with id
func (r *Repository) Get(id string) (*Draft, error) {
	row := r.db.QueryRow(selectColumns+` WHERE id = ?`, id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	return d, nil
}

// List returns drafts, most recently updated first. An empty journalID
// lists every journal.
func (r *Repository) List(journalID string) ([]Draft, error) {
	query := selectColumns
	var args []interface{}
	if journalID != "" {
		query += ` WHERE journal_id = ?`
		args = append(args, journalID)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var out []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drafts: %w", err)
	}
	return out, nil
}

// Delete removes the draft with id
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return nil
}

// DeleteBySession removes the draft of a session, if any, and returns the
// number of rows removed
func (r *Repository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM drafts WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete draft of session %s: %w", sessionID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes drafts last updated before cutoff
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM drafts WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete drafts older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDraft(s scanner) (*Draft, error) {
	var (
		d                    Draft
		blob                 []byte
		createdAt, updatedAt int64
	)
	if err := s.Scan(&d.ID, &d.SessionID, &d.JournalID, &d.TradeID, &blob, &d.LastError, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var p payload
	if err := msgpack.Unmarshal(blob, &p); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", d.ID, err)
	}
	d.Form = p.Form
	d.StagedPaths = p.StagedPaths
	d.Persisted = p.Persisted
	d.PendingDeletion = p.PendingDeletion
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	d.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &d, nil
}
