// Package entries provides the PostgreSQL-backed Entry Store. Entries carry
// no owner column; ownership lives in the account record.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new entry. The ID must already be assigned.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (id, title, content, created_on)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.Title, entry.Content, entry.CreatedOn); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get loads an entry by ID. Identifiers that are not UUIDs cannot exist and
// are reported as not found without a round trip.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	query := `SELECT id, title, content, created_on FROM journal_entries WHERE id = $1`

	var e models.JournalEntry
	err := r.db.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Title, &e.Content, &e.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &e, nil
}

// Update rewrites title and content. created_on is never part of the write.
func (r *PostgresRepository) Update(ctx context.Context, entry *models.JournalEntry) error {
	if !validID(entry.ID) {
		return common.ErrorNotFound
	}

	query := `UPDATE journal_entries SET title = $2, content = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, entry.ID, entry.Title, entry.Content)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes an entry by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}
