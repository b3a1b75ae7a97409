// Package accounts provides the PostgreSQL-backed Account Store. The owned
// entries of an account are kept inline as a JSONB array of full entry
// records.
package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes the account as given. A missing ID is assigned here.
//
// Existing rows are only replaced when their version equals a.Version;
// otherwise nothing is written and ErrVersionConflict is returned. A
// username taken by another account yields ErrUniquenessViolation.
func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	roles, err := marshalList(a.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	entries, err := marshalList(a.Entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	query := `
		INSERT INTO accounts (id, username, credential, roles, entries, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (id)
		DO UPDATE SET
			username = EXCLUDED.username,
			credential = EXCLUDED.credential,
			roles = EXCLUDED.roles,
			entries = EXCLUDED.entries,
			version = accounts.version + 1
			WHERE accounts.version = $6
		RETURNING version
	`
	var version int64
	err = r.db.QueryRowContext(ctx, query,
		a.ID, a.UserName, a.Credential, roles, entries, a.Version).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrVersionConflict
		}
		if dbx.IsUniqueViolation(err) {
			return common.ErrUniquenessViolation
		}
		return fmt.Errorf("db error: %w", err)
	}

	a.Version = version
	return nil
}

// GetByID loads the account with the given ID. Identifiers that are not
// UUIDs cannot exist and are reported as not found without a round trip.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT id, username, credential, roles, entries, version FROM accounts WHERE id = $1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// GetByUserName loads the account with the given username.
func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.Account, error) {
	query :=
		`SELECT id, username, credential, roles, entries, version FROM accounts
		 WHERE username = $1
		 `

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, userName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// List returns every account ordered by username.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT id, username, credential, roles, entries, version FROM accounts ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the account row if nobody wrote it since it was read.
// A missing row and a newer version both yield ErrVersionConflict; the
// caller reloads to tell them apart. Owned entries are the caller's concern.
func (r *PostgresRepository) Delete(ctx context.Context, a *models.Account) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND version = $2`, a.ID, a.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrVersionConflict
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var (
		a              models.Account
		roles, entries []byte
	)
	if err := s.Scan(&a.ID, &a.UserName, &a.Credential, &roles, &entries, &a.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roles, &a.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	if err := json.Unmarshal(entries, &a.Entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return &a, nil
}

// marshalList encodes a nil slice as an empty JSON array.
func marshalList[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}
