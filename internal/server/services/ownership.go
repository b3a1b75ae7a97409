package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/repomanager"
)

// OwnershipGuard decides whether a principal owns an entry. Ownership is
// membership in the account's owned-entries list; the Entry Store is never
// consulted.
type OwnershipGuard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewOwnershipGuard(db *sql.DB, m repomanager.RepositoryManager) *OwnershipGuard {
	return &OwnershipGuard{db: db, repomanager: m}
}

// VerifyOwnership reports whether entryID is in the owned list of the
// account named userName. It fails with ErrAccountNotFound when the
// username does not resolve; callers must treat that as "not authorized".
func (g *OwnershipGuard) VerifyOwnership(ctx context.Context, userName, entryID string) (bool, error) {
	a, err := loadAccount(ctx, g.repomanager, g.db, userName)
	if err != nil {
		return false, classify("verify ownership", err)
	}
	_, ok := a.OwnedEntry(entryID)
	return ok, nil
}
