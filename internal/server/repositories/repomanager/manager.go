package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/entries"
)

// RepositoryManager vends store implementations bound to a connection or to
// an open transaction, so one transaction can span both stores.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Entries(db dbx.DBTX) entries.Repository
}
