package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophjournal/internal/server/models"
)

// Repository is the Account Store.
type Repository interface {
	// Upsert inserts the account or replaces the stored one when its
	// Version still matches. On success a.Version holds the new version.
	Upsert(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUserName(ctx context.Context, userName string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	// Delete removes the account when its Version still matches.
	Delete(ctx context.Context, a *models.Account) error
}
