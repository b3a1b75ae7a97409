package entries

import (
	"context"

	"github.com/dmitrijs2005/gophjournal/internal/server/models"
)

// Repository is the Entry Store.
type Repository interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	Get(ctx context.Context, id string) (*models.JournalEntry, error)
	Update(ctx context.Context, entry *models.JournalEntry) error
	Delete(ctx context.Context, id string) error
}
