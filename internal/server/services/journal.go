package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ReferenceWriter persists an account without touching its credential or
// roles. It is the only account write the journal coordinator can reach.
type ReferenceWriter interface {
	UpsertReference(ctx context.Context, tx dbx.DBTX, a *models.Account) error
}

// JournalService coordinates the Entry Store and the owned-entries list
// embedded in each account. Every multi-write operation runs in one
// transaction spanning both stores and is replayed as a whole when the
// owner account was modified concurrently.
type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	references  ReferenceWriter
	logger      logging.Logger
	maxRetries  uint64
	now         func() time.Time
}

// NewJournalService constructs a JournalService.
func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, refs ReferenceWriter, logger logging.Logger, maxRetries uint64) *JournalService {
	return &JournalService{
		db:          db,
		repomanager: m,
		references:  refs,
		logger:      logger.With("module", "journal"),
		maxRetries:  maxRetries,
		now:         time.Now,
	}
}

// CreateEntry stores a new entry dated today and appends it to the owner's
// list. Neither write survives if the other fails.
func (s *JournalService) CreateEntry(ctx context.Context, owner string, draft models.EntryDraft) (*models.JournalEntry, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	var created *models.JournalEntry
	err := withConflictRetry(ctx, s.maxRetries, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			account, err := loadAccount(ctx, s.repomanager, tx, owner)
			if err != nil {
				return err
			}

			entry := &models.JournalEntry{
				ID:        uuid.NewString(),
				Title:     draft.Title,
				Content:   draft.Content,
				CreatedOn: models.Day(s.now()),
			}
			if err := s.repomanager.Entries(tx).Create(ctx, entry); err != nil {
				return fmt.Errorf("write entry: %w", err)
			}

			account.Entries = append(account.Entries, *entry)
			if err := s.references.UpsertReference(ctx, tx, account); err != nil {
				return fmt.Errorf("link entry to owner: %w", err)
			}

			created = entry
			return nil
		})
	})
	if err != nil {
		s.logFailure(ctx, "create entry", err, "username", owner)
		return nil, classify("create entry", err)
	}

	s.logger.Info(ctx, "entry created", "username", owner, "entry_id", created.ID)
	return created, nil
}

// GetOwnedEntries returns the owner's list in insertion order. These are the
// copies embedded in the account, not fresh reads of the Entry Store.
func (s *JournalService) GetOwnedEntries(ctx context.Context, owner string) ([]models.JournalEntry, error) {
	account, err := loadAccount(ctx, s.repomanager, s.db, owner)
	if err != nil {
		s.logFailure(ctx, "get owned entries", err, "username", owner)
		return nil, classify("get owned entries", err)
	}
	if account.Entries == nil {
		return []models.JournalEntry{}, nil
	}
	return account.Entries, nil
}

// GetEntryByID reads the Entry Store directly. It performs no authorization;
// pair it with OwnershipGuard.VerifyOwnership before exposing the result.
func (s *JournalService) GetEntryByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	entry, err := s.repomanager.Entries(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrEntryNotFound
		}
		s.logFailure(ctx, "get entry", err, "entry_id", id)
		return nil, classify("get entry", err)
	}
	return entry, nil
}

// UpdateEntry applies patch to the stored entry. Ownership must already be
// verified. Only the Entry Store is written; the owner's embedded copy keeps
// the values it had at creation.
func (s *JournalService) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) (*models.JournalEntry, error) {
	var updated *models.JournalEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)

		entry, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		patch.Apply(entry)
		if err := repo.Update(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrEntryNotFound
		}
		s.logFailure(ctx, "update entry", err, "entry_id", id)
		return nil, classify("update entry", err)
	}

	s.logger.Info(ctx, "entry updated", "entry_id", id)
	return updated, nil
}

// DeleteEntry unlinks the entry from the owner's list and removes it from
// the Entry Store, both or neither. An id missing from the owner's list is
// ErrEntryNotOwned and changes nothing.
func (s *JournalService) DeleteEntry(ctx context.Context, id, owner string) error {
	err := withConflictRetry(ctx, s.maxRetries, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			account, err := loadAccount(ctx, s.repomanager, tx, owner)
			if err != nil {
				return err
			}

			if !account.RemoveEntry(id) {
				return common.ErrEntryNotOwned
			}
			if err := s.references.UpsertReference(ctx, tx, account); err != nil {
				return fmt.Errorf("unlink entry from owner: %w", err)
			}

			return s.deleteStoredEntry(ctx, tx, id, owner)
		})
	})
	if err != nil {
		s.logFailure(ctx, "delete entry", err, "username", owner, "entry_id", id)
		return classify("delete entry", err)
	}

	s.logger.Info(ctx, "entry deleted", "username", owner, "entry_id", id)
	return nil
}

// DeleteAccount removes the account and every entry it owns in one
// transaction, leaving no orphans behind.
func (s *JournalService) DeleteAccount(ctx context.Context, userName string) error {
	var removed int
	err := withConflictRetry(ctx, s.maxRetries, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			account, err := loadAccount(ctx, s.repomanager, tx, userName)
			if err != nil {
				return err
			}

			for _, e := range account.Entries {
				if err := s.deleteStoredEntry(ctx, tx, e.ID, userName); err != nil {
					return err
				}
			}

			if err := s.repomanager.Accounts(tx).Delete(ctx, account); err != nil {
				return fmt.Errorf("delete account: %w", err)
			}
			removed = len(account.Entries)
			return nil
		})
	})
	if err != nil {
		s.logFailure(ctx, "delete account", err, "username", userName)
		return classify("delete account", err)
	}

	s.logger.Info(ctx, "account deleted", "username", userName, "entries_removed", removed)
	return nil
}

// deleteStoredEntry removes an entry from the Entry Store. An entry that is
// already gone was a dangling reference; dropping it from the owner is the
// repair, so it is logged and not treated as a failure.
func (s *JournalService) deleteStoredEntry(ctx context.Context, tx dbx.DBTX, id, owner string) error {
	err := s.repomanager.Entries(tx).Delete(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "dangling reference removed", "username", owner, "entry_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (s *JournalService) logFailure(ctx context.Context, op string, err error, args ...any) {
	args = append(args, "op", op, "error", err)
	if isDomainError(err) {
		s.logger.Warn(ctx, "journal operation rejected", args...)
		return
	}
	s.logger.Error(ctx, "journal operation failed", args...)
}
