// Package services contains server-side business logic: the account write
// paths, the ownership guard and the journal coordinator that keeps the
// Entry Store and each account's owned-entries list consistent.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/repomanager"
)

// CredentialPolicy hashes secrets and supplies the role sets of new accounts.
type CredentialPolicy interface {
	Hash(secret string) (string, error)
	Verify(hash, secret string) bool
	DefaultRoles() []string
	AdminRoles() []string
}

// AccountService owns the two ways an account is written:
//
//   - UpsertCredentialed / UpsertAdmin re-hash the credential and reset
//     roles. Use them only when the caller supplies a plaintext secret.
//   - UpsertReference persists the account verbatim. Use it whenever only
//     the owned-entries list changed; the credential already holds a hash
//     and hashing it again would lock the user out.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	policy      CredentialPolicy
	logger      logging.Logger
	maxRetries  uint64
	dummyHash   string
}

// fallbackDummyHash is a well-formed bcrypt hash of an unguessable secret,
// used when the policy cannot produce its own dummy hash.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, policy CredentialPolicy, logger logging.Logger, maxRetries uint64) *AccountService {
	logger = logger.With("module", "accounts")

	// Compared against on unknown usernames so a miss costs as much as a hit.
	dummy, err := policy.Hash("gophjournal-dummy-secret")
	if err != nil || dummy == "" {
		logger.Warn(context.Background(), "dummy hash unavailable, using fallback", "error", err)
		dummy = fallbackDummyHash
	}

	return &AccountService{
		db:          db,
		repomanager: m,
		policy:      policy,
		logger:      logger,
		maxRetries:  maxRetries,
		dummyHash:   dummy,
	}
}

// UpsertCredentialed hashes a.Credential in place, resets a.Roles to the
// default set and persists the account through tx.
func (s *AccountService) UpsertCredentialed(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
	return s.upsertWithSecret(ctx, tx, a, s.policy.DefaultRoles())
}

// UpsertAdmin is UpsertCredentialed with the administrator role set.
func (s *AccountService) UpsertAdmin(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
	return s.upsertWithSecret(ctx, tx, a, s.policy.AdminRoles())
}

// UpsertReference persists a exactly as given: no hashing, no role change.
func (s *AccountService) UpsertReference(ctx context.Context, tx dbx.DBTX, a *models.Account) error {
	return s.repomanager.Accounts(tx).Upsert(ctx, a)
}

func (s *AccountService) upsertWithSecret(ctx context.Context, tx dbx.DBTX, a *models.Account, roles []string) error {
	if strings.TrimSpace(a.UserName) == "" {
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	if a.Credential == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}

	hash, err := s.policy.Hash(a.Credential)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	a.Credential = hash
	a.Roles = roles

	return s.repomanager.Accounts(tx).Upsert(ctx, a)
}

// Register creates an account with the default role set.
func (s *AccountService) Register(ctx context.Context, userName, secret string) (*models.Account, error) {
	a := &models.Account{UserName: userName, Credential: secret}
	if err := s.UpsertCredentialed(ctx, s.db, a); err != nil {
		s.logger.Warn(ctx, "registration failed", "username", userName, "error", err)
		return nil, classify("register", err)
	}
	s.logger.Info(ctx, "registered", "username", userName, "account_id", a.ID)
	return a, nil
}

// RegisterAdmin creates an account with the administrator role set.
func (s *AccountService) RegisterAdmin(ctx context.Context, userName, secret string) (*models.Account, error) {
	a := &models.Account{UserName: userName, Credential: secret}
	if err := s.UpsertAdmin(ctx, s.db, a); err != nil {
		s.logger.Warn(ctx, "admin registration failed", "username", userName, "error", err)
		return nil, classify("register admin", err)
	}
	s.logger.Info(ctx, "admin registered", "username", userName, "account_id", a.ID)
	return a, nil
}

// UpdateCredentials replaces the principal's username and secret. Owned
// entries are kept; roles are reset to the default set. An empty
// newUserName keeps the current one.
func (s *AccountService) UpdateCredentials(ctx context.Context, principal, newUserName, newSecret string) (*models.Account, error) {
	var updated *models.Account
	err := withConflictRetry(ctx, s.maxRetries, func(ctx context.Context) error {
		a, err := s.load(ctx, principal)
		if err != nil {
			return err
		}
		if newUserName != "" {
			a.UserName = newUserName
		}
		a.Credential = newSecret
		if err := s.UpsertCredentialed(ctx, s.db, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		s.logger.Warn(ctx, "credential update failed", "username", principal, "error", err)
		return nil, classify("update credentials", err)
	}
	s.logger.Info(ctx, "credentials updated", "username", principal, "new_username", updated.UserName)
	return updated, nil
}

// Authenticate checks secret against the stored credential. Unknown
// usernames and wrong secrets are both ErrorUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, userName, secret string) (*models.Account, error) {
	a, err := s.load(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			s.policy.Verify(s.dummyHash, secret)
			return nil, common.ErrorUnauthorized
		}
		return nil, classify("authenticate", err)
	}
	if !s.policy.Verify(a.Credential, secret) {
		return nil, common.ErrorUnauthorized
	}
	return a, nil
}

// Get returns the account with the given username.
func (s *AccountService) Get(ctx context.Context, userName string) (*models.Account, error) {
	a, err := s.load(ctx, userName)
	if err != nil {
		return nil, classify("get account", err)
	}
	return a, nil
}

// GetByID returns the account with the given ID. Unknown IDs are
// ErrAccountNotFound.
func (s *AccountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	a, err := s.repomanager.Accounts(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, classify("get account by id", err)
	}
	return a, nil
}

// ListAccounts returns every account.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	list, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list accounts failed", "error", err)
		return nil, classify("list accounts", err)
	}
	return list, nil
}

func (s *AccountService) load(ctx context.Context, userName string) (*models.Account, error) {
	return loadAccount(ctx, s.repomanager, s.db, userName)
}

// loadAccount resolves a username through db, mapping a miss to
// ErrAccountNotFound.
func loadAccount(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, userName string) (*models.Account, error) {
	a, err := m.Accounts(db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}
