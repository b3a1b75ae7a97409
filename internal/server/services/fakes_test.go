package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophjournal/internal/server/repositories/entries"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for both stores. It is not
// transactional; tests observe the transaction boundary through sqlmock
// and through the handles recorded in writes.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	entries  map[string]models.JournalEntry

	// writes holds the handle every mutating call was issued through.
	writes []dbx.DBTX

	conflictsLeft    int
	accountUpsertErr error
	entryCreateErr   error
	entryDeleteErr   error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.Account{},
		entries:  map[string]models.JournalEntry{},
	}
}

func cloneAccount(a models.Account) models.Account {
	a.Roles = slices.Clone(a.Roles)
	a.Entries = slices.Clone(a.Entries)
	return a
}

// seed stores an account and the entries it owns.
func (s *memStore) seed(userName, credential string, owned ...models.JournalEntry) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := models.Account{
		ID:         uuid.NewString(),
		UserName:   userName,
		Credential: credential,
		Roles:      []string{common.RoleUser},
		Entries:    owned,
		Version:    1,
	}
	s.accounts[a.ID] = cloneAccount(a)
	for _, e := range owned {
		s.entries[e.ID] = e
	}
	return a
}

func (s *memStore) account(t *testing.T, userName string) models.Account {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.UserName == userName {
			return cloneAccount(a)
		}
	}
	t.Fatalf("account %q not stored", userName)
	return models.Account{}
}

func (s *memStore) hasAccount(userName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.UserName == userName {
			return true
		}
	}
	return false
}

func (s *memStore) entry(id string) (models.JournalEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// requireTxWrites fails the test when any write bypassed a transaction.
func (s *memStore) requireTxWrites(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.writes {
		if _, ok := h.(*sql.Tx); !ok {
			t.Fatalf("write #%d issued through %T, want *sql.Tx", i, h)
		}
	}
}

type fakeAccounts struct {
	s *memStore
	h dbx.DBTX
}

func (f *fakeAccounts) Upsert(_ context.Context, a *models.Account) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, f.h)

	if s.accountUpsertErr != nil {
		return s.accountUpsertErr
	}
	if s.conflictsLeft > 0 {
		s.conflictsLeft--
		return common.ErrVersionConflict
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	for id, other := range s.accounts {
		if other.UserName == a.UserName && id != a.ID {
			return common.ErrUniquenessViolation
		}
	}
	next := int64(1)
	if cur, ok := s.accounts[a.ID]; ok {
		if cur.Version != a.Version {
			return common.ErrVersionConflict
		}
		next = cur.Version + 1
	}
	a.Version = next
	s.accounts[a.ID] = cloneAccount(*a)
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := cloneAccount(a)
	return &c, nil
}

func (f *fakeAccounts) GetByUserName(_ context.Context, userName string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.UserName == userName {
			c := cloneAccount(a)
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) List(context.Context) ([]*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*models.Account
	for _, a := range f.s.accounts {
		c := cloneAccount(a)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (f *fakeAccounts) Delete(_ context.Context, a *models.Account) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, f.h)

	cur, ok := s.accounts[a.ID]
	if !ok || cur.Version != a.Version {
		return common.ErrVersionConflict
	}
	delete(s.accounts, a.ID)
	return nil
}

type fakeEntries struct {
	s *memStore
	h dbx.DBTX
}

func (f *fakeEntries) Create(_ context.Context, e *models.JournalEntry) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, f.h)
	if s.entryCreateErr != nil {
		return s.entryCreateErr
	}
	s.entries[e.ID] = *e
	return nil
}

func (f *fakeEntries) Get(_ context.Context, id string) (*models.JournalEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	e, ok := f.s.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (f *fakeEntries) Update(_ context.Context, e *models.JournalEntry) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, f.h)
	cur, ok := s.entries[e.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Title, cur.Content = e.Title, e.Content
	s.entries[e.ID] = cur
	return nil
}

func (f *fakeEntries) Delete(_ context.Context, id string) error {
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, f.h)
	if s.entryDeleteErr != nil {
		return s.entryDeleteErr
	}
	if _, ok := s.entries[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.entries, id)
	return nil
}

type fakeRepoManager struct {
	s *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository {
	return &fakeAccounts{s: m.s, h: db}
}
func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository {
	return &fakeEntries{s: m.s, h: db}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
