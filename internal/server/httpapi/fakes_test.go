package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/server/auth"
	"github.com/dmitrijs2005/gophjournal/internal/server/config"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
)

const testSecret = "test-secret"

// fakeAccounts keys accounts by username. IDs are never reused, so a
// re-registered username gets a fresh ID.
type fakeAccounts struct {
	accounts map[string]*models.Account
	secrets  map[string]string
	listErr   error
	listEmpty bool
	seq       int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: map[string]*models.Account{}, secrets: map[string]string{}}
}

func (f *fakeAccounts) add(userName, secret string, roles ...string) *models.Account {
	f.seq++
	a := &models.Account{ID: fmt.Sprintf("id-%d", f.seq), UserName: userName, Credential: "hash:" + secret, Roles: roles}
	f.accounts[userName] = a
	f.secrets[userName] = secret
	return a
}

func (f *fakeAccounts) Register(_ context.Context, userName, secret string) (*models.Account, error) {
	if _, ok := f.accounts[userName]; ok {
		return nil, common.ErrUniquenessViolation
	}
	return f.add(userName, secret, common.RoleUser), nil
}

func (f *fakeAccounts) RegisterAdmin(_ context.Context, userName, secret string) (*models.Account, error) {
	if _, ok := f.accounts[userName]; ok {
		return nil, common.ErrUniquenessViolation
	}
	return f.add(userName, secret, common.RoleUser, common.RoleAdmin), nil
}

func (f *fakeAccounts) Authenticate(_ context.Context, userName, secret string) (*models.Account, error) {
	a, ok := f.accounts[userName]
	if !ok || f.secrets[userName] != secret {
		return nil, common.ErrorUnauthorized
	}
	return a, nil
}

func (f *fakeAccounts) Get(_ context.Context, userName string) (*models.Account, error) {
	a, ok := f.accounts[userName]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	for _, a := range f.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, common.ErrAccountNotFound
}

func (f *fakeAccounts) remove(userName string) {
	delete(f.accounts, userName)
	delete(f.secrets, userName)
}

func (f *fakeAccounts) UpdateCredentials(_ context.Context, principal, newUserName, newSecret string) (*models.Account, error) {
	a, ok := f.accounts[principal]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	if other, taken := f.accounts[newUserName]; taken && other != a {
		return nil, common.ErrUniquenessViolation
	}
	f.remove(principal)
	if newUserName != "" {
		a.UserName = newUserName
	}
	f.accounts[a.UserName] = a
	f.secrets[a.UserName] = newSecret
	return a, nil
}

func (f *fakeAccounts) ListAccounts(context.Context) ([]*models.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listEmpty {
		return nil, nil
	}
	var out []*models.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

// fakeJournal keeps entries per owner; the ownership guard reads the same map.
// DeleteAccount also drops the owner from accounts when set.
type fakeJournal struct {
	accounts *fakeAccounts
	owned    map[string][]models.JournalEntry
	err      error
	deleted  []string
	patches  []models.EntryPatch
	reads    int
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{owned: map[string][]models.JournalEntry{}}
}

func (f *fakeJournal) CreateEntry(_ context.Context, owner string, draft models.EntryDraft) (*models.JournalEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	e := models.JournalEntry{
		ID:        fmt.Sprintf("%s-%d", owner, len(f.owned[owner])+1),
		Title:     draft.Title,
		Content:   draft.Content,
		CreatedOn: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	f.owned[owner] = append(f.owned[owner], e)
	return &e, nil
}

func (f *fakeJournal) GetOwnedEntries(_ context.Context, owner string) ([]models.JournalEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	list := f.owned[owner]
	if list == nil {
		list = []models.JournalEntry{}
	}
	return list, nil
}

func (f *fakeJournal) find(id string) (*models.JournalEntry, bool) {
	for _, list := range f.owned {
		for i := range list {
			if list[i].ID == id {
				return &list[i], true
			}
		}
	}
	return nil, false
}

func (f *fakeJournal) GetEntryByID(_ context.Context, id string) (*models.JournalEntry, error) {
	f.reads++
	e, ok := f.find(id)
	if !ok {
		return nil, common.ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeJournal) UpdateEntry(_ context.Context, id string, patch models.EntryPatch) (*models.JournalEntry, error) {
	f.patches = append(f.patches, patch)
	e, ok := f.find(id)
	if !ok {
		return nil, common.ErrEntryNotFound
	}
	patch.Apply(e)
	return e, nil
}

func (f *fakeJournal) DeleteEntry(_ context.Context, id, owner string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeJournal) DeleteAccount(_ context.Context, userName string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.owned, userName)
	if f.accounts != nil {
		f.accounts.remove(userName)
	}
	f.deleted = append(f.deleted, userName)
	return nil
}

func (f *fakeJournal) VerifyOwnership(_ context.Context, userName, entryID string) (bool, error) {
	for _, e := range f.owned[userName] {
		if e.ID == entryID {
			return true, nil
		}
	}
	return false, nil
}

type testEnv struct {
	accounts *fakeAccounts
	journal  *fakeJournal
	handler  http.Handler
	server   *HTTPServer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		EndpointAddrHTTP:            "127.0.0.1:0",
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Hour,
		OperationTimeout:            5 * time.Second,
	}
	acc, j := newFakeAccounts(), newFakeJournal()
	j.accounts = acc
	s := NewHTTPServer(cfg, logging.Nop(), acc, j, j)
	return &testEnv{accounts: acc, journal: j, handler: s.Router(), server: s}
}

// token mints a token for the account currently named userName. Unknown
// names get a token for an ID no account holds.
func (e *testEnv) token(t *testing.T, userName string) string {
	t.Helper()
	id := "unknown-" + userName
	if a, ok := e.accounts.accounts[userName]; ok {
		id = a.ID
	}
	tok, err := auth.GenerateToken(id, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return tok
}

// do sends a request; an empty user sends no Authorization header.
func (e *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	tok := ""
	if user != "" {
		tok = e.token(t, user)
	}
	return e.doWithToken(t, method, path, tok, body)
}

// doWithToken sends a request bearing tok; an empty tok sends no
// Authorization header.
func (e *testEnv) doWithToken(t *testing.T, method, path, tok, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}
