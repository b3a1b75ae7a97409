// Package httpapi exposes the journal over HTTP: public registration and
// login, the authenticated journal and self-service routes, and the admin
// routes.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/server/config"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/go-playground/validator/v10"
)

const shutdownTimeout = 5 * time.Second

// AccountManager is the account side of the service layer.
type AccountManager interface {
	Register(ctx context.Context, userName, secret string) (*models.Account, error)
	RegisterAdmin(ctx context.Context, userName, secret string) (*models.Account, error)
	Authenticate(ctx context.Context, userName, secret string) (*models.Account, error)
	Get(ctx context.Context, userName string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdateCredentials(ctx context.Context, principal, newUserName, newSecret string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// Journal is the entry side of the service layer.
type Journal interface {
	CreateEntry(ctx context.Context, owner string, draft models.EntryDraft) (*models.JournalEntry, error)
	GetOwnedEntries(ctx context.Context, owner string) ([]models.JournalEntry, error)
	GetEntryByID(ctx context.Context, id string) (*models.JournalEntry, error)
	UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) (*models.JournalEntry, error)
	DeleteEntry(ctx context.Context, id, owner string) error
	DeleteAccount(ctx context.Context, userName string) error
}

// OwnershipVerifier answers whether a principal owns an entry.
type OwnershipVerifier interface {
	VerifyOwnership(ctx context.Context, userName, entryID string) (bool, error)
}

type HTTPServer struct {
	address          string
	accounts         AccountManager
	journal          Journal
	guard            OwnershipVerifier
	logger           logging.Logger
	jwtSecret        []byte
	tokenValidity    time.Duration
	operationTimeout time.Duration
	validate         *validator.Validate
}

func NewHTTPServer(c *config.Config, l logging.Logger, accounts AccountManager, journal Journal, guard OwnershipVerifier) *HTTPServer {
	return &HTTPServer{
		address:          c.EndpointAddrHTTP,
		accounts:         accounts,
		journal:          journal,
		guard:            guard,
		logger:           l.With("module", "http_server"),
		jwtSecret:        []byte(c.SecretKey),
		tokenValidity:    c.AccessTokenValidityDuration,
		operationTimeout: c.OperationTimeout,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-stopped
	return nil
}
