package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophjournal/internal/server/auth"
	"github.com/dmitrijs2005/gophjournal/internal/server/models"
	"github.com/go-chi/chi/v5"
)

type credentialsRequest struct {
	UserName string `json:"userName" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type updateUserRequest struct {
	UserName string `json:"userName" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type createEntryRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content"`
}

type updateEntryRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=255"`
	Content *string `json:"content"`
}

func (s *HTTPServer) createUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.accounts.Register(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", a.UserName)
	writeJSON(w, http.StatusCreated, a)
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.accounts.Authenticate(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(a.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

func (s *HTTPServer) listEntries(w http.ResponseWriter, r *http.Request) {
	list, err := s.journal.GetOwnedEntries(r.Context(), principal(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) createEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	owner := principal(r.Context())
	e, err := s.journal.CreateEntry(r.Context(), owner, models.EntryDraft{Title: req.Title, Content: req.Content})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Entry created", "username", owner, "entry_id", e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *HTTPServer) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.journal.GetEntryByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *HTTPServer) updateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	e, err := s.journal.UpdateEntry(r.Context(), id, models.EntryPatch{Title: req.Title, Content: req.Content})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Entry updated", "username", principal(r.Context()), "entry_id", id)
	writeJSON(w, http.StatusOK, e)
}

func (s *HTTPServer) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	owner := principal(r.Context())
	if err := s.journal.DeleteEntry(r.Context(), id, owner); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Entry deleted", "username", owner, "entry_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	current := principal(r.Context())
	a, err := s.accounts.UpdateCredentials(r.Context(), current, req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Credentials updated", "username", current, "new_username", a.UserName)
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) deleteUser(w http.ResponseWriter, r *http.Request) {
	userName := principal(r.Context())
	if err := s.journal.DeleteAccount(r.Context(), userName); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Account deleted", "username", userName)
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.accounts.ListAccounts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(list) == 0 {
		writeMessage(w, http.StatusNotFound, "no users")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.accounts.RegisterAdmin(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Admin registered", "username", a.UserName, "by", principal(r.Context()))
	writeJSON(w, http.StatusOK, a)
}
