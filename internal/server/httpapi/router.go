package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the route tree.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.operationTimeout > 0 {
		r.Use(middleware.Timeout(s.operationTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/public", func(r chi.Router) {
		r.Post("/create-user", s.createUser)
		r.Post("/login", s.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", s.listEntries)
			r.Post("/", s.createEntry)
			r.Route("/id/{id}", func(r chi.Router) {
				r.Use(s.requireOwnership)
				r.Get("/", s.getEntry)
				r.Put("/", s.updateEntry)
				r.Delete("/", s.deleteEntry)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Put("/", s.updateUser)
			r.Delete("/", s.deleteUser)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireRole(common.RoleAdmin))
			r.Get("/all-users", s.listUsers)
			r.Post("/create-admin", s.createAdmin)
		})
	})

	return r
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
