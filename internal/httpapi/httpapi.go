// Package httpapi exposes the engine over HTTP using chi: item CRUD, the
// current-occurrence listing, progress and alert-window queries, and config
// get/set across the five ConfigScope levels.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rezkam/keepup/internal/alert"
	"github.com/rezkam/keepup/internal/configresolver"
	"github.com/rezkam/keepup/internal/domain"
	"github.com/rezkam/keepup/internal/progress"
	"github.com/rezkam/keepup/internal/store"
)

// Server holds the dependencies handlers need.
type Server struct {
	facade       store.Facade
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the reference-time source used by handlers (tests only).
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithPageLimits bounds the limit query parameter list endpoints accept.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

// NewServer builds the Server and its chi.Mux.
func NewServer(facade store.Facade, opts ...Option) (*Server, *chi.Mux) {
	s := &Server{facade: facade, now: time.Now, defaultLimit: 50, maxLimit: 200}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.createItem)
		r.Get("/", s.listItems)
		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", s.getItem)
			r.Patch("/", s.updateItem)
			r.Delete("/", s.deleteItem)
			r.Get("/occurrences", s.listOccurrences)
		})
	})

	r.Get("/current", s.currentOccurrences)

	r.Route("/occurrences/{occID}", func(r chi.Router) {
		r.Patch("/", s.updateOccurrence)
		r.Get("/alert", s.occurrenceAlertStatus)
	})

	r.Route("/configs", func(r chi.Router) {
		r.Get("/", s.getConfig)
		r.Put("/", s.setConfig)
		r.Delete("/", s.deleteConfig)
	})

	return s, r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if domain.HasKind(err, domain.KindNotFound) {
		status = http.StatusNotFound
	} else if domain.HasKind(err, domain.KindValidation) || domain.HasKind(err, domain.KindInvalidID) {
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "httpapi: request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func resolveItemConfig(r *http.Request, s *Server, it domain.Item) (domain.ResolvedConfig, error) {
	cfg, _, err := configresolver.ItemConfig(r.Context(), s.facade, it)
	return cfg, err
}

func progressFor(r *http.Request, s *Server, it domain.Item, occ domain.Occurrence) (domain.TaskProgress, error) {
	cfg, err := resolveItemConfig(r, s, it)
	if err != nil {
		return domain.TaskProgress{}, err
	}
	return progress.ResolveOccProgress(r.Context(), s.facade, it.ID, occ, cfg)
}

func alertStatus(s *Server, occ domain.Occurrence, cfg domain.ResolvedConfig) bool {
	return alert.InAlertPeriod(occ, cfg, s.now())
}
