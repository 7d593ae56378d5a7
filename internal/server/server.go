// Package server exposes the generation layer and the project, profile and
// chat history stores over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/MadScientist85/Ai-Web-App/internal/history"
	"github.com/MadScientist85/Ai-Web-App/internal/profile"
	"github.com/MadScientist85/Ai-Web-App/internal/project"
)

const defaultGenerationTimeout = 120 * time.Second

type Deps struct {
	Generator Generator
	Catalog   Catalog
	Projects  project.Store
	Profiles  profile.Store
	History   history.Store
	Tracer    trace.Tracer
	Logger    zerolog.Logger
	// GenerationTimeout bounds one chat request across all providers.
	GenerationTimeout time.Duration
}

type Handler struct {
	gen      Generator
	catalog  Catalog
	projects project.Store
	profiles profile.Store
	history  history.Store
	tracer   trace.Tracer
	logger   zerolog.Logger
	timeout  time.Duration
	now      func() time.Time

	pending sync.WaitGroup
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		gen:      d.Generator,
		catalog:  d.Catalog,
		projects: d.Projects,
		profiles: d.Profiles,
		history:  d.History,
		tracer:   d.Tracer,
		logger:   d.Logger,
		timeout:  d.GenerationTimeout,
		now:      time.Now,
	}
	if h.tracer == nil {
		h.tracer = noop.NewTracerProvider().Tracer("server")
	}
	if h.timeout <= 0 {
		h.timeout = defaultGenerationTimeout
	}
	return h
}

// Wait blocks until background history writes have finished.
func (h *Handler) Wait() {
	h.pending.Wait()
}

// NewRouter mounts the public health check and the authenticated API.
func NewRouter(h *Handler, authMiddleware func(http.Handler) http.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ai-web-app"})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/v1/chat", h.HandleChat)
		r.Get("/v1/chat/history", h.HandleHistory)
		r.Get("/v1/chat/history/export", h.HandleHistoryExport)
		r.Get("/v1/providers", h.HandleProviders)

		r.Route("/v1/projects", func(r chi.Router) {
			r.Get("/", h.HandleListProjects)
			r.Post("/", h.HandleCreateProject)
			r.Post("/import", h.HandleImportProject)
			r.Get("/{id}", h.HandleGetProject)
			r.Put("/{id}", h.HandleUpdateProject)
			r.Delete("/{id}", h.HandleDeleteProject)
			r.Get("/{id}/export", h.HandleExportProject)
		})

		r.Get("/v1/profile", h.HandleGetProfile)
		r.Put("/v1/profile", h.HandleUpdateProfile)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// attachment writes v as an indented JSON download.
func attachment(w http.ResponseWriter, filename string, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
