// Package api exposes search, drafts, and run history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
	"github.com/sells-group/prospect-cli/internal/store"
)

const (
	maxSearchBody = 1 << 20
	maxDraftsBody = 32 << 20
)

// Service is the workflow layer the handlers call.
type Service interface {
	Search(ctx context.Context, owner string, q model.SearchQuery) (*model.SearchRun, error)
	Drafts(ctx context.Context, owner string, reqs []model.DraftRequest) ([]model.DraftResult, error)
	Run(ctx context.Context, id string) (*model.SearchRun, error)
	Runs(ctx context.Context, f store.RunFilter) ([]model.SearchRun, error)
}

// Options tunes the router.
type Options struct {
	CORSOrigins []string
	// Breakers reports circuit state on /health when set.
	Breakers func() map[string]resilience.State
}

// Server holds handler dependencies.
type Server struct {
	svc  Service
	opts Options
}

// NewRouter builds the HTTP handler.
func NewRouter(svc Service, opts Options) http.Handler {
	s := &Server{svc: svc, opts: opts}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Post("/drafts", s.drafts)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.opts.Breakers != nil {
		states := make(map[string]string)
		for svc, st := range s.opts.Breakers() {
			states[svc] = st.String()
		}
		body["breakers"] = states
	}
	writeJSON(w, http.StatusOK, body)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
