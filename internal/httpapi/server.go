// Package httpapi serves run results and accepts on-demand suite triggers.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/portalcheck/internal/httpapi/middleware"
	"github.com/hamed0406/portalcheck/internal/metrics"
	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/report"
)

// TriggerFunc runs the suite once and persists the report. The server never
// runs checks itself; the caller wires in whatever the scheduler uses.
type TriggerFunc func(ctx context.Context) (*report.Report, error)

// Limits carries the per-tier rate-limit settings for Router.
type Limits struct {
	PublicRPM   int
	PublicBurst int
	AdminRPM    int
	AdminBurst  int
}

type Server struct {
	Logger  *zap.Logger
	Runs    repo.RunStore
	Trigger TriggerFunc
}

func NewServer(l *zap.Logger, runs repo.RunStore, trigger TriggerFunc) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Runs: runs, Trigger: trigger}
}

func (s *Server) Router(keys middleware.Keys, limits Limits) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limits.PublicRPM, limits.PublicBurst))
		r.Use(middleware.RequireAny(keys))
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/latest", s.handleLatestRun)
		r.Get("/api/runs/{id}", s.handleRunByID)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limits.AdminRPM, limits.AdminBurst))
		r.Use(middleware.RequireAdmin(keys))
		r.Post("/api/runs", s.handleTriggerRun)
	})

	return r
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			writeErr(w, http.StatusBadRequest, "limit must be 1-200")
			return
		}
		limit = n
	}
	list, err := s.Runs.List(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list runs failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "list error")
		return
	}
	if list == nil {
		list = []repo.RunSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Runs.Latest(r.Context())
	if err != nil {
		s.Logger.Error("latest run failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "lookup error")
		return
	}
	if rep == nil {
		writeErr(w, http.StatusNotFound, "no runs yet")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.Runs.ByID(r.Context(), id)
	if err != nil {
		s.Logger.Error("run lookup failed", zap.String("id", id), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "lookup error")
		return
	}
	if rep == nil {
		writeErr(w, http.StatusNotFound, "unknown run")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.Trigger == nil {
		writeErr(w, http.StatusServiceUnavailable, "runs are not enabled on this instance")
		return
	}
	rep, err := s.Trigger(r.Context())
	if err != nil {
		s.Logger.Error("triggered run failed", zap.Error(err))
		writeErr(w, http.StatusBadGateway, "run failed")
		return
	}
	s.Logger.Info("triggered_run",
		zap.String("id", rep.ID),
		zap.Int("passed", rep.Passed),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("infra", rep.Infra),
	)
	writeJSON(w, http.StatusCreated, rep)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
