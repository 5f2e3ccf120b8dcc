// Package portaltest is a stand-in portal API for tests: it speaks the same
// envelopes and headers the live portal is expected to, with knobs for the
// deployment variance the suite has to tolerate.
package portaltest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const Token = "tok_test"

type Benefit struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Eligibility string `json:"eligibility"`
}

var fixtures = []Benefit{
	{ID: "b1", Name: "Housing Assistance", Eligibility: "veteran"},
	{ID: "b2", Name: "Education Grant", Eligibility: "active-duty"},
	{ID: "b3", Name: "Health Coverage", Eligibility: "all"},
}

// Portal is the configurable fake. The zero value serves a fully conformant
// deployment; the knobs introduce the variances checks must classify.
type Portal struct {
	ServeNews      bool // when false, /news answers 404 like a deployment without the feature
	OmitOpsHeaders bool // drop x-request-id / x-ratelimit-limit
	OmitCSP        bool
	OmitCORS       bool
	BurstLimit     int // >0: requests beyond this inside a short window draw 429

	mu     sync.Mutex
	window []time.Time
}

func New() *Portal { return &Portal{ServeNews: true} }

func (p *Portal) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(p.opsHeaders)

	r.Get("/", p.landing)
	r.Options("/benefits", p.preflight)
	r.Get("/benefits", p.requireAuth(p.listBenefits))
	r.Get("/benefits/{id}", p.requireAuth(p.getBenefit))
	r.Get("/news", p.news)
	r.Get("/forms/{id}", p.formNotFound)
	r.Post("/forms", p.createForm)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeErrors(w, http.StatusNotFound, "not_found")
	})
	return r
}

func (p *Portal) opsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !p.OmitOpsHeaders {
			w.Header().Set("X-Request-Id", uuid.NewString())
			w.Header().Set("X-RateLimit-Limit", "100")
		}
		next.ServeHTTP(w, req)
	})
}

func (p *Portal) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer "+Token {
			writeErrors(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if p.limited() {
			w.Header().Set("Retry-After", "1")
			writeErrors(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next(w, req)
	}
}

func (p *Portal) limited() bool {
	if p.BurstLimit <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	keep := p.window[:0]
	for _, t := range p.window {
		if now.Sub(t) < 250*time.Millisecond {
			keep = append(keep, t)
		}
	}
	p.window = append(keep, now)
	return len(p.window) > p.BurstLimit
}

func (p *Portal) landing(w http.ResponseWriter, req *http.Request) {
	if !p.OmitCSP {
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!doctype html><title>Benefits Portal</title>"))
}

func (p *Portal) preflight(w http.ResponseWriter, req *http.Request) {
	if !p.OmitCORS {
		w.Header().Set("Access-Control-Allow-Origin", req.Header.Get("Origin"))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Portal) listBenefits(w http.ResponseWriter, req *http.Request) {
	if page := req.URL.Query().Get("page"); page != "" {
		pg, _ := strconv.Atoi(page)
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		if pg < 1 {
			pg = 1
		}
		if limit < 1 {
			limit = 20
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": fixtures,
			"meta": map[string]int{"total": len(fixtures), "page": pg, "limit": limit},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": fixtures})
}

func (p *Portal) getBenefit(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	for _, b := range fixtures {
		if b.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"data": b})
			return
		}
	}
	writeErrors(w, http.StatusNotFound, "not_found")
}

func (p *Portal) news(w http.ResponseWriter, req *http.Request) {
	if !p.ServeNews {
		writeErrors(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": []map[string]string{{"id": "n1", "headline": "Office hours extended"}},
	})
}

func (p *Portal) formNotFound(w http.ResponseWriter, req *http.Request) {
	writeErrors(w, http.StatusNotFound, "not_found")
}

func (p *Portal) createForm(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeErrors(w, http.StatusBadRequest, "bad_payload")
		return
	}
	if containsMarkup(payload.Title) {
		writeErrors(w, http.StatusBadRequest, "invalid_title")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"data": map[string]string{"id": payload.ID, "title": payload.Title},
	})
}

func containsMarkup(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '<' || s[i] == '>' {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]string{{"code": code}},
	})
}
