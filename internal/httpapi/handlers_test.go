package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	apimw "github.com/hamed0406/portalcheck/internal/httpapi/middleware"
	"github.com/hamed0406/portalcheck/internal/repo"
	"github.com/hamed0406/portalcheck/internal/repo/memory"
	"github.com/hamed0406/portalcheck/internal/report"
	"github.com/hamed0406/portalcheck/internal/suite"
	"github.com/hamed0406/portalcheck/internal/verdict"
)

// ---- test helpers ----

func sampleReport(check string, v verdict.Verdict) *report.Report {
	now := time.Now()
	return report.Build("http://localhost:3000", false, now.Add(-time.Second), now,
		[]suite.StepOutcome{
			{Check: check, Group: "benefits", Step: "list", Result: verdict.Result{Verdict: v}},
		})
}

func setupRouter(t *testing.T, store repo.RunStore, trigger TriggerFunc) http.Handler {
	t.Helper()
	srv := NewServer(zap.NewNop(), store, trigger)
	keys := apimw.Keys{
		Public: []string{"pub_test"},
		Admin:  []string{"adm_test"},
	}
	// very high rate limits to avoid flakiness in tests
	return srv.Router(keys, Limits{PublicRPM: 10_000, PublicBurst: 10_000, AdminRPM: 10_000, AdminBurst: 10_000})
}

func do(t *testing.T, method, url, key string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, url, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// ---- tests ----

func TestListLatestAndByID(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	first := sampleReport("benefits list", verdict.Pass)
	second := sampleReport("forms not found", verdict.Fail)
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(setupRouter(t, store, nil))
	defer ts.Close()

	// list (public) — newest first
	resp := do(t, http.MethodGet, ts.URL+"/api/runs", "pub_test")
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("want 200 list, got %d", resp.StatusCode)
	}
	var list []repo.RunSummary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !list[0].Red {
		t.Fatalf("failed run should list as red")
	}

	// latest
	respLt := do(t, http.MethodGet, ts.URL+"/api/runs/latest", "pub_test")
	defer respLt.Body.Close()
	var latest report.Report
	if err := json.NewDecoder(respLt.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("latest = %s, want %s", latest.ID, second.ID)
	}

	// by id
	respByID := do(t, http.MethodGet, ts.URL+"/api/runs/"+first.ID, "pub_test")
	defer respByID.Body.Close()
	if respByID.StatusCode != 200 {
		t.Fatalf("want 200 by id, got %d", respByID.StatusCode)
	}

	// unknown id -> 404
	resp404 := do(t, http.MethodGet, ts.URL+"/api/runs/no-such-run", "pub_test")
	defer resp404.Body.Close()
	if resp404.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 for unknown run, got %d", resp404.StatusCode)
	}
}

func TestAuthTiers(t *testing.T) {
	store := memory.New()
	ts := httptest.NewServer(setupRouter(t, store, nil))
	defer ts.Close()

	// no key -> 401 on public routes
	resp := do(t, http.MethodGet, ts.URL+"/api/runs", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without key, got %d", resp.StatusCode)
	}

	// public key cannot trigger runs
	resp2 := do(t, http.MethodPost, ts.URL+"/api/runs", "pub_test")
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusForbidden {
		t.Fatalf("want 403 for public key on trigger, got %d", resp2.StatusCode)
	}

	// healthz needs no key
	resp3 := do(t, http.MethodGet, ts.URL+"/healthz", "")
	resp3.Body.Close()
	if resp3.StatusCode != 200 {
		t.Fatalf("want 200 healthz, got %d", resp3.StatusCode)
	}
}

func TestTriggerRun(t *testing.T) {
	store := memory.New()
	trigger := func(ctx context.Context) (*report.Report, error) {
		r := sampleReport("benefits list", verdict.Pass)
		if err := store.Save(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}

	ts := httptest.NewServer(setupRouter(t, store, trigger))
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/api/runs", "adm_test")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	var rep report.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Passed != 1 {
		t.Fatalf("expected one passing step, got %+v", rep)
	}

	// the triggered run becomes visible to readers
	respLt := do(t, http.MethodGet, ts.URL+"/api/runs/latest", "pub_test")
	defer respLt.Body.Close()
	if respLt.StatusCode != 200 {
		t.Fatalf("want 200 latest after trigger, got %d", respLt.StatusCode)
	}
}

func TestTriggerDisabled(t *testing.T) {
	ts := httptest.NewServer(setupRouter(t, memory.New(), nil))
	defer ts.Close()

	resp := do(t, http.MethodPost, ts.URL+"/api/runs", "adm_test")
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("want 503 when trigger is not wired, got %d", resp.StatusCode)
	}
}

func TestListBadLimit(t *testing.T) {
	ts := httptest.NewServer(setupRouter(t, memory.New(), nil))
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/api/runs?limit=0", "pub_test")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for limit=0, got %d", resp.StatusCode)
	}
}
