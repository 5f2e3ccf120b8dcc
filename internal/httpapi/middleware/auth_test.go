package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAny_BearerOrAPIKey(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	h := RequireAny(keys)(okHandler())

	// Bearer form
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer pub_key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("bearer public key should pass; got %d", rec.Code)
	}

	// X-API-Key form with an admin key
	req2 := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req2.Header.Set("X-API-Key", "adm_key")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("admin key should pass public routes; got %d", rec2.Code)
	}

	// wrong key -> 401
	req3 := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req3.Header.Set("X-API-Key", "nope")
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key should be 401; got %d", rec3.Code)
	}
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	h := RequireAdmin(keys)(okHandler())

	reqAdm := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	reqAdm.Header.Set("X-API-Key", "adm_key")
	recAdm := httptest.NewRecorder()
	h.ServeHTTP(recAdm, reqAdm)
	if recAdm.Code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", recAdm.Code)
	}

	reqPub := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	reqPub.Header.Set("X-API-Key", "pub_key")
	recPub := httptest.NewRecorder()
	h.ServeHTTP(recPub, reqPub)
	if recPub.Code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", recPub.Code)
	}
}

func TestNoKeysConfigured_AllowsAll(t *testing.T) {
	h := RequireAdmin(Keys{})(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("no configured keys should allow all (dev); got %d", rec.Code)
	}
}
