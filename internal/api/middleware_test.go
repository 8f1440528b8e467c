package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authTestServer(apiKey string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyAuth(apiKey)(next)
}

func TestAPIKeyAuthMissingKey(t *testing.T) {
	handler := authTestServer("secret")

	req := httptest.NewRequest("GET", "/v1/clips/x/info", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyAuthWrongKey(t *testing.T) {
	handler := authTestServer("secret")

	req := httptest.NewRequest("GET", "/v1/clips/x/info", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestAPIKeyAuthHeaderKey(t *testing.T) {
	handler := authTestServer("secret")

	req := httptest.NewRequest("GET", "/v1/clips/x/info", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyAuthBearerFallback(t *testing.T) {
	handler := authTestServer("secret")

	req := httptest.NewRequest("GET", "/v1/clips/x/info", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
