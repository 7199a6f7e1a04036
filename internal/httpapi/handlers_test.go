package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"singularityio/internal/config"
)

func TestChatEndpointRejectsMissingBearerToken(t *testing.T) {
	s := &Server{auth: config.AuthConfig{SecretKey: "secret"}, mux: http.NewServeMux()}
	s.registerRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a bearer token, got %d", rec.Code)
	}
}

func TestWidgetChatEndpointRejectsMissingAPIKey(t *testing.T) {
	s := &Server{auth: config.AuthConfig{StaticAPIKeys: map[string]string{"k1": "tenant-a"}}, mux: http.NewServeMux()}
	s.registerRoutes()

	req := httptest.NewRequest(http.MethodPost, "/api/chat/widget", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without an API key, got %d", rec.Code)
	}
}
