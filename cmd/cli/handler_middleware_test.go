package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS_AllowedOriginIsReflected(t *testing.T) {
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://dash.example, http://other.example")
	rm, _, _ := newTestRouteManager(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/devices", nil)
	req.Header.Set("Origin", "http://dash.example")
	rec := httptest.NewRecorder()
	rm.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.example" {
		t.Errorf("Expected origin to be reflected, got %q", got)
	}
}

func TestCORS_UnknownOriginIsNotReflected(t *testing.T) {
	rm, _, _ := newTestRouteManager(t)

	req := httptest.NewRequest("GET", "/api/v1/dashboard/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	rm.Router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow-origin header for unknown origin, got %q", got)
	}
}

func TestAllowedOrigins_FallsBackToLocalDev(t *testing.T) {
	t.Setenv("SERVER_ALLOWED_ORIGINS", "")
	origins := allowedOrigins()
	if len(origins) != 2 {
		t.Fatalf("Expected 2 default origins, got %d", len(origins))
	}
	if origins[0] != "http://localhost:5173" {
		t.Errorf("Unexpected default origin %s", origins[0])
	}
}
