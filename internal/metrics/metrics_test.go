package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/calculate", "/calculate"},
		{"/api/v1/calculate", "/api/v1/calculate"},
		{"/api/v1/transfer", "/api/v1/transfer"},
		{"/api/v1/satellites/visible", "/api/v1/satellites/visible"},
		{"/api/v1/tle/metadata", "/api/v1/tle/metadata"},
		{"/api/v1/tle/reload", "/api/v1/tle/reload"},

		// Per-satellite routes collapse to one label.
		{"/api/v1/satellites/25544/elements", "/api/v1/satellites/{norad_id}/elements"},
		{"/api/v1/satellites/44713/elements", "/api/v1/satellites/{norad_id}/elements"},
		{"/api/v1/satellites/25544/passes", "/api/v1/satellites/{norad_id}/passes"},
		{"/api/v1/satellites/25544/orbit", "other"},

		// Unknown/bot paths collapse to "other".
		{"/api/v1/satellites//elements", "other"},
		{"/api/v1/satellites/1/2/elements", "other"},
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/api/v2/calculate", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 distinct NORAD IDs produce exactly
// one path label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute(fmt.Sprintf("/api/v1/satellites/%d/elements", 25544+i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewarePassesStatusThrough(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
}
