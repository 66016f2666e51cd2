package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginResolver(t *testing.T) {
	resolver := newOriginResolver(
		[]string{"https://app.artemo.io", " http://localhost:5173/ ", ""},
		"preview.artemo.io",
	)

	cases := []struct {
		origin string
		want   string
	}{
		{"https://app.artemo.io", "https://app.artemo.io"},
		{"https://app.artemo.io/", "https://app.artemo.io"},
		{"http://localhost:5173", "http://localhost:5173"},
		{"https://feature-x.preview.artemo.io", "https://feature-x.preview.artemo.io"},
		{"https://preview.artemo.io", "https://preview.artemo.io"},
		{"http://feature-x.preview.artemo.io", ""}, // previews are https only
		{"https://evilpreview.artemo.io", ""},      // suffix must match on a label boundary
		{"https://evil.example.com", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := resolver.resolve(tc.origin); got != tc.want {
			t.Errorf("resolve(%q) = %q, want %q", tc.origin, got, tc.want)
		}
	}
}

func TestOriginResolverWithoutPreviewSuffix(t *testing.T) {
	resolver := newOriginResolver([]string{"https://app.artemo.io"}, "")

	if got := resolver.resolve("https://anything.preview.artemo.io"); got != "" {
		t.Fatalf("expected no preview matching without a suffix, got %q", got)
	}
}

func TestCORSHeadersOnAllowedOrigin(t *testing.T) {
	svc := newTestService(profileStore("user"))
	server := NewHTTPServer(svc, []string{"https://app.artemo.io"}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://app.artemo.io")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.artemo.io" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Fatal("expected allow-headers on an allowed origin")
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestCORSHeadersAbsentForUnknownOrigin(t *testing.T) {
	svc := newTestService(profileStore("user"))
	server := NewHTTPServer(svc, []string{"https://app.artemo.io"}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origins must get no allow-origin, got %q", got)
	}
	// Vary stays so caches keep per-origin entries apart.
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin, got %q", got)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	svc := newTestService(&fakeStore{})
	server := NewHTTPServer(svc, []string{"https://app.artemo.io"}, "")

	req := httptest.NewRequest(http.MethodOptions, "/api/chats", nil)
	req.Header.Set("Origin", "https://app.artemo.io")
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	// No auth required: the preflight never carries credentials.
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected allow-methods on preflight")
	}
}
