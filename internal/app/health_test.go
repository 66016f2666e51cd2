package app

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestHealthNeedsNoAuth(t *testing.T) {
	svc := newTestService(&fakeStore{})

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/health", "", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["ok"] != true {
		t.Fatalf("expected ok=true, got %v", payload)
	}
}

func TestReadyReportsDatabase(t *testing.T) {
	svc := newTestService(&fakeStore{})

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/ready", "", ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["status"] != "ready" {
		t.Fatalf("expected ready, got %v", payload["status"])
	}
	checks := payload["checks"].(map[string]any)
	database := checks["database"].(map[string]any)
	if database["status"] != "ok" {
		t.Fatalf("expected database ok, got %v", database)
	}
}

func TestReadyFailsWhenDatabaseUnreachable(t *testing.T) {
	fs := &fakeStore{
		pingFn: func(context.Context) error {
			return errors.New("dial tcp 10.0.0.5:5432: connection refused")
		},
	}
	svc := newTestService(fs)

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/ready", "", ""))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["ok"] != false || payload["status"] != "not_ready" {
		t.Fatalf("unexpected readiness payload: %v", payload)
	}
	database := payload["checks"].(map[string]any)["database"].(map[string]any)
	if database["status"] != "error" || database["error"] == "" {
		t.Fatalf("expected database error detail, got %v", database)
	}
}
