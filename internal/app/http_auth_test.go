package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"artemo/api/internal/store"
)

func mintToken(t *testing.T, userID, email string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte(testSigningSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func apiRequest(method, path, token, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serveAPI(svc *Service, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	NewHTTPServer(svc, nil, "").Handler().ServeHTTP(rr, req)
	return rr
}

// profileStore returns a store whose profile lookup always succeeds
// with an active account in the given role.
func profileStore(role string) *fakeStore {
	return &fakeStore{
		getProfileByIDFn: func(_ context.Context, userID string) (store.Profile, error) {
			return store.Profile{
				ID:       userID,
				Email:    userID + "@artemo.test",
				FullName: "Test User",
				Role:     role,
				IsActive: true,
			}, nil
		},
	}
}

func TestRoutesRequireBearerToken(t *testing.T) {
	svc := newTestService(profileStore("user"))

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer"} {
		req := apiRequest(http.MethodGet, "/api/me", "", "")
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := serveAPI(svc, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rr.Code)
		}
		payload := decodePayload(t, rr)
		if payload["code"] != "UNAUTHORIZED" {
			t.Fatalf("header %q: expected UNAUTHORIZED code, got %v", header, payload["code"])
		}
	}
}

func TestRoutesRejectGarbageToken(t *testing.T) {
	svc := newTestService(profileStore("user"))

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/me", "not-a-jwt", ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoutesRejectExpiredToken(t *testing.T) {
	svc := newTestService(profileStore("user"))

	token := mintToken(t, "user-1", "user-1@artemo.test", time.Now().Add(-time.Hour))
	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/me", token, ""))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestRoutesRejectForeignSignature(t *testing.T) {
	svc := newTestService(profileStore("user"))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := foreign.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/me", token, ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", rr.Code)
	}
}

func TestUnprovisionedAccountGets403(t *testing.T) {
	svc := newTestService(&fakeStore{}) // profile lookup defaults to no rows

	token := mintToken(t, "user-1", "user-1@artemo.test", time.Now().Add(time.Hour))
	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/me", token, ""))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	if payload["code"] != "PROFILE_NOT_PROVISIONED" {
		t.Fatalf("expected PROFILE_NOT_PROVISIONED, got %v", payload["code"])
	}
}

func TestDisabledAccountGets403(t *testing.T) {
	fs := &fakeStore{
		getProfileByIDFn: func(_ context.Context, userID string) (store.Profile, error) {
			return store.Profile{ID: userID, Email: "off@artemo.test", Role: "pro", IsActive: false}, nil
		},
	}
	svc := newTestService(fs)

	token := mintToken(t, "user-1", "off@artemo.test", time.Now().Add(time.Hour))
	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/projects", token, ""))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["code"] != "ACCOUNT_DISABLED" {
		t.Fatalf("expected ACCOUNT_DISABLED, got %v", payload["code"])
	}
}

func TestMeReturnsProfileWithFavorites(t *testing.T) {
	fs := profileStore("pro")
	fs.listFavoriteIDsFn = func(context.Context, string) ([]string, error) {
		return []string{"tool-1", "tool-2"}, nil
	}
	svc := newTestService(fs)

	token := mintToken(t, "user-1", "user-1@artemo.test", time.Now().Add(time.Hour))
	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/me", token, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	if payload["id"] != "user-1" {
		t.Fatalf("expected id user-1, got %v", payload["id"])
	}
	if payload["role"] != "pro" {
		t.Fatalf("expected role pro, got %v", payload["role"])
	}
	favorites, ok := payload["favoriteToolIds"].([]any)
	if !ok || len(favorites) != 2 {
		t.Fatalf("expected two favorite ids, got %v", payload["favoriteToolIds"])
	}
	if favorites[0] != "tool-1" {
		t.Fatalf("expected tool-1 first, got %v", favorites[0])
	}
}

func TestUnknownRouteWithValidSession(t *testing.T) {
	svc := newTestService(profileStore("user"))

	token := mintToken(t, "user-1", "user-1@artemo.test", time.Now().Add(time.Hour))
	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/widgets", token, ""))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	payload := decodePayload(t, rr)
	if payload["code"] != "NOT_FOUND" || payload["error"] != "Not found" {
		t.Fatalf("unexpected error envelope: %v", payload)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	svc := newTestService(profileStore("user"))

	req := apiRequest(http.MethodGet, "/api/health", "", "")
	req.Header.Set("X-Request-ID", "req-abc123")
	rr := serveAPI(svc, req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-abc123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rr = serveAPI(svc, apiRequest(http.MethodGet, "/api/health", "", ""))
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated request id")
	}
}
