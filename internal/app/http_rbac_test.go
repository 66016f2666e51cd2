package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"artemo/api/internal/store"
)

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	return mintToken(t, userID, userID+"@artemo.test", time.Now().Add(time.Hour))
}

func TestCatalogWritesRequireManagerRole(t *testing.T) {
	for _, role := range []string{"user", "pro"} {
		t.Run(role, func(t *testing.T) {
			svc := newTestService(profileStore(role))

			cases := []struct {
				method string
				path   string
				body   string
			}{
				{http.MethodPost, "/api/tools", `{"name":"X"}`},
				{http.MethodPut, "/api/tools/tool-1", `{"name":"X"}`},
				{http.MethodDelete, "/api/tools/tool-1", ""},
				{http.MethodPost, "/api/categories", `{"name":"X"}`},
				{http.MethodPut, "/api/categories/cat-1", `{"name":"X"}`},
				{http.MethodDelete, "/api/categories/cat-1", ""},
			}
			for _, tc := range cases {
				rr := serveAPI(svc, apiRequest(tc.method, tc.path, tokenFor(t, "member-1"), tc.body))
				if rr.Code != http.StatusForbidden {
					t.Fatalf("%s %s: expected 403, got %d body=%s", tc.method, tc.path, rr.Code, rr.Body.String())
				}
				payload := decodePayload(t, rr)
				if payload["code"] != "FORBIDDEN" {
					t.Fatalf("%s %s: expected FORBIDDEN code, got %v", tc.method, tc.path, payload["code"])
				}
			}
		})
	}
}

func TestVersionHistoryRequiresManagerRole(t *testing.T) {
	svc := newTestService(profileStore("pro"))

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/tools/tool-1/versions", tokenFor(t, "member-1"), ""))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestVersionHistoryForManager(t *testing.T) {
	fs := profileStore("admin")
	fs.getToolFn = func(_ context.Context, toolID string) (store.Tool, error) {
		return store.Tool{ID: toolID, Name: "Facebook Ad"}, nil
	}
	svc := newTestService(fs)

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/tools/tool-1/versions", tokenFor(t, "admin-1"), ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	versions, ok := payload["versions"].([]any)
	if !ok || len(versions) != 1 {
		t.Fatalf("expected one version, got %v", payload["versions"])
	}
	entry := versions[0].(map[string]any)
	if entry["hash"] == "" || entry["author"] == "" {
		t.Fatalf("expected hash and author fields, got %v", entry)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	svc := newTestService(profileStore("pro"))

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/admin/users", tokenFor(t, "member-1"), ""))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for pro on admin route, got %d", rr.Code)
	}
}

func TestAdminListsUsers(t *testing.T) {
	fs := profileStore("admin")
	fs.listProfilesFn = func(context.Context) ([]store.Profile, error) {
		return []store.Profile{
			{ID: "user-1", Email: "one@artemo.test", Role: "user", IsActive: true},
			{ID: "user-2", Email: "two@artemo.test", Role: "pro", IsActive: false},
		}, nil
	}
	svc := newTestService(fs)

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/admin/users", tokenFor(t, "admin-1"), ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	users, ok := payload["users"].([]any)
	if !ok || len(users) != 2 {
		t.Fatalf("expected two users, got %v", payload["users"])
	}
	second := users[1].(map[string]any)
	if second["isActive"] != false {
		t.Fatalf("expected disabled second user, got %v", second)
	}
}

func TestAdminUserUpdateRejectsUnknownRole(t *testing.T) {
	svc := newTestService(profileStore("admin"))

	rr := serveAPI(svc, apiRequest(http.MethodPut, "/api/admin/users/user-2", tokenFor(t, "admin-1"), `{"role":"owner"}`))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", payload["code"])
	}
}

func TestUnpublishedListingFlagIgnoredForMembers(t *testing.T) {
	fs := profileStore("pro")
	fs.listToolsFn = func(context.Context, string, bool) ([]store.Tool, error) {
		t.Fatal("members must never hit the store listing")
		return nil, nil
	}
	svc := newTestService(fs)

	rr := serveAPI(svc, apiRequest(http.MethodGet, "/api/tools?includeUnpublished=true", tokenFor(t, "member-1"), ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	payload := decodePayload(t, rr)
	tools, ok := payload["tools"].([]any)
	if !ok || len(tools) != 0 {
		t.Fatalf("expected the published catalog (empty), got %v", payload["tools"])
	}
}
