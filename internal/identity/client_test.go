package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artemo/api/internal/provision"
)

func TestLookupByEmailReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if got := r.URL.Query().Get("email"); got != "casey@example.com" {
			t.Errorf("email query = %q, want casey@example.com", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("apikey"); got != "admin-key" {
			t.Errorf("apikey = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{
				{"id": "user-1", "email": "casey@example.com", "user_metadata": map[string]any{"full_name": "Casey"}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin-key")
	user, err := client.LookupByEmail(context.Background(), "casey@example.com")
	if err != nil {
		t.Fatalf("LookupByEmail() error = %v", err)
	}
	if user == nil {
		t.Fatal("LookupByEmail() = nil, want user")
	}
	if user.ID != "user-1" || user.Metadata.FullName != "Casey" {
		t.Errorf("user = %+v", user)
	}
}

func TestLookupByEmailMissingUserIsNotAnError(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"404": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		"empty page": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"users": []any{}})
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			client := NewClient(srv.URL, "admin-key")
			user, err := client.LookupByEmail(context.Background(), "nobody@example.com")
			if err != nil {
				t.Fatalf("LookupByEmail() error = %v", err)
			}
			if user != nil {
				t.Errorf("LookupByEmail() = %+v, want nil", user)
			}
		})
	}
}

func TestLookupByEmailSurfacesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"msg":"upstream exploded"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin-key")
	if _, err := client.LookupByEmail(context.Background(), "casey@example.com"); err == nil {
		t.Fatal("LookupByEmail() error = nil, want upstream error")
	} else if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("error = %v, want status and body snippet", err)
	}
}

func TestCreateUserSendsPreConfirmedAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/users" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Email        string `json:"email"`
			EmailConfirm bool   `json:"email_confirm"`
			UserMetadata struct {
				FullName string `json:"full_name"`
			} `json:"user_metadata"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Email != "new@example.com" {
			t.Errorf("email = %q", body.Email)
		}
		if !body.EmailConfirm {
			t.Error("email_confirm = false, want true")
		}
		if body.UserMetadata.FullName != "New Person" {
			t.Errorf("full_name = %q", body.UserMetadata.FullName)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-9", "email": body.Email})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin-key")
	user, err := client.CreateUser(context.Background(), "new@example.com", "New Person")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID != "user-9" {
		t.Errorf("user.ID = %q, want user-9", user.ID)
	}
}

func TestCreateUserRejectsMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"email": "new@example.com"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin-key")
	if _, err := client.CreateUser(context.Background(), "new@example.com", ""); err == nil {
		t.Fatal("CreateUser() error = nil, want missing id error")
	}
}

func TestSetBanPayloads(t *testing.T) {
	cases := []struct {
		action       provision.BanAction
		wantDuration string
	}{
		{provision.BanActionBan, "876000h"},
		{provision.BanActionUnban, "none"},
	}

	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/admin/users/user-3" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				var body struct {
					BanDuration string `json:"ban_duration"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if body.BanDuration != tc.wantDuration {
					t.Errorf("ban_duration = %q, want %q", body.BanDuration, tc.wantDuration)
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-3"})
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "admin-key")
			if err := client.SetBan(context.Background(), "user-3", tc.action); err != nil {
				t.Fatalf("SetBan(%s) error = %v", tc.action, err)
			}
		})
	}
}

func TestSetBanNoneSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin-key")
	if err := client.SetBan(context.Background(), "user-3", provision.BanActionNone); err != nil {
		t.Fatalf("SetBan(none) error = %v", err)
	}
	if calls != 0 {
		t.Errorf("identity API calls = %d, want 0", calls)
	}
}
