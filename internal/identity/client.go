// Package identity is a thin client for the identity platform's admin
// API. Provisioning uses it to look up accounts by email, create
// pre-confirmed accounts, and flip the ban flag alongside profile
// activation changes.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"artemo/api/internal/provision"
)

// indefiniteBan is the duration sent when banning: roughly a century,
// which the platform treats as permanent.
const indefiniteBan = "876000h"

type UserMetadata struct {
	FullName string `json:"full_name"`
}

// User is the subset of the platform's account record the API reads.
type User struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
}

func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminKey:   adminKey,
	}
}

// LookupByEmail finds the account registered under email. A missing
// account is not an error: both a 404 and an empty result page return
// (nil, nil) so callers can branch on presence.
func (c *Client) LookupByEmail(ctx context.Context, email string) (*User, error) {
	endpoint := fmt.Sprintf("%s/admin/users?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("lookup user", resp)
	}

	var payload struct {
		Users []User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("identity lookup: decode response: %w", err)
	}
	if len(payload.Users) == 0 {
		return nil, nil
	}
	user := payload.Users[0]
	return &user, nil
}

// CreateUser registers a new account with the email already confirmed,
// since provisioning is triggered by a completed purchase and there is
// no verification step to send the user through.
func (c *Client) CreateUser(ctx context.Context, email, fullName string) (User, error) {
	body := map[string]any{
		"email":         email,
		"email_confirm": true,
		"user_metadata": map[string]any{"full_name": fullName},
	}
	resp, err := c.send(ctx, http.MethodPost, c.baseURL+"/admin/users", body)
	if err != nil {
		return User{}, fmt.Errorf("identity create: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return User{}, apiError("create user", resp)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("identity create: decode response: %w", err)
	}
	if user.ID == "" {
		return User{}, fmt.Errorf("identity create: response missing user id")
	}
	return user, nil
}

// SetBan applies a provisioning ban action to the account. BanActionNone
// short-circuits without touching the network.
func (c *Client) SetBan(ctx context.Context, userID string, action provision.BanAction) error {
	if action == provision.BanActionNone {
		return nil
	}
	duration := indefiniteBan
	if action == provision.BanActionUnban {
		duration = "none"
	}
	resp, err := c.send(ctx, http.MethodPut, c.baseURL+"/admin/users/"+url.PathEscape(userID), map[string]any{
		"ban_duration": duration,
	})
	if err != nil {
		return fmt.Errorf("identity ban update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError("update ban", resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.httpClient.Do(req)
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.adminKey)
	req.Header.Set("apikey", c.adminKey)
}

func apiError(operation string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	trimmed := strings.TrimSpace(string(snippet))
	if trimmed == "" {
		return fmt.Errorf("identity %s: status %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("identity %s: status %d: %s", operation, resp.StatusCode, trimmed)
}
