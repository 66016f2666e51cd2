package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	AnthropicName    = "anthropic"
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicModel   = "claude-3-5-sonnet-20241022"
	anthropicVersion = "2023-06-01"

	// Long-form tools produce articles over a thousand words, so the
	// default ceiling has to leave room well past chat-sized replies.
	defaultMaxTokens = 4096
)

type Anthropic struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: anthropicBaseURL,
		apiKey:  apiKey,
	}
}

func (a *Anthropic) Name() string {
	return AnthropicName
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	body := map[string]any{
		"model":      anthropicModel,
		"max_tokens": maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.System != "" {
		body["system"] = req.System
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("anthropic: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", providerError(AnthropicName, resp)
	}

	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	for _, block := range payload.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: response contained no text content")
}

func providerError(name string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	trimmed := strings.TrimSpace(string(snippet))
	if trimmed == "" {
		return fmt.Errorf("%s: status %d", name, resp.StatusCode)
	}
	return fmt.Errorf("%s: status %d: %s", name, resp.StatusCode, trimmed)
}
