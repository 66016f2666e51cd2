package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	OpenAIName    = "openai"
	openAIBaseURL = "https://api.openai.com/v1"
	openAIModel   = "gpt-4o"
)

type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: openAIBaseURL,
		apiKey:  apiKey,
	}
}

func (o *OpenAI) Name() string {
	return OpenAIName
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	messages := make([]map[string]any, 0, 2)
	if req.System != "" {
		messages = append(messages, map[string]any{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]any{"role": "user", "content": req.Prompt})

	encoded, err := json.Marshal(map[string]any{
		"model":      openAIModel,
		"max_tokens": maxTokens,
		"messages":   messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", providerError(OpenAIName, resp)
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: response contained no choices")
	}
	return payload.Choices[0].Message.Content, nil
}
