// Package llm generates chat drafts through hosted model providers.
// Each tool names the provider it wants; the registry routes to
// whichever providers were configured with an API key at startup.
package llm

import "context"

// Request is a single-shot generation call. MaxTokens of zero lets the
// provider apply its default ceiling.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider is one hosted model backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
