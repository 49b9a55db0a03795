// Package llm provides text-completion backend interfaces and implementations.
package llm

import (
	"context"
)

// Client is the interface for text-completion backends. The interpreter
// sends a system prompt plus the raw user text and receives raw text back;
// replies may be malformed or unstructured and callers must tolerate that.
type Client interface {
	// Complete sends a system prompt and user prompt, returning raw text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Configured reports whether the backend has credentials and can be called.
	Configured() bool

	// Name returns the provider name.
	Name() string
}

// Provider is the type of completion provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// FirstConfigured returns the first configured client in priority order,
// or nil when none is configured. Exactly one backend is tried per call;
// a failure of the selected backend does not fall through to the next.
func FirstConfigured(clients []Client) Client {
	for _, c := range clients {
		if c != nil && c.Configured() {
			return c
		}
	}
	return nil
}
