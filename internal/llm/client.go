// Package llm defines the request-engine contract the generation
// pipeline consumes, the provider clients that implement it, and the
// bounded-concurrency batch runner.
//
// The core never depends on more than the Client interface; providers
// are interchangeable collaborators and must be safe for concurrent
// use.
package llm

import (
	"context"
	"fmt"
)

// Message is one role/content pair of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Params are the per-call knobs forwarded to the provider. Zero values
// mean "provider default".
type Params struct {
	Temperature *float64
	MaxTokens   int
	// ResponseFormat is "text" or "json_object" for providers that
	// support response-format hints.
	ResponseFormat string
}

// Client is the request engine: given role/content messages and call
// parameters it returns response text synchronously, or an error on
// transport/provider failure. Implementations must be safe for
// concurrent invocation.
type Client interface {
	Chat(ctx context.Context, messages []Message, params Params) (string, error)
}

// SystemUser is a convenience constructor for the common
// system-plus-user message pair.
func SystemUser(systemPrompt, userPrompt string) []Message {
	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}

// TransportError means the request engine failed to produce any
// response. It is the only error class the batch runner retries.
type TransportError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
