// Package ai wraps the LLM used for narrative generation. Callers depend
// on the Client interface and supply their own fallback text when the
// model is unreachable; nothing in the game layer fails hard on AI errors.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the model could not produce a
	// response after all retries.
	ErrUnavailable = errors.New("ai: model unavailable")
	// ErrEmptyResponse is returned when the model answered with no
	// usable text content.
	ErrEmptyResponse = errors.New("ai: empty response")
)

// Request describes one generation call.
type Request struct {
	// System is the system instruction; empty means no system prompt.
	System string
	// Prompt is the user-facing prompt text.
	Prompt string
	// Temperature overrides the model default when > 0.
	Temperature float32
	// MaxTokens caps the output length when > 0.
	MaxTokens int32
}

// Client generates narrative text. Implementations must be safe for
// concurrent use.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Disabled is a Client used when no API key is configured. Every call
// fails with ErrUnavailable so callers take their fallback path.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) { return "", ErrUnavailable }
func (Disabled) Close() error                                      { return nil }
