package llm

import (
	"context"
	"errors"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// ErrUnavailable is returned by the unavailable sentinel provider. Callers
// that can degrade gracefully (the condition judge, the response generator)
// check for it instead of treating it as a hard failure.
var ErrUnavailable = errors.New("llm provider unavailable")

// unavailableProvider is the sentinel used when no provider is configured
// (missing API key, provider "none"). Every call fails with ErrUnavailable.
type unavailableProvider struct{}

// Unavailable returns the sentinel provider.
func Unavailable() Provider {
	return unavailableProvider{}
}

func (unavailableProvider) Name() string { return "unavailable" }

func (unavailableProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return nil, ErrUnavailable
}

// IsUnavailable reports whether err indicates the sentinel provider.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
