package providers

import "context"

// GenerateRequest carries the fully assembled prompt and sampling
// parameters for a single completion.
type GenerateRequest struct {
	Prompt          string
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

// GenerateResponse holds the completed answer text and the model that
// produced it.
type GenerateResponse struct {
	Text  string
	Model string
}

// Provider is a pluggable text-generation backend.
type Provider interface {
	// Name returns the backend identifier used for registry lookup.
	Name() string

	// Generate produces an answer for the given prompt. Implementations
	// must honor context cancellation and return typed domain errors.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}
