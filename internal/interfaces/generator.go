package interfaces

import "context"

// Generator produces an answer from a question and retrieved context
// Used by the RAG orchestrator; implementations may call a local model or
// fall back to formatting the context directly.
type Generator interface {
	// Generate returns the answer text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName identifies the backing model for response metadata
	ModelName() string

	// IsAvailable checks whether generation can be attempted
	IsAvailable(ctx context.Context) bool
}
