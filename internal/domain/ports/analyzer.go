package ports

import "context"

// Analyzer is the language-model client. It takes a finished prompt and
// returns generated text; everything about how the prompt was assembled is
// opaque to it.
type Analyzer interface {
	// GenerateAnalysis runs the model over the prompt and returns its text.
	GenerateAnalysis(ctx context.Context, prompt string) (string, error)

	// GetModelName returns the identifier of the underlying model
	// (e.g. "gemini-2.5-flash").
	GetModelName() string
}

// TokenCounter estimates prompt size without calling the model.
type TokenCounter interface {
	CountTokens(ctx context.Context, content string) (int, error)
}
