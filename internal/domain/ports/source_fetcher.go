package ports

import (
	"context"

	"github.com/crashlens/crashlens/internal/domain/models"
)

// SourceFetcher reads a single file from a repository at a pinned revision.
//
// A nil block with a nil error means "no code for this path": absent files,
// auth failures, timeouts and malformed responses are all collapsed into that
// one outcome so the caller never has to distinguish them.
type SourceFetcher interface {
	// FetchFileWithContext fetches path and, when line > 0, returns only the
	// window of contextLines lines around it, clipped to the file bounds.
	// With line <= 0 the whole file is returned.
	FetchFileWithContext(ctx context.Context, path string, line, contextLines int) (*models.CodeBlock, error)
}
