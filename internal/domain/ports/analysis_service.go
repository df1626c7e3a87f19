package ports

import (
	"context"

	"github.com/crashlens/crashlens/internal/domain/models"
)

// AnalysisRequest carries everything the pipeline needs for one error event.
// RepoConfig may be nil: analysis then runs on the trace alone.
type AnalysisRequest struct {
	EventID    int64
	Message    string
	StackTrace string
	ProjectKey string
	RepoConfig *models.RepoConfig
}

// AnalysisService is the single entry point the dispatcher invokes per error
// event. It never returns a transport error: the worst case is a fallback
// analysis built from the raw message and trace with low confidence.
type AnalysisService interface {
	AnalyzeError(ctx context.Context, req AnalysisRequest) (models.AnalysisResult, error)
}
