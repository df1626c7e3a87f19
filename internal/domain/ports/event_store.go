package ports

import (
	"context"

	"github.com/crashlens/crashlens/internal/domain/models"
)

// EventStore is the narrow persistence surface the pipeline and the worker
// need: fetch an event (with its project), check/save analyses, and list the
// backlog.
type EventStore interface {
	// GetErrorEvent returns the event with its project loaded, or nil when
	// no such event exists.
	GetErrorEvent(ctx context.Context, id int64) (*models.ErrorEvent, error)

	// GetAnalysisByEventID returns the stored analysis for an event, or nil
	// when the event has not been analyzed yet.
	GetAnalysisByEventID(ctx context.Context, eventID int64) (*models.ErrorAnalysis, error)

	// SaveAnalysis persists an analysis record and fills in its ID.
	SaveAnalysis(ctx context.Context, analysis *models.ErrorAnalysis) error

	// ListUnanalyzedEvents returns up to limit server-error events that have
	// no analysis and have not exhausted their attempts, oldest first.
	ListUnanalyzedEvents(ctx context.Context, limit int) ([]models.ErrorEvent, error)

	// RecordAttempt increments the attempt counter for an event.
	RecordAttempt(ctx context.Context, eventID int64) error
}
