// Package worker dispatches pending error events into the analysis
// pipeline. The pipeline below it absorbs its own failures; the worker only
// deals in store errors and attempt bookkeeping.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/crashlens/crashlens/internal/config"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/logger"
)

type Worker struct {
	store        ports.EventStore
	service      ports.AnalysisService
	pollInterval time.Duration
	concurrency  int
}

func New(store ports.EventStore, service ports.AnalysisService, cfg config.WorkerConfig) *Worker {
	return &Worker{
		store:        store,
		service:      service,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		concurrency:  cfg.Concurrency,
	}
}

// Run polls the backlog until the context is canceled. Retry policy lives in
// the store query: an event stays in the backlog while it has attempts left
// and its backoff window has passed.
func (w *Worker) Run(ctx context.Context) error {
	logger.Info(ctx, "worker started", "poll_interval", w.pollInterval, "concurrency", w.concurrency)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		if err := w.processBatch(ctx); err != nil {
			logger.Error(ctx, "failed to process batch", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "worker stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	events, err := w.store.ListUnanalyzedEvents(ctx, w.concurrency*2)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	logger.Info(ctx, "dispatching pending events", "events", len(events))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, event := range events {
		g.Go(func() error {
			w.ProcessEvent(ctx, event.ID)
			return nil
		})
	}
	return g.Wait()
}

// ProcessEvent runs one event through the pipeline and persists the result.
// Skips are silent successes: a missing event, a client-side status code or
// an analysis that already exists all mean there is nothing to do.
func (w *Worker) ProcessEvent(ctx context.Context, eventID int64) {
	ctx = logger.With(ctx, "task_id", uuid.NewString(), "event_id", eventID)

	event, err := w.store.GetErrorEvent(ctx, eventID)
	if err != nil {
		logger.Error(ctx, "could not load error event", err)
		return
	}
	if event == nil {
		logger.Warn(ctx, "error event not found, skipping")
		return
	}
	if event.StatusCode < 500 {
		logger.Debug(ctx, "skipping event: not a server error", "status_code", event.StatusCode)
		return
	}

	existing, err := w.store.GetAnalysisByEventID(ctx, eventID)
	if err != nil {
		logger.Error(ctx, "could not check for existing analysis", err)
		return
	}
	if existing != nil {
		logger.Debug(ctx, "analysis already exists, skipping", "analysis_id", existing.ID)
		return
	}

	// Counted before the pipeline runs so a crash mid-analysis still
	// consumes an attempt.
	if err := w.store.RecordAttempt(ctx, eventID); err != nil {
		logger.Error(ctx, "could not record attempt", err)
		return
	}

	req := ports.AnalysisRequest{
		EventID:    eventID,
		Message:    event.Message,
		StackTrace: event.StackTrace,
	}
	if event.Project != nil {
		req.ProjectKey = event.Project.ProjectKey
		req.RepoConfig = event.Project.RepoConfig
	}

	result, err := w.service.AnalyzeError(ctx, req)
	if err != nil {
		logger.Error(ctx, "analysis failed", err)
		return
	}

	analysis := &models.ErrorAnalysis{
		ErrorEventID: eventID,
		AnalysisText: result.Text,
		Model:        result.Model,
		Confidence:   result.Confidence,
	}
	if err := w.store.SaveAnalysis(ctx, analysis); err != nil {
		logger.Error(ctx, "could not save analysis", err)
		return
	}

	logger.Info(ctx, "analysis stored", "analysis_id", analysis.ID, "confidence", string(result.Confidence))
}
