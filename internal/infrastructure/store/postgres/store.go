// Package postgres persists projects, error events and analysis records.
// The pipeline itself only ever needs "fetch an event by id" and "save the
// analysis"; the worker additionally lists the backlog.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainerrors "github.com/crashlens/crashlens/internal/domain/errors"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
)

// DBPool abstracts pgxpool.Pool so pgxmock can stand in for tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ ports.EventStore = (*Store)(nil)

type Store struct {
	pool         DBPool
	maxAttempts  int
	retryBackoff time.Duration
}

// Connect opens a pgx pool against the configured database.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

// New creates a store and verifies the connection. maxAttempts and
// retryBackoff shape which events the backlog query hands back to the
// worker: an event reappears only while it has attempts left and its
// previous attempt is at least retryBackoff * attempts in the past.
func New(ctx context.Context, pool DBPool, maxAttempts int, retryBackoff time.Duration) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, maxAttempts: maxAttempts, retryBackoff: retryBackoff}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
    id          BIGSERIAL PRIMARY KEY,
    project_key TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    repo_config JSONB
);

CREATE TABLE IF NOT EXISTS error_events (
    id                BIGSERIAL PRIMARY KEY,
    project_id        BIGINT NOT NULL REFERENCES projects(id),
    message           TEXT NOT NULL,
    stack_trace       TEXT NOT NULL DEFAULT '',
    status_code       INT NOT NULL DEFAULT 0,
    analysis_attempts INT NOT NULL DEFAULT 0,
    last_attempt_at   TIMESTAMPTZ,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS error_analyses (
    id             BIGSERIAL PRIMARY KEY,
    error_event_id BIGINT NOT NULL UNIQUE REFERENCES error_events(id),
    analysis_text  TEXT NOT NULL,
    model          TEXT NOT NULL,
    confidence     TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return domainerrors.NewStoreError("migrate", err)
	}
	return nil
}

// GetErrorEvent implements ports.EventStore.
func (s *Store) GetErrorEvent(ctx context.Context, id int64) (*models.ErrorEvent, error) {
	query := `
        SELECT e.id, e.project_id, e.message, e.stack_trace, e.status_code, e.created_at,
               p.id, p.project_key, p.name, p.repo_config
        FROM error_events e
        JOIN projects p ON p.id = e.project_id
        WHERE e.id = $1;
    `

	var (
		event      models.ErrorEvent
		project    models.Project
		repoConfig []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.ProjectID, &event.Message, &event.StackTrace, &event.StatusCode, &event.CreatedAt,
		&project.ID, &project.ProjectKey, &project.Name, &repoConfig,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.NewStoreError("get_error_event", err)
	}

	if len(repoConfig) > 0 {
		var rc models.RepoConfig
		if err := json.Unmarshal(repoConfig, &rc); err != nil {
			return nil, domainerrors.NewStoreError("decode_repo_config", err)
		}
		project.RepoConfig = &rc
	}

	event.Project = &project
	return &event, nil
}

// GetAnalysisByEventID implements ports.EventStore.
func (s *Store) GetAnalysisByEventID(ctx context.Context, eventID int64) (*models.ErrorAnalysis, error) {
	query := `
        SELECT id, error_event_id, analysis_text, model, confidence, created_at
        FROM error_analyses
        WHERE error_event_id = $1;
    `

	var (
		analysis   models.ErrorAnalysis
		confidence string
	)
	err := s.pool.QueryRow(ctx, query, eventID).Scan(
		&analysis.ID, &analysis.ErrorEventID, &analysis.AnalysisText, &analysis.Model, &confidence, &analysis.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domainerrors.NewStoreError("get_analysis", err)
	}

	analysis.Confidence = models.Confidence(confidence)
	return &analysis, nil
}

// SaveAnalysis implements ports.EventStore.
func (s *Store) SaveAnalysis(ctx context.Context, analysis *models.ErrorAnalysis) error {
	query := `
        INSERT INTO error_analyses (error_event_id, analysis_text, model, confidence)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at;
    `

	err := s.pool.QueryRow(ctx, query,
		analysis.ErrorEventID, analysis.AnalysisText, analysis.Model, string(analysis.Confidence),
	).Scan(&analysis.ID, &analysis.CreatedAt)
	if err != nil {
		return domainerrors.NewStoreError("save_analysis", err)
	}
	return nil
}

// ListUnanalyzedEvents implements ports.EventStore.
func (s *Store) ListUnanalyzedEvents(ctx context.Context, limit int) ([]models.ErrorEvent, error) {
	query := `
        SELECT e.id, e.project_id, e.message, e.stack_trace, e.status_code, e.created_at
        FROM error_events e
        LEFT JOIN error_analyses a ON a.error_event_id = e.id
        WHERE a.id IS NULL
          AND e.status_code >= 500
          AND e.analysis_attempts < $2
          AND (e.last_attempt_at IS NULL
               OR e.last_attempt_at < now() - ($3 * interval '1 second') * e.analysis_attempts)
        ORDER BY e.created_at ASC
        LIMIT $1;
    `

	rows, err := s.pool.Query(ctx, query, limit, s.maxAttempts, s.retryBackoff.Seconds())
	if err != nil {
		return nil, domainerrors.NewStoreError("list_unanalyzed", err)
	}
	defer rows.Close()

	var events []models.ErrorEvent
	for rows.Next() {
		var event models.ErrorEvent
		if err := rows.Scan(&event.ID, &event.ProjectID, &event.Message, &event.StackTrace, &event.StatusCode, &event.CreatedAt); err != nil {
			return nil, domainerrors.NewStoreError("scan_event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.NewStoreError("list_unanalyzed", err)
	}

	return events, nil
}

// RecordAttempt implements ports.EventStore.
func (s *Store) RecordAttempt(ctx context.Context, eventID int64) error {
	query := `UPDATE error_events SET analysis_attempts = analysis_attempts + 1, last_attempt_at = now() WHERE id = $1;`

	tag, err := s.pool.Exec(ctx, query, eventID)
	if err != nil {
		return domainerrors.NewStoreError("record_attempt", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.NewStoreError("record_attempt", fmt.Errorf("event %d not found", eventID))
	}
	return nil
}
