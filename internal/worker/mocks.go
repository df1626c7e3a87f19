package worker

import (
	"context"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

type (
	MockEventStore struct {
		mock.Mock
	}

	MockAnalysisService struct {
		mock.Mock
	}
)

func (m *MockEventStore) GetErrorEvent(ctx context.Context, id int64) (*models.ErrorEvent, error) {
	args := m.Called(ctx, id)
	event, _ := args.Get(0).(*models.ErrorEvent)
	return event, args.Error(1)
}

func (m *MockEventStore) GetAnalysisByEventID(ctx context.Context, eventID int64) (*models.ErrorAnalysis, error) {
	args := m.Called(ctx, eventID)
	analysis, _ := args.Get(0).(*models.ErrorAnalysis)
	return analysis, args.Error(1)
}

func (m *MockEventStore) SaveAnalysis(ctx context.Context, analysis *models.ErrorAnalysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockEventStore) ListUnanalyzedEvents(ctx context.Context, limit int) ([]models.ErrorEvent, error) {
	args := m.Called(ctx, limit)
	events, _ := args.Get(0).([]models.ErrorEvent)
	return events, args.Error(1)
}

func (m *MockEventStore) RecordAttempt(ctx context.Context, eventID int64) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockAnalysisService) AnalyzeError(ctx context.Context, req ports.AnalysisRequest) (models.AnalysisResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.AnalysisResult), args.Error(1)
}
