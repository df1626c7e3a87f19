package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crashlens/crashlens/internal/config"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const nodeTrace = `TypeError: Cannot read properties of undefined (reading 'id')
    at getUser (/app/src/services/user.js:42:15)
    at processRequest (/app/src/handlers/request.js:17:9)`

func newTestService(analyzer ports.Analyzer, fetcher ports.SourceFetcher) *AnalysisService {
	s := NewAnalysisService(analyzer, gathererFetchConfig())
	s.newFetcher = func(cfg models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error) {
		return fetcher, nil
	}
	return s
}

func TestAnalyzeError_HighConfidenceWithSourceContext(t *testing.T) {
	mockFetcher := new(MockSourceFetcher)
	mockFetcher.On("FetchFileWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(codeBlock("src/services/user.js"), nil)

	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.MatchedBy(func(p string) bool {
		return prompt.HasSourceContext(p)
	})).Return("the root cause is a nil user", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := newTestService(mockAnalyzer, mockFetcher)
	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    1,
		Message:    "TypeError: Cannot read properties of undefined",
		StackTrace: nodeTrace,
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop", AccessToken: "tok"},
	})

	require.NoError(t, err)
	assert.Equal(t, "the root cause is a nil user", result.Text)
	assert.Equal(t, "gemini-2.5-flash", result.Model)
	assert.Equal(t, models.ConfidenceHigh, result.Confidence)
	mockAnalyzer.AssertExpectations(t)
}

func TestAnalyzeError_MediumConfidenceWithoutRepoConfig(t *testing.T) {
	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.MatchedBy(func(p string) bool {
		return !prompt.HasSourceContext(p)
	})).Return("analysis from the trace alone", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := newTestService(mockAnalyzer, nil)
	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    2,
		Message:    "boom",
		StackTrace: nodeTrace,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceMedium, result.Confidence)
	mockAnalyzer.AssertExpectations(t)
}

func TestAnalyzeError_MediumConfidenceWhenNothingFetched(t *testing.T) {
	mockFetcher := new(MockSourceFetcher)
	mockFetcher.On("FetchFileWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("trace-only analysis", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := newTestService(mockAnalyzer, mockFetcher)
	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    3,
		Message:    "boom",
		StackTrace: nodeTrace,
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceMedium, result.Confidence)
}

func TestAnalyzeError_FallbackWhenModelFails(t *testing.T) {
	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	service := newTestService(mockAnalyzer, nil)
	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    4,
		Message:    "boom",
		StackTrace: nodeTrace,
	})

	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Model)
	assert.Equal(t, models.ConfidenceLow, result.Confidence)
	assert.Contains(t, result.Text, "boom")
	assert.Contains(t, result.Text, "quota exceeded")
	assert.Contains(t, result.Text, "Please review the stack trace manually")
}

func TestAnalyzeError_UnparseableTraceStillAnalyzed(t *testing.T) {
	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("nothing to see", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := newTestService(mockAnalyzer, nil)
	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    5,
		Message:    "boom",
		StackTrace: "completely unstructured text",
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceMedium, result.Confidence)
}

func TestAnalyzeError_FetcherConstructionFailureDegrades(t *testing.T) {
	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.MatchedBy(func(p string) bool {
		return !prompt.HasSourceContext(p)
	})).Return("trace-only analysis", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := NewAnalysisService(mockAnalyzer, gathererFetchConfig())
	service.newFetcher = func(cfg models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error) {
		return nil, errors.New("unsupported provider: svn")
	}

	result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    6,
		Message:    "boom",
		StackTrace: nodeTrace,
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop", Provider: "svn"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceMedium, result.Confidence)
	mockAnalyzer.AssertExpectations(t)
}

func TestAnalyzeError_AppliesRepoDefaultsBeforeFetching(t *testing.T) {
	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("ok", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	var seen models.RepoConfig
	service := NewAnalysisService(mockAnalyzer, gathererFetchConfig())
	service.newFetcher = func(cfg models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error) {
		seen = cfg
		fetcher := new(MockSourceFetcher)
		fetcher.On("FetchFileWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil)
		return fetcher, nil
	}

	_, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    7,
		Message:    "boom",
		StackTrace: nodeTrace,
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop", AccessToken: "tok"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.ProviderGitHub, seen.Provider)
	assert.Equal(t, "main", seen.Branch)
	assert.Equal(t, "tok", seen.AccessToken)
}

func TestAnalyzeError_CountsPromptTokens(t *testing.T) {
	t.Run("token count is taken from the rendered prompt", func(t *testing.T) {
		mockAnalyzer := new(MockTokenCountingAnalyzer)
		mockAnalyzer.On("CountTokens", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "STACK TRACE")
		})).Return(123, nil)
		mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("ok", nil)
		mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

		service := NewAnalysisService(mockAnalyzer, gathererFetchConfig())
		_, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
			EventID:    9,
			Message:    "boom",
			StackTrace: nodeTrace,
		})

		require.NoError(t, err)
		mockAnalyzer.AssertExpectations(t)
	})

	t.Run("counting failure does not block the analysis", func(t *testing.T) {
		mockAnalyzer := new(MockTokenCountingAnalyzer)
		mockAnalyzer.On("CountTokens", mock.Anything, mock.Anything).Return(0, errors.New("count unavailable"))
		mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("ok", nil)
		mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

		service := NewAnalysisService(mockAnalyzer, gathererFetchConfig())
		result, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
			EventID:    10,
			Message:    "boom",
			StackTrace: nodeTrace,
		})

		require.NoError(t, err)
		assert.Equal(t, "ok", result.Text)
	})

	t.Run("analyzer without a counter is left alone", func(t *testing.T) {
		mockAnalyzer := new(MockAnalyzer)
		mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("ok", nil)
		mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

		service := NewAnalysisService(mockAnalyzer, gathererFetchConfig())
		_, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
			EventID:    11,
			Message:    "boom",
			StackTrace: nodeTrace,
		})

		require.NoError(t, err)
		mockAnalyzer.AssertNotCalled(t, "CountTokens", mock.Anything, mock.Anything)
	})
}

func TestAnalyzeError_FetchConfigLimitsFrames(t *testing.T) {
	cfg := config.FetchConfig{
		FileTimeoutSeconds: 5,
		TotalBudgetSeconds: 15,
		ContextLines:       15,
		MaxFiles:           1,
		MinFilesForContext: 2,
		MaxPromptLines:     500,
	}

	mockFetcher := new(MockSourceFetcher)
	mockFetcher.On("FetchFileWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(codeBlock("src/services/user.js"), nil).Once()

	mockAnalyzer := new(MockAnalyzer)
	mockAnalyzer.On("GenerateAnalysis", mock.Anything, mock.Anything).Return("ok", nil)
	mockAnalyzer.On("GetModelName").Return("gemini-2.5-flash")

	service := NewAnalysisService(mockAnalyzer, cfg)
	service.newFetcher = func(c models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error) {
		return mockFetcher, nil
	}

	_, err := service.AnalyzeError(context.Background(), ports.AnalysisRequest{
		EventID:    8,
		Message:    "boom",
		StackTrace: nodeTrace,
		RepoConfig: &models.RepoConfig{Owner: "acme", Repo: "shop"},
	})

	require.NoError(t, err)
	mockFetcher.AssertNumberOfCalls(t, "FetchFileWithContext", 1)
}
