package services

import (
	"context"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/stretchr/testify/mock"
)

type (
	MockSourceFetcher struct {
		mock.Mock
	}

	MockAnalyzer struct {
		mock.Mock
	}

	// MockTokenCountingAnalyzer additionally satisfies ports.TokenCounter.
	MockTokenCountingAnalyzer struct {
		MockAnalyzer
	}
)

func (m *MockSourceFetcher) FetchFileWithContext(ctx context.Context, path string, line, contextLines int) (*models.CodeBlock, error) {
	args := m.Called(ctx, path, line, contextLines)
	block, _ := args.Get(0).(*models.CodeBlock)
	return block, args.Error(1)
}

func (m *MockAnalyzer) GenerateAnalysis(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockAnalyzer) GetModelName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTokenCountingAnalyzer) CountTokens(ctx context.Context, content string) (int, error) {
	args := m.Called(ctx, content)
	return args.Int(0), args.Error(1)
}
