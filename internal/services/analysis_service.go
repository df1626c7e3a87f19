package services

import (
	"context"
	"fmt"
	"time"

	"github.com/crashlens/crashlens/internal/config"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/infrastructure/vcs"
	"github.com/crashlens/crashlens/internal/logger"
	"github.com/crashlens/crashlens/internal/prompt"
	"github.com/crashlens/crashlens/internal/trace"
)

const fallbackModelName = "fallback"

var _ ports.AnalysisService = (*AnalysisService)(nil)

// fetcherFactory lets tests swap the provider fetchers for fakes.
type fetcherFactory func(cfg models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error)

// AnalysisService runs the whole error-context pipeline for one event: parse
// the trace, pick the frames worth reading, gather source context under
// budget, render the prompt and call the model. Source context is an
// enhancement, never a precondition: any failure gathering it degrades to an
// analysis over the trace alone, and a model failure degrades to a canned
// low-confidence analysis. The method never surfaces transport errors.
type AnalysisService struct {
	analyzer   ports.Analyzer
	fetchCfg   config.FetchConfig
	newFetcher fetcherFactory
}

func NewAnalysisService(analyzer ports.Analyzer, fetchCfg config.FetchConfig) *AnalysisService {
	return &AnalysisService{
		analyzer:   analyzer,
		fetchCfg:   fetchCfg,
		newFetcher: vcs.NewFetcher,
	}
}

// AnalyzeError implements ports.AnalysisService.
func (s *AnalysisService) AnalyzeError(ctx context.Context, req ports.AnalysisRequest) (models.AnalysisResult, error) {
	ctx = logger.With(ctx, "event_id", req.EventID)

	frames := trace.Parse(req.StackTrace)
	relevant := trace.SelectRelevantFrames(frames, s.fetchCfg.MaxFiles)
	logger.Info(ctx, "parsed stack trace", "frames", len(frames), "files", len(relevant))

	var blocks []models.CodeBlock
	if req.RepoConfig != nil && len(relevant) > 0 {
		blocks = s.gatherSourceContext(ctx, req, relevant)
	}

	rendered, err := prompt.Build(req.Message, req.StackTrace, blocks, s.fetchCfg.MaxPromptLines)
	if err != nil {
		logger.Error(ctx, "prompt rendering failed", err)
		return s.fallbackResult(req, err), nil
	}

	s.logPromptSize(ctx, rendered)

	text, err := s.analyzer.GenerateAnalysis(ctx, rendered)
	if err != nil {
		logger.Error(ctx, "model call failed, falling back to raw analysis", err)
		return s.fallbackResult(req, err), nil
	}

	confidence := models.ConfidenceMedium
	if prompt.HasSourceContext(rendered) {
		confidence = models.ConfidenceHigh
	}

	logger.Info(ctx, "analysis complete", "model", s.analyzer.GetModelName(), "confidence", string(confidence))
	return models.AnalysisResult{
		Text:       text,
		Model:      s.analyzer.GetModelName(),
		Confidence: confidence,
	}, nil
}

// logPromptSize counts the prompt's tokens when the analyzer can, so prompt
// growth shows up in the logs before the model call. Counting is best-effort
// and never blocks the analysis.
func (s *AnalysisService) logPromptSize(ctx context.Context, rendered string) {
	counter, ok := s.analyzer.(ports.TokenCounter)
	if !ok {
		return
	}

	tokens, err := counter.CountTokens(ctx, rendered)
	if err != nil {
		logger.Debug(ctx, "could not count prompt tokens", "error", err)
		return
	}
	logger.Info(ctx, "prompt assembled", "tokens", tokens, "chars", len(rendered))
}

// gatherSourceContext never fails: a fetcher that cannot be constructed (an
// unsupported provider is a project configuration bug) is logged and the
// analysis proceeds without code context.
func (s *AnalysisService) gatherSourceContext(ctx context.Context, req ports.AnalysisRequest, frames []models.StackFrame) []models.CodeBlock {
	repoCfg := *req.RepoConfig
	repoCfg.ApplyDefaults()
	repoCfg.AccessToken = resolveAccessToken(repoCfg.AccessToken, req.ProjectKey, s.fetchCfg.DefaultAccessToken)

	fileTimeout := time.Duration(s.fetchCfg.FileTimeoutSeconds) * time.Second
	fetcher, err := s.newFetcher(repoCfg, fileTimeout)
	if err != nil {
		logger.Warn(ctx, "could not initialize source fetcher, proceeding without context", "error", err)
		return nil
	}

	gatherer := NewContextGatherer(fetcher, &repoCfg, s.fetchCfg)
	return gatherer.Gather(ctx, frames)
}

// fallbackResult is the deterministic analysis shape used when the model
// itself fails: the raw message and trace, labeled so a reader knows no
// model reviewed it.
func (s *AnalysisService) fallbackResult(req ports.AnalysisRequest, cause error) models.AnalysisResult {
	text := fmt.Sprintf(
		"Error Analysis:\n\nMessage: %s\n\nStack Trace:\n%s\n\nNote: LLM analysis failed (%v). Please review the stack trace manually.",
		req.Message, req.StackTrace, cause,
	)
	return models.AnalysisResult{
		Text:       text,
		Model:      fallbackModelName,
		Confidence: models.ConfidenceLow,
	}
}
