package services

import (
	"context"
	"time"

	"github.com/crashlens/crashlens/internal/config"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/gitpath"
	"github.com/crashlens/crashlens/internal/logger"
)

// ContextGatherer drives the source fetcher across the selected frames,
// sequentially, under a global wall-clock budget. Two stopping rules apply
// besides running out of frames:
//
//   - the budget is checked before each fetch; once exceeded, no further
//     fetch is started and whatever was gathered is returned
//   - once enough leading frames have been processed and enough blocks
//     gathered, later frames are skipped: outer callers add little
//
// A frame that fails to fetch is logged and skipped; it never aborts the
// remaining frames.
type ContextGatherer struct {
	fetcher            ports.SourceFetcher
	repoConfig         *models.RepoConfig
	totalBudget        time.Duration
	contextLines       int
	minFilesForContext int
}

func NewContextGatherer(fetcher ports.SourceFetcher, repoConfig *models.RepoConfig, fetchCfg config.FetchConfig) *ContextGatherer {
	return &ContextGatherer{
		fetcher:            fetcher,
		repoConfig:         repoConfig,
		totalBudget:        time.Duration(fetchCfg.TotalBudgetSeconds) * time.Second,
		contextLines:       fetchCfg.ContextLines,
		minFilesForContext: fetchCfg.MinFilesForContext,
	}
}

// Gather returns the code blocks for as many frames as the budget allows, in
// frame order.
func (g *ContextGatherer) Gather(ctx context.Context, frames []models.StackFrame) []models.CodeBlock {
	start := time.Now()
	var blocks []models.CodeBlock

	for idx, frame := range frames {
		if elapsed := time.Since(start); elapsed >= g.totalBudget {
			logger.Warn(ctx, "fetch budget exhausted, stopping early",
				"elapsed", elapsed.Truncate(time.Millisecond), "blocks", len(blocks))
			break
		}

		if idx >= g.minFilesForContext && len(blocks) >= g.minFilesForContext {
			logger.Info(ctx, "gathered enough context, stopping early", "blocks", len(blocks))
			break
		}

		normalized := gitpath.Normalize(frame.FilePath, g.repoConfig)
		logger.Debug(ctx, "normalized frame path", "raw", frame.FilePath, "normalized", normalized)

		block, err := g.fetcher.FetchFileWithContext(ctx, normalized, frame.LineNumber, g.contextLines)
		if err != nil {
			logger.Warn(ctx, "fetch failed for frame, continuing", "path", normalized, "error", err)
			continue
		}
		if block == nil {
			logger.Warn(ctx, "no code for frame", "path", normalized, "raw", frame.FilePath)
			continue
		}

		blocks = append(blocks, *block)
		logger.Info(ctx, "fetched source context",
			"path", normalized, "start_line", block.StartLine, "end_line", block.EndLine)
	}

	logger.Info(ctx, "source fetch finished",
		"duration", time.Since(start).Truncate(time.Millisecond), "files", len(blocks))
	return blocks
}
