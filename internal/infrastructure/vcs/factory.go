// Package vcs selects the source fetcher for a repository configuration.
package vcs

import (
	"time"

	domainerrors "github.com/crashlens/crashlens/internal/domain/errors"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/domain/ports"
	"github.com/crashlens/crashlens/internal/infrastructure/vcs/github"
	"github.com/crashlens/crashlens/internal/infrastructure/vcs/gitlab"
)

// NewFetcher builds the fetcher for the configured provider. An unknown
// provider is a caller configuration error: the only condition under which
// the fetch layer refuses to come up.
func NewFetcher(config models.RepoConfig, timeout time.Duration) (ports.SourceFetcher, error) {
	config.ApplyDefaults()

	switch config.Provider {
	case models.ProviderGitHub:
		return github.NewFetcher(config, timeout), nil
	case models.ProviderGitLab:
		return gitlab.NewFetcher(config, timeout), nil
	default:
		return nil, domainerrors.NewUnsupportedProviderError(string(config.Provider))
	}
}
