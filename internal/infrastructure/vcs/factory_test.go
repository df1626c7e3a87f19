package vcs

import (
	"testing"
	"time"

	domainerrors "github.com/crashlens/crashlens/internal/domain/errors"
	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/infrastructure/vcs/github"
	"github.com/crashlens/crashlens/internal/infrastructure/vcs/gitlab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetcher(t *testing.T) {
	t.Run("github", func(t *testing.T) {
		fetcher, err := NewFetcher(models.RepoConfig{Owner: "acme", Repo: "shop", Provider: models.ProviderGitHub}, 5*time.Second)
		require.NoError(t, err)
		assert.IsType(t, &github.Fetcher{}, fetcher)
	})

	t.Run("gitlab", func(t *testing.T) {
		fetcher, err := NewFetcher(models.RepoConfig{Owner: "acme", Repo: "shop", Provider: models.ProviderGitLab}, 5*time.Second)
		require.NoError(t, err)
		assert.IsType(t, &gitlab.Fetcher{}, fetcher)
	})

	t.Run("empty provider defaults to github", func(t *testing.T) {
		fetcher, err := NewFetcher(models.RepoConfig{Owner: "acme", Repo: "shop"}, 5*time.Second)
		require.NoError(t, err)
		assert.IsType(t, &github.Fetcher{}, fetcher)
	})

	t.Run("unknown provider is a configuration error", func(t *testing.T) {
		fetcher, err := NewFetcher(models.RepoConfig{Owner: "acme", Repo: "shop", Provider: "svn"}, 5*time.Second)
		require.Error(t, err)
		assert.Nil(t, fetcher)

		var unsupported *domainerrors.UnsupportedProviderError
		assert.ErrorAs(t, err, &unsupported)
		assert.Contains(t, err.Error(), "svn")
	})
}
