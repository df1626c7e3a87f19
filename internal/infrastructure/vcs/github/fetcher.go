package github

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/logger"
	"github.com/google/go-github/v58/github"
)

// Fetcher reads single files through the GitHub Contents API. Every failure
// mode short of a broken configuration collapses into "no code for this
// path": the caller cannot, and must not, tell a missing file from a rate
// limit or a timeout.
type Fetcher struct {
	client *github.Client
	config models.RepoConfig
}

// tokenTransport authenticates requests with the classic "token" scheme the
// Contents API accepts for personal access tokens.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "token "+t.token)
	clone.Header.Set("Accept", "application/vnd.github.v3+json")

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func NewFetcher(config models.RepoConfig, timeout time.Duration) *Fetcher {
	httpClient := &http.Client{Timeout: timeout}
	if config.AccessToken != "" {
		httpClient.Transport = &tokenTransport{token: config.AccessToken}
	}

	return &Fetcher{
		client: github.NewClient(httpClient),
		config: config,
	}
}

// NewFetcherWithClient wires a prebuilt client, used by tests to point at an
// httptest server.
func NewFetcherWithClient(config models.RepoConfig, client *github.Client) *Fetcher {
	return &Fetcher{client: client, config: config}
}

// FetchFileWithContext implements ports.SourceFetcher.
func (f *Fetcher) FetchFileWithContext(ctx context.Context, path string, line, contextLines int) (*models.CodeBlock, error) {
	block := f.fetchFile(ctx, path)
	if block == nil {
		return nil, nil
	}

	windowed := block.Window(line, contextLines)
	return &windowed, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, path string) *models.CodeBlock {
	opts := &github.RepositoryContentGetOptions{Ref: f.config.Ref()}

	file, _, resp, err := f.client.Repositories.GetContents(ctx, f.config.Owner, f.config.Repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			logger.Warn(ctx, "file not found on github", "path", path, "ref", f.config.Ref())
			return nil
		}
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) {
			logger.Warn(ctx, "github api request failed", "path", path, "status", errResp.Response.StatusCode)
			return nil
		}
		logger.Warn(ctx, "github fetch failed", "path", path, "error", err)
		return nil
	}

	// GetContents returns a directory listing when path is a directory;
	// there is no file content to use in that case.
	if file == nil {
		logger.Warn(ctx, "github path is not a file", "path", path)
		return nil
	}

	content, err := file.GetContent()
	if err != nil {
		logger.Warn(ctx, "could not decode github file content", "path", path, "error", err)
		return nil
	}

	block := models.NewFileBlock(path, content)
	return &block
}
