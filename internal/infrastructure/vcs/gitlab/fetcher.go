package gitlab

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/logger"
)

const defaultBaseURL = "https://gitlab.com/api/v4"

// Fetcher reads single files through the GitLab repository-files raw
// endpoint. There is no Go client library for this in our stack, and the raw
// endpoint returns the file body directly, so plain HTTP is all it takes.
// Failure semantics match the GitHub fetcher: everything degrades to "no
// code for this path".
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	config     models.RepoConfig
}

func NewFetcher(config models.RepoConfig, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		config:     config,
	}
}

// NewFetcherWithBaseURL points the fetcher at a different API root, used by
// tests and self-hosted instances.
func NewFetcherWithBaseURL(config models.RepoConfig, timeout time.Duration, baseURL string) *Fetcher {
	f := NewFetcher(config, timeout)
	f.baseURL = baseURL
	return f
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
	project := url.PathEscape(f.config.Owner + "/" + f.config.Repo)
	endpoint := f.baseURL + "/projects/" + project + "/repository/files/" + url.PathEscape(path) + "/raw?ref=" + url.QueryEscape(f.config.Ref())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Warn(ctx, "could not build gitlab request", "path", path, "error", err)
		return nil
	}
	if f.config.AccessToken != "" {
		req.Header.Set("PRIVATE-TOKEN", f.config.AccessToken)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		logger.Warn(ctx, "gitlab fetch failed", "path", path, "error", err)
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		logger.Warn(ctx, "file not found on gitlab", "path", path, "ref", f.config.Ref())
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn(ctx, "gitlab api request failed", "path", path, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn(ctx, "could not read gitlab response", "path", path, "error", err)
		return nil
	}

	block := models.NewFileBlock(path, string(body))
	return &block
}
