package models

import "strings"

type Provider string

const (
	ProviderGitHub Provider = "github"
	ProviderGitLab Provider = "gitlab"
)

const DefaultBranch = "main"

type (
	// RepoConfig identifies a repository and the revision to read files from.
	RepoConfig struct {
		Owner       string   `json:"owner"`
		Repo        string   `json:"repo"`
		Branch      string   `json:"branch,omitempty"`
		CommitSHA   string   `json:"commit_sha,omitempty"`
		Provider    Provider `json:"provider,omitempty"`
		AccessToken string   `json:"access_token,omitempty"`
		RootDir     string   `json:"root_dir,omitempty"`
		RootHints   []string `json:"root_hints,omitempty"`
	}

	// CodeBlock is a slice of file content fetched from a repository,
	// 1-based and inclusive on both ends.
	CodeBlock struct {
		FilePath   string
		Content    string
		StartLine  int
		EndLine    int
		TargetLine int
	}
)

// NewFileBlock builds a CodeBlock covering a whole file.
func NewFileBlock(path, content string) CodeBlock {
	return CodeBlock{
		FilePath:  path,
		Content:   content,
		StartLine: 1,
		EndLine:   len(splitLines(content)),
	}
}

// Window returns the slice of the block centered on line, clipped to the
// file bounds: [max(1, line-contextLines), min(total, line+contextLines)].
// The window never wraps or extends past the file. With line <= 0 the block
// is returned whole.
func (cb CodeBlock) Window(line, contextLines int) CodeBlock {
	if line <= 0 {
		return cb
	}

	lines := splitLines(cb.Content)
	total := len(lines)

	startLine := max(1, line-contextLines)
	endLine := min(total, line+contextLines)

	content := ""
	if startLine <= endLine {
		content = strings.Join(lines[startLine-1:endLine], "\n")
	}

	return CodeBlock{
		FilePath:   cb.FilePath,
		Content:    content,
		StartLine:  startLine,
		EndLine:    endLine,
		TargetLine: line,
	}
}

// LineCount reports how many lines of content the block carries.
func (cb CodeBlock) LineCount() int {
	return len(splitLines(cb.Content))
}

// splitLines splits on newlines without counting a trailing newline as an
// extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// ApplyDefaults fills in the provider and branch the way the rest of the
// pipeline expects them: GitHub unless stated otherwise, and "main" when
// neither a branch nor a commit is pinned.
func (rc *RepoConfig) ApplyDefaults() {
	if rc.Provider == "" {
		rc.Provider = ProviderGitHub
	}
	if rc.Branch == "" && rc.CommitSHA == "" {
		rc.Branch = DefaultBranch
	}
}

// Ref returns the revision to fetch from. A pinned commit wins over a branch.
func (rc *RepoConfig) Ref() string {
	if rc.CommitSHA != "" {
		return rc.CommitSHA
	}
	return rc.Branch
}
