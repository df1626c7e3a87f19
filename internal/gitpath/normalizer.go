// Package gitpath maps file paths reported by stack traces onto
// repository-relative paths. Traces report paths as seen on the machine that
// produced them: OS-absolute, Windows-style, or buried inside build output
// and dependency directories. The normalizer is a best-effort heuristic
// chain; it never fails, and on fully ambiguous input it returns the input
// with at most its separators cleaned up.
package gitpath

import (
	"strings"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/regex"
)

// defaultRootMarkers are directory names that conventionally sit at a
// repository root. Fallback when the caller supplies no explicit hints.
var defaultRootMarkers = []string{
	"src", "lib", "app", "backend", "frontend", "server", "client",
	"packages", "services", "example", "examples",
}

// absolutePathMarkers additionally treat test directories as roots when
// recovering from an absolute Unix path.
var absolutePathMarkers = append([]string{}, append(defaultRootMarkers, "test", "tests")...)

// leadingExcludedDirs are stripped one by one from the front of a path, in
// this order.
var leadingExcludedDirs = []string{".git", ".vscode", ".idea", "venv", "env", ".env"}

// stepResult carries a (possibly rewritten) path through the chain. A
// resolved result short-circuits the remaining steps.
type stepResult struct {
	path     string
	resolved bool
}

type step func(path string, cfg *models.RepoConfig) stepResult

// steps run in order; each only sees the output of the previous one.
var steps = []step{
	anchorOnRepoName,
	stripAbsolutePrefix,
	stripBuildArtifactPrefix,
	stripProjectRootPrefix,
	normalizeSeparators,
	stripExcludedDirs,
}

// Normalize turns a trace-reported path into a repository-relative one. cfg
// may be nil. Pure and total: same input, same output, no error path.
func Normalize(filePath string, cfg *models.RepoConfig) string {
	if filePath == "" {
		return filePath
	}

	path := strings.TrimSpace(filePath)
	for _, s := range steps {
		res := s(path, cfg)
		if res.resolved {
			return res.path
		}
		path = res.path
	}
	return path
}

// anchorOnRepoName is the highest-confidence step: when the repository name
// itself appears in the path, everything after it is the in-repo path.
// "C:\Projects\MyRepo\src\file.js" with repo "MyRepo" -> "src/file.js".
func anchorOnRepoName(path string, cfg *models.RepoConfig) stepResult {
	if cfg == nil || cfg.Repo == "" {
		return stepResult{path: path}
	}

	slashed := strings.ReplaceAll(path, "\\", "/")
	idx := strings.Index(strings.ToLower(slashed), strings.ToLower(cfg.Repo))
	if idx == -1 {
		return stepResult{path: path}
	}

	after := strings.TrimLeft(slashed[idx+len(cfg.Repo):], "/\\")
	if after == "" || after == path {
		return stepResult{path: path}
	}

	after = strings.TrimLeft(strings.ReplaceAll(after, "\\", "/"), "/")
	return stepResult{path: stripExcludedDirs(after, cfg).path, resolved: true}
}

// stripAbsolutePrefix removes drive letters and leading slashes. For Unix
// absolute paths it prefers cutting at a known project-root marker; failing
// that it keeps at most the last four segments, since longer prefixes are
// machine-specific noise.
func stripAbsolutePrefix(path string, _ *models.RepoConfig) stepResult {
	if m := regex.WindowsDrivePrefix.FindStringSubmatch(path); m != nil {
		return stepResult{path: m[1]}
	}

	if !strings.HasPrefix(path, "/") {
		return stepResult{path: path}
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		for _, marker := range absolutePathMarkers {
			if part == marker {
				return stepResult{path: strings.Join(parts[i:], "/")}
			}
		}
	}

	if len(parts) > 4 {
		return stepResult{path: strings.Join(parts[len(parts)-4:], "/")}
	}
	return stepResult{path: strings.TrimLeft(path, "/")}
}

// stripBuildArtifactPrefix drops leading compiled-output directories
// (dist/, build/, .next/, target/, ...). The patterns run once each, in
// order, so "dist/build/x.js" loses both prefixes but "build/dist/x.js"
// keeps the second one.
func stripBuildArtifactPrefix(path string, _ *models.RepoConfig) stepResult {
	for _, prefix := range regex.BuildArtifactPrefixes {
		path = prefix.ReplaceAllString(path, "")
	}
	return stepResult{path: path}
}

// stripProjectRootPrefix scans segments left to right for a root marker,
// using caller-supplied hints when the config carries any.
func stripProjectRootPrefix(path string, cfg *models.RepoConfig) stepResult {
	hints := defaultRootMarkers
	if cfg != nil {
		if cfg.RootDir != "" {
			hints = []string{cfg.RootDir}
		} else if len(cfg.RootHints) > 0 {
			hints = cfg.RootHints
		}
	}

	slashed := strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(slashed, "/")
	for i, part := range parts {
		for _, hint := range hints {
			if strings.EqualFold(part, hint) {
				return stepResult{path: strings.Join(parts[i:], "/")}
			}
		}
	}
	return stepResult{path: slashed}
}

func normalizeSeparators(path string, _ *models.RepoConfig) stepResult {
	return stepResult{path: strings.TrimLeft(strings.ReplaceAll(path, "\\", "/"), "/")}
}

// stripExcludedDirs returns the suffix after a dependency-manager directory
// and peels leading VCS/IDE/virtualenv directories.
func stripExcludedDirs(path string, _ *models.RepoConfig) stepResult {
	if m := regex.DependencyDir.FindStringSubmatch(path); m != nil {
		return stepResult{path: m[1]}
	}

	for _, dir := range leadingExcludedDirs {
		for _, sep := range []string{"/", "\\"} {
			prefix := dir + sep
			if len(path) >= len(prefix) && strings.EqualFold(path[:len(prefix)], prefix) {
				path = path[len(prefix):]
				break
			}
		}
	}
	return stepResult{path: path}
}
