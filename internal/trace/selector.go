package trace

import (
	"strings"

	"github.com/crashlens/crashlens/internal/domain/models"
)

// DefaultMaxFiles bounds how many frames the selector keeps.
const DefaultMaxFiles = 5

// excludedPathMarkers are dependency, build, VCS and IDE directory names. A
// frame whose raw path contains any of them (substring, case-insensitive) is
// never worth fetching. The match runs on the path as the trace reported it:
// after normalization the marker may already be stripped away.
var excludedPathMarkers = []string{
	// Node.js
	"node_modules",
	".next",
	".nuxt",
	// Python
	"venv",
	"env",
	".venv",
	"__pycache__",
	"site-packages",
	".pytest_cache",
	// Java
	"target",
	".gradle",
	// Build artifacts
	"dist",
	"build",
	".build",
	"out",
	"bin",
	"obj",
	// IDE and VCS
	".idea",
	".vscode",
	".git",
}

// SelectRelevantFrames keeps the frames worth fetching source for: original
// order preserved, dependency/build paths dropped, exact duplicate paths
// collapsed to their first occurrence, at most maxFiles results. Empty input
// yields empty output.
func SelectRelevantFrames(frames []models.StackFrame, maxFiles int) []models.StackFrame {
	if len(frames) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(frames))
	selected := make([]models.StackFrame, 0, maxFiles)

	for _, frame := range frames {
		rawLower := strings.ToLower(strings.ReplaceAll(frame.FilePath, "\\", "/"))

		if containsExcludedMarker(rawLower) {
			continue
		}
		if _, ok := seen[frame.FilePath]; ok {
			continue
		}

		seen[frame.FilePath] = struct{}{}
		selected = append(selected, frame)
		if len(selected) >= maxFiles {
			break
		}
	}
	return selected
}

func containsExcludedMarker(pathLower string) bool {
	for _, marker := range excludedPathMarkers {
		if strings.Contains(pathLower, marker) {
			return true
		}
	}
	return false
}
