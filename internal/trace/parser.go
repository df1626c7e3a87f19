package trace

import (
	"strconv"
	"strings"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/crashlens/crashlens/internal/regex"
)

// matcherFunc tries one stack-line format. The chain below is ordered by
// priority; the first match wins and no results are merged.
type matcherFunc func(line string) (models.StackFrame, bool)

var matchers = []matcherFunc{
	matchCallSiteWithSymbol,
	matchCallSiteBare,
	matchFileLine,
	matchQualifiedCall,
	matchGenericFrame,
}

// Parse extracts stack frames from a raw multi-line trace. Frames come back
// in the same top-to-bottom order as the input, index 0 being the innermost
// call. Lines that match no known format (headers, "Caused by:", message
// text) are dropped silently; malformed input yields zero frames, never an
// error.
func Parse(stackTrace string) []models.StackFrame {
	if stackTrace == "" {
		return nil
	}

	var frames []models.StackFrame
	for _, line := range strings.Split(stackTrace, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if frame, ok := parseLine(line); ok {
			frames = append(frames, frame)
		}
	}
	return frames
}

func parseLine(line string) (models.StackFrame, bool) {
	for _, match := range matchers {
		if frame, ok := match(line); ok {
			return frame, true
		}
	}
	return models.StackFrame{}, false
}

// "at functionName (/path/to/file.js:123:45)", including Windows paths with
// drive letters and backslashes inside the parentheses.
func matchCallSiteWithSymbol(line string) (models.StackFrame, bool) {
	m := regex.CallSiteWithSymbol.FindStringSubmatch(line)
	if m == nil {
		return models.StackFrame{}, false
	}
	return models.StackFrame{
		FilePath:     strings.TrimSpace(m[2]),
		LineNumber:   mustAtoi(m[3]),
		FunctionName: m[1],
		RawLine:      line,
	}, true
}

// "at /path/to/file.js:123:45" with no symbol.
func matchCallSiteBare(line string) (models.StackFrame, bool) {
	m := regex.CallSiteBare.FindStringSubmatch(line)
	if m == nil {
		return models.StackFrame{}, false
	}
	return models.StackFrame{
		FilePath:   strings.TrimSpace(m[1]),
		LineNumber: mustAtoi(m[2]),
		RawLine:    line,
	}, true
}

// `File "/path/to/file.py", line 123, in handler` (the ", in handler" part is
// optional).
func matchFileLine(line string) (models.StackFrame, bool) {
	m := regex.FileLine.FindStringSubmatch(line)
	if m == nil {
		return models.StackFrame{}, false
	}
	return models.StackFrame{
		FilePath:     strings.TrimSpace(m[1]),
		LineNumber:   mustAtoi(m[2]),
		FunctionName: m[3],
		RawLine:      line,
	}, true
}

// "at com.example.Class.method(Class.java:123)"
func matchQualifiedCall(line string) (models.StackFrame, bool) {
	m := regex.QualifiedCall.FindStringSubmatch(line)
	if m == nil {
		return models.StackFrame{}, false
	}
	return models.StackFrame{
		FilePath:     strings.TrimSpace(m[2]),
		LineNumber:   mustAtoi(m[3]),
		FunctionName: m[1],
		RawLine:      line,
	}, true
}

// Fallback: any path-like token ending in a known source extension followed
// by ":<line>".
func matchGenericFrame(line string) (models.StackFrame, bool) {
	m := regex.GenericFrame.FindStringSubmatch(line)
	if m == nil {
		return models.StackFrame{}, false
	}
	return models.StackFrame{
		FilePath:   strings.TrimSpace(m[1]),
		LineNumber: mustAtoi(m[2]),
		RawLine:    line,
	}, true
}

// The capture groups only ever hand us digit runs.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
