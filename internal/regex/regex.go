package regex

import "regexp"

var (
	// Stack trace line formats, in matcher priority order. Group layout:
	// CallSiteWithSymbol: symbol?, path, line, col
	// CallSiteBare:       path, line, col
	// FileLine:           path, line, symbol?
	// QualifiedCall:      symbol, short file, line
	// GenericFrame:       path, line
	CallSiteWithSymbol = regexp.MustCompile(`at\s+(?:([\w.]+(?:\s+[\w.]+)?)\s+)?\((.+?):(\d+):(\d+)\)`)
	CallSiteBare       = regexp.MustCompile(`at\s+(.+?):(\d+):(\d+)(?:\s|$)`)
	FileLine           = regexp.MustCompile(`File\s+["']([^"']+)["']\s*,\s*line\s+(\d+)(?:\s*,\s*in\s+(\S+))?`)
	QualifiedCall      = regexp.MustCompile(`at\s+([\w.$]+)\(([^:]+):(\d+)\)`)
	GenericFrame       = regexp.MustCompile(`((?:[A-Za-z]:)?[^\s:]+\.(?:js|py|java|ts|tsx|jsx|go|rs|rb|php)):(\d+)`)

	// Path normalization patterns
	WindowsDrivePrefix = regexp.MustCompile(`^[A-Za-z]:[/\\](.+)`)
	DependencyDir      = regexp.MustCompile(`(?i)^.*[/\\]node_modules[/\\](.+)$`)

	// BuildArtifactPrefixes are applied one after another in this order, so
	// stacked output directories ("dist/build/...") all get stripped.
	BuildArtifactPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^dist[/\\]`),
		regexp.MustCompile(`(?i)^build[/\\]`),
		regexp.MustCompile(`(?i)^\.next[/\\]`),
		regexp.MustCompile(`(?i)^\.nuxt[/\\]`),
		regexp.MustCompile(`(?i)^out[/\\]`),
		regexp.MustCompile(`(?i)^target[/\\]`),
		regexp.MustCompile(`(?i)^bin[/\\]`),
		regexp.MustCompile(`(?i)^obj[/\\]`),
	}
)
