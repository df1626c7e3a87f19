package services

import (
	"os"
	"strings"
)

// fallbackTokenEnv is consulted when neither the repo config nor the project
// carries a token of its own.
const fallbackTokenEnv = "GITHUB_TOKEN"

// resolveAccessToken applies the token precedence: an explicit token in the
// repository configuration wins, then a project-specific environment
// variable ("debug-ai" -> DEBUG_AI_TOKEN), then the configured default, then
// the global GITHUB_TOKEN variable. Empty means fetch unauthenticated.
func resolveAccessToken(explicit, projectKey, configured string) string {
	if explicit != "" {
		return explicit
	}

	if projectKey != "" {
		if token := os.Getenv(projectTokenEnv(projectKey)); token != "" {
			return token
		}
	}

	if configured != "" {
		return configured
	}

	return os.Getenv(fallbackTokenEnv)
}

func projectTokenEnv(projectKey string) string {
	return strings.ToUpper(strings.ReplaceAll(projectKey, "-", "_")) + "_TOKEN"
}
