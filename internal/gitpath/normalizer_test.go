package gitpath

import (
	"testing"

	"github.com/crashlens/crashlens/internal/domain/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_RepoNameAnchor(t *testing.T) {
	cfg := &models.RepoConfig{Owner: "acme", Repo: "shop"}

	t.Run("windows path", func(t *testing.T) {
		got := Normalize(`C:\Projects\shop\src\cart.ts`, cfg)
		assert.Equal(t, "src/cart.ts", got)
	})

	t.Run("unix path", func(t *testing.T) {
		got := Normalize("/home/ci/shop/src/cart.ts", cfg)
		assert.Equal(t, "src/cart.ts", got)
	})

	t.Run("anchor is case insensitive", func(t *testing.T) {
		got := Normalize("/home/ci/Shop/src/cart.ts", cfg)
		assert.Equal(t, "src/cart.ts", got)
	})

	t.Run("repo name absent falls through", func(t *testing.T) {
		// "app" itself counts as a root marker, so the cut happens there.
		got := Normalize("/srv/app/src/main.py", cfg)
		assert.Equal(t, "app/src/main.py", got)
	})
}

func TestNormalize_AbsoluteUnixPrefix(t *testing.T) {
	t.Run("cuts at a root marker", func(t *testing.T) {
		got := Normalize("/var/deploy/release/src/app.js", nil)
		assert.Equal(t, "src/app.js", got)
	})

	t.Run("keeps last four segments without a marker", func(t *testing.T) {
		got := Normalize("/opt/very/deep/machine/specific/handlers/request.py", nil)
		assert.Equal(t, "machine/specific/handlers/request.py", got)
	})

	t.Run("short absolute path just loses the slash", func(t *testing.T) {
		got := Normalize("/etc/config.py", nil)
		assert.Equal(t, "etc/config.py", got)
	})

	t.Run("test directory counts as a root", func(t *testing.T) {
		got := Normalize("/home/ci/work/tests/test_user.py", nil)
		assert.Equal(t, "tests/test_user.py", got)
	})
}

func TestNormalize_WindowsDrivePrefix(t *testing.T) {
	got := Normalize(`D:\work\app\main.ts`, nil)
	assert.Equal(t, "app/main.ts", got)
}

func TestNormalize_BuildArtifacts(t *testing.T) {
	t.Run("dist prefix", func(t *testing.T) {
		got := Normalize("dist/bundle/main.js", nil)
		assert.Equal(t, "bundle/main.js", got)
	})

	t.Run("dot next prefix", func(t *testing.T) {
		got := Normalize(".next/server/pages/index.js", nil)
		assert.Equal(t, "server/pages/index.js", got)
	})

	t.Run("stacked prefixes in pattern order are all stripped", func(t *testing.T) {
		got := Normalize("dist/build/bundle/main.js", nil)
		assert.Equal(t, "bundle/main.js", got)
	})

	t.Run("prefix order is fixed, not repeated", func(t *testing.T) {
		// "build" is stripped after "dist" was already tried, so the inner
		// "dist" survives.
		got := Normalize("build/dist/bundle/main.js", nil)
		assert.Equal(t, "dist/bundle/main.js", got)
	})
}

func TestNormalize_DependencyDirs(t *testing.T) {
	got := Normalize("/app/node_modules/express/lib/router.js", nil)
	assert.Equal(t, "express/lib/router.js", got)
}

func TestNormalize_LeadingExcludedDirs(t *testing.T) {
	got := Normalize("venv/handlers/request.py", nil)
	assert.Equal(t, "handlers/request.py", got)
}

func TestNormalize_ProjectRootHints(t *testing.T) {
	t.Run("explicit root dir wins", func(t *testing.T) {
		cfg := &models.RepoConfig{RootDir: "web"}
		got := Normalize("deploy/web/pages/index.tsx", cfg)
		assert.Equal(t, "web/pages/index.tsx", got)
	})

	t.Run("root hints are tried when no root dir", func(t *testing.T) {
		cfg := &models.RepoConfig{RootHints: []string{"api"}}
		got := Normalize("deploy/api/handlers.py", cfg)
		assert.Equal(t, "api/handlers.py", got)
	})
}

func TestNormalize_SeparatorsAndEdges(t *testing.T) {
	t.Run("backslashes become slashes", func(t *testing.T) {
		got := Normalize(`app\main.ts`, nil)
		assert.Equal(t, "app/main.ts", got)
	})

	t.Run("already relative path is untouched", func(t *testing.T) {
		got := Normalize("src/services/user.js", nil)
		assert.Equal(t, "src/services/user.js", got)
	})

	t.Run("empty path", func(t *testing.T) {
		assert.Equal(t, "", Normalize("", nil))
	})

	t.Run("nil config", func(t *testing.T) {
		got := Normalize("/srv/deploy/src/user.js", nil)
		assert.Equal(t, "src/user.js", got)
	})
}

func TestNormalize_Idempotent(t *testing.T) {
	cfg := &models.RepoConfig{Repo: "shop"}
	inputs := []string{
		`C:\Projects\shop\src\cart.ts`,
		"dist/bundle/main.js",
		"src/services/user.js",
		"lib/router.js",
	}
	for _, input := range inputs {
		once := Normalize(input, cfg)
		assert.Equal(t, once, Normalize(once, cfg), "input %q", input)
	}
}
