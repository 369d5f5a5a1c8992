package heuristic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcommit/internal/types"
)

func profile(path string, status types.FileStatus, adds, dels int) types.FileProfile {
	return types.FileProfile{Path: path, Status: status, Additions: adds, Deletions: dels}
}

func TestPlanCoversEveryFileOnce(t *testing.T) {
	profiles := []types.FileProfile{
		profile("go.mod", types.StatusModified, 2, 2),
		profile("go.sum", types.StatusModified, 10, 10),
		profile("internal/server/server.go", types.StatusAdded, 120, 0),
		profile("internal/server/server_test.go", types.StatusAdded, 80, 0),
		profile("docs/usage.md", types.StatusModified, 5, 1),
		profile("README.md", types.StatusModified, 3, 0),
	}

	groups := Plan(profiles)
	require.NotEmpty(t, groups)

	seen := map[string]int{}
	for _, g := range groups {
		require.NotEmpty(t, g.Files, "group %s has no files", g.ID)
		for _, f := range g.Files {
			seen[f]++
		}
	}
	for _, p := range profiles {
		assert.Equal(t, 1, seen[p.Path], "file %s must be claimed exactly once", p.Path)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	profiles := []types.FileProfile{
		profile("package.json", types.StatusModified, 3, 3),
		profile("package-lock.json", types.StatusModified, 40, 40),
		profile("src/api/client.ts", types.StatusModified, 12, 30),
		profile("src/api/client.spec.ts", types.StatusModified, 8, 2),
		profile(".github/workflows/ci.yml", types.StatusModified, 4, 1),
		profile("Makefile", types.StatusModified, 2, 0),
	}

	first := Plan(profiles)
	for i := 0; i < 5; i++ {
		again := Plan(profiles)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("plan changed across runs (-first +again):\n%s", diff)
		}
	}
}

func TestManifestClustering(t *testing.T) {
	profiles := []types.FileProfile{
		profile("go.mod", types.StatusModified, 1, 1),
		profile("go.sum", types.StatusModified, 20, 20),
	}

	groups := Plan(profiles)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, types.TypeChore, g.Type)
	assert.Equal(t, "update dependencies", g.Message)
	assert.Equal(t, "deps", g.Scope)
	assert.ElementsMatch(t, []string{"go.mod", "go.sum"}, g.Files)
	assert.Equal(t, "h1", g.ID)
}

func TestTestImplementationPairing(t *testing.T) {
	profiles := []types.FileProfile{
		profile("internal/parser/parser.go", types.StatusAdded, 200, 0),
		profile("internal/parser/parser_test.go", types.StatusAdded, 150, 0),
	}

	groups := Plan(profiles)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, types.TypeFeat, g.Type)
	assert.Equal(t, "add parser with tests", g.Message)
	assert.Equal(t, "parser", g.Scope)
	assert.Equal(t, types.ReleaseMinor, g.ReleaseHint)
}

func TestPairingShapes(t *testing.T) {
	t.Run("pure deletion pairs as chore", func(t *testing.T) {
		profiles := []types.FileProfile{
			profile("pkg/old/old.go", types.StatusDeleted, 0, 90),
			profile("pkg/old/old_test.go", types.StatusDeleted, 0, 60),
		}
		groups := Plan(profiles)
		require.Len(t, groups, 1)
		assert.Equal(t, types.TypeChore, groups[0].Type)
	})

	t.Run("mixed change pairs as refactor", func(t *testing.T) {
		profiles := []types.FileProfile{
			profile("pkg/codec/codec.go", types.StatusModified, 40, 35),
			profile("pkg/codec/codec_test.go", types.StatusModified, 10, 5),
		}
		groups := Plan(profiles)
		require.Len(t, groups, 1)
		assert.Equal(t, types.TypeRefactor, groups[0].Type)
	})
}

func TestCategoryGrouping(t *testing.T) {
	profiles := []types.FileProfile{
		profile("docs/api.md", types.StatusModified, 10, 2),
		profile("docs/guide.md", types.StatusModified, 6, 0),
		profile(".github/workflows/release.yml", types.StatusAdded, 30, 0),
		profile("internal/engine/run.go", types.StatusModified, 15, 12),
	}

	groups := Plan(profiles)
	require.Len(t, groups, 3)

	byType := map[types.ConventionalType]types.CommitGroup{}
	for _, g := range groups {
		byType[g.Type] = g
	}
	docs := byType[types.TypeDocs]
	assert.Contains(t, docs.Message, "docs")
	assert.Contains(t, docs.Message, "(2 files)")
	assert.Equal(t, "docs", docs.Scope)

	assert.Contains(t, byType[types.TypeCI].Files, ".github/workflows/release.yml")
	assert.Contains(t, byType[types.TypeRefactor].Files, "internal/engine/run.go")
}

func TestReleaseHintFor(t *testing.T) {
	assert.Equal(t, types.ReleaseMajor, ReleaseHintFor(types.TypeFeat, true))
	assert.Equal(t, types.ReleaseMinor, ReleaseHintFor(types.TypeFeat, false))
	assert.Equal(t, types.ReleasePatch, ReleaseHintFor(types.TypeFix, false))
	assert.Equal(t, types.ReleasePatch, ReleaseHintFor(types.TypePerf, false))
	assert.Equal(t, types.ReleaseNone, ReleaseHintFor(types.TypeChore, false))
}
