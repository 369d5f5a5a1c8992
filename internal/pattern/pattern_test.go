package pattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcommit/internal/types"
)

func added(path string, isNew bool) types.FileProfile {
	return types.FileProfile{Path: path, Status: types.StatusAdded, IsNewFile: isNew, Additions: 10}
}

func TestDetectNewPackage(t *testing.T) {
	profiles := []types.FileProfile{added("pkg/foo/package.json", true)}
	for i := 0; i < 11; i++ {
		profiles = append(profiles, added(fmt.Sprintf("pkg/foo/src/file%d.ts", i), true))
	}

	hint := Detect(profiles)
	require.Equal(t, types.PatternNewPackage, hint.PatternType)
	assert.Equal(t, 0.95, hint.Confidence)
	assert.Equal(t, types.TypeFeat, hint.SuggestedType)
}

func TestDetectNewPackageNeedsManifest(t *testing.T) {
	var profiles []types.FileProfile
	for i := 0; i < 12; i++ {
		profiles = append(profiles, added(fmt.Sprintf("pkg/foo/file%d.ts", i), true))
	}
	hint := Detect(profiles)
	assert.NotEqual(t, types.PatternNewPackage, hint.PatternType)
}

func TestDetectBulkMove(t *testing.T) {
	var profiles []types.FileProfile
	dirs := []string{"internal/a/x", "internal/b/y", "internal/c/z"}
	for i := 0; i < 25; i++ {
		profiles = append(profiles, added(fmt.Sprintf("%s/file%d.go", dirs[i%3], i), false))
	}

	hint := Detect(profiles)
	require.Equal(t, types.PatternRefactorMove, hint.PatternType)
	assert.Equal(t, 0.90, hint.Confidence)
	assert.Equal(t, types.TypeRefactor, hint.SuggestedType)
}

func TestDetectRefactorModify(t *testing.T) {
	profiles := []types.FileProfile{
		{Path: "a.go", Status: types.StatusModified, Additions: 3, Deletions: 20},
		{Path: "b.go", Status: types.StatusModified, Additions: 5, Deletions: 30},
	}
	hint := Detect(profiles)
	require.Equal(t, types.PatternRefactorModify, hint.PatternType)
	assert.Equal(t, types.TypeRefactor, hint.SuggestedType)
}

func TestDetectDeletions(t *testing.T) {
	t.Run("all deleted", func(t *testing.T) {
		profiles := []types.FileProfile{
			{Path: "a.go", Status: types.StatusDeleted, Deletions: 50},
			{Path: "b.go", Status: types.StatusDeleted, Deletions: 10},
		}
		hint := Detect(profiles)
		require.Equal(t, types.PatternDeletions, hint.PatternType)
		assert.Equal(t, 0.98, hint.Confidence)
		assert.Equal(t, types.TypeChore, hint.SuggestedType)
	})

	t.Run("mostly deleted", func(t *testing.T) {
		profiles := []types.FileProfile{
			{Path: "a.go", Status: types.StatusDeleted, Deletions: 100},
			{Path: "b.go", Status: types.StatusModified, Additions: 5, Deletions: 2},
		}
		hint := Detect(profiles)
		require.Equal(t, types.PatternDeletions, hint.PatternType)
		assert.Equal(t, 0.95, hint.Confidence)
		assert.Equal(t, types.TypeRefactor, hint.SuggestedType)
	})
}

func TestDetectMixed(t *testing.T) {
	profiles := []types.FileProfile{
		{Path: "a.go", Status: types.StatusModified, Additions: 30, Deletions: 2},
		{Path: "b.go", Status: types.StatusAdded, IsNewFile: true, Additions: 10},
	}
	hint := Detect(profiles)
	assert.Equal(t, types.PatternMixed, hint.PatternType)
	assert.Zero(t, hint.Confidence)
}

func TestContradictsFeat(t *testing.T) {
	deleted := []types.FileProfile{
		{Path: "a.go", Status: types.StatusDeleted, Deletions: 10},
	}
	assert.True(t, ContradictsFeat(deleted))

	additive := []types.FileProfile{
		{Path: "a.go", Status: types.StatusAdded, Additions: 10},
	}
	assert.False(t, ContradictsFeat(additive))
}
