package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcommit/internal/config"
	"smartcommit/internal/types"
)

func samplePlan() *types.CommitPlan {
	return &types.CommitPlan{
		SchemaVersion: types.PlanSchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Metadata:      types.PlanMetadata{Generator: "heuristic"},
		GitStatus: types.ChangeSet{
			Staged:   []string{"a.go"},
			Unstaged: []string{"b.go"},
		},
		Commits: []types.CommitGroup{{
			ID:          "h1",
			Type:        types.TypeFix,
			Message:     "handle empty input",
			Files:       []string{"a.go", "b.go"},
			ReleaseHint: types.ReleasePatch,
			Reasoning:   &types.GroupReasoning{Summary: "advisory only"},
		}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ws := t.TempDir()
	s := NewStore(ws, nil)

	require.NoError(t, s.Save("", samplePlan()))

	loaded, err := s.Load("")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, types.PlanSchemaVersion, loaded.SchemaVersion)
	require.Len(t, loaded.Commits, 1)
	assert.Equal(t, "h1", loaded.Commits[0].ID)
	assert.Nil(t, loaded.Commits[0].Reasoning, "reasoning never reaches disk")

	status, err := s.LoadStatus("")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, []string{"a.go"}, status.Staged)
}

func TestLoadMissingPlan(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	plan, err := s.Load("")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestLoadRefusesNewerSchema(t *testing.T) {
	ws := t.TempDir()
	s := NewStore(ws, nil)

	dir := filepath.Join(ws, config.ConfigDir, "plans", "root")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.json"),
		[]byte(`{"schema_version": 99, "commits": []}`), 0o644))

	_, err := s.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version")
}

func TestScopeNamespacing(t *testing.T) {
	ws := t.TempDir()
	s := NewStore(ws, nil)

	require.NoError(t, s.Save("pkg/api", samplePlan()))

	plan, err := s.Load("")
	require.NoError(t, err)
	assert.Nil(t, plan, "scoped plan must not shadow the root scope")

	plan, err = s.Load("pkg/api")
	require.NoError(t, err)
	assert.NotNil(t, plan)
}

func TestClear(t *testing.T) {
	ws := t.TempDir()
	s := NewStore(ws, nil)

	require.NoError(t, s.Save("", samplePlan()))
	require.NoError(t, s.Clear(""))

	plan, err := s.Load("")
	require.NoError(t, err)
	assert.Nil(t, plan)

	// Clearing a scope with no plan is not an error.
	assert.NoError(t, s.Clear(""))
}

func TestArchiveAndHistory(t *testing.T) {
	ws := t.TempDir()
	s := NewStore(ws, nil)

	plan := samplePlan()
	require.NoError(t, s.Save("", plan))

	result := &types.ApplyResult{
		Success: true,
		Applied: []types.AppliedCommit{{GroupID: "h1", Hash: "abc123"}},
	}
	entry, err := s.Archive("", plan, result)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)

	// Archiving consumed the current plan.
	current, err := s.Load("")
	require.NoError(t, err)
	assert.Nil(t, current)

	entries, err := s.ListHistory("")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	archived, archivedResult, err := s.LoadArchived(entries[0])
	require.NoError(t, err)
	assert.Equal(t, "h1", archived.Commits[0].ID)
	assert.True(t, archivedResult.Success)
	assert.Equal(t, "abc123", archivedResult.Applied[0].Hash)
}

func TestListHistoryEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	entries, err := s.ListHistory("")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
