package apply

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/gitx"
	"smartcommit/internal/scope"
	"smartcommit/internal/types"
)

// fakeGit tracks the mutation sequence the applier performs.
type fakeGit struct {
	dirty     map[string]struct{}
	commits   []string // messages, in order
	staged    [][]string
	resets    int
	commitErr error
}

func (f *fakeGit) Status(ctx context.Context) ([]gitx.StatusEntry, error) {
	var entries []gitx.StatusEntry
	for p := range f.dirty {
		entries = append(entries, gitx.StatusEntry{Path: p, Index: ' ', Worktree: 'M'})
	}
	return entries, nil
}

func (f *fakeGit) ResetIndex(ctx context.Context) error {
	f.resets++
	return nil
}

func (f *fakeGit) Add(ctx context.Context, files ...string) error {
	f.staged = append(f.staged, files)
	return nil
}

func (f *fakeGit) Commit(ctx context.Context, message string) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits = append(f.commits, message)
	return fmt.Sprintf("hash%d", len(f.commits)), nil
}

func newApplier(t *testing.T, git *fakeGit) *Applier {
	t.Helper()
	resolver := scope.NewResolver(t.TempDir())
	return NewApplier(resolver, func(dir string) Repo { return git }, zap.NewNop())
}

func plan(groups ...types.CommitGroup) *types.CommitPlan {
	return &types.CommitPlan{SchemaVersion: types.PlanSchemaVersion, Commits: groups}
}

func group(id string, files ...string) types.CommitGroup {
	return types.CommitGroup{
		ID: id, Type: types.TypeFix, Message: "change " + id, Files: files,
	}
}

func TestApplyAllGroups(t *testing.T) {
	git := &fakeGit{dirty: map[string]struct{}{"a.go": {}, "b.go": {}, "c.go": {}}}
	a := newApplier(t, git)

	result, err := a.Apply(context.Background(), plan(
		group("g1", "a.go"),
		group("g2", "b.go", "c.go"),
	), Options{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Applied, 2)
	assert.Equal(t, "hash1", result.Applied[0].Hash)
	assert.Equal(t, "fix: change g1", result.Applied[0].Header)
	assert.Empty(t, result.Remaining)

	assert.Equal(t, 2, git.resets, "index is reset before every group")
	assert.Equal(t, [][]string{{"a.go"}, {"b.go", "c.go"}}, git.staged)
}

func TestApplyStopsAtStaleGroup(t *testing.T) {
	// Second group's file has no pending changes; exactly one commit must
	// land and the third group is never attempted.
	git := &fakeGit{dirty: map[string]struct{}{"a.go": {}, "c.go": {}}}
	a := newApplier(t, git)

	result, err := a.Apply(context.Background(), plan(
		group("g1", "a.go"),
		group("g2", "b.go"),
		group("g3", "c.go"),
	), Options{})
	require.Error(t, err)

	var se *scerrors.StalenessError
	require.True(t, scerrors.As(err, &se))
	assert.Equal(t, "g2", se.GroupID)
	assert.Equal(t, "b.go", se.File)

	assert.False(t, result.Success)
	assert.Len(t, result.Applied, 1)
	assert.Equal(t, "g2", result.FailedGroup)
	assert.Equal(t, []string{"g3"}, result.Remaining)
	assert.Len(t, git.commits, 1, "the repository gains exactly one commit")
}

func TestApplyForceSkipsStalenessCheck(t *testing.T) {
	git := &fakeGit{dirty: map[string]struct{}{}}
	a := newApplier(t, git)

	result, err := a.Apply(context.Background(), plan(group("g1", "gone.go")), Options{Force: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestApplyStopsOnGitFailureWithoutRollback(t *testing.T) {
	git := &fakeGit{
		dirty:     map[string]struct{}{"a.go": {}},
		commitErr: scerrors.NewGitError("commit", nil, scerrors.New("exit 1"), "hook rejected"),
	}
	a := newApplier(t, git)

	result, err := a.Apply(context.Background(), plan(group("g1", "a.go")), Options{})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "g1", result.FailedGroup)
	assert.Contains(t, result.Reason, "hook rejected")
}

func TestCommitMessageRendering(t *testing.T) {
	g := &types.CommitGroup{
		Type:         types.TypeFeat,
		Scope:        "api",
		Message:      "add pagination",
		Body:         "Cursor-based, mirrors the list endpoints.",
		Breaking:     true,
		BreakingNote: "page parameter removed",
	}
	msg := commitMessage(g)
	assert.Equal(t, "feat(api)!: add pagination\n\nCursor-based, mirrors the list endpoints.\n\nBREAKING CHANGE: page parameter removed", msg)
}
