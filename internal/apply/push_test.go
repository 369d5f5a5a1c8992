package apply

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
)

type fakePushRepo struct {
	branch  string
	ahead   int
	fetches int
	pushes  int
}

func (f *fakePushRepo) CurrentBranch(ctx context.Context) (string, error) { return f.branch, nil }

func (f *fakePushRepo) Fetch(ctx context.Context, remote string) error {
	f.fetches++
	return nil
}

func (f *fakePushRepo) AheadCount(ctx context.Context, remote, branch string) (int, error) {
	return f.ahead, nil
}

func (f *fakePushRepo) Push(ctx context.Context, remote, branch string, force bool) error {
	f.pushes++
	return nil
}

func TestPushEvenWithRemoteIsNoOp(t *testing.T) {
	repo := &fakePushRepo{branch: "feature/x", ahead: 0}
	p := NewPusher(repo, zap.NewNop())

	result, err := p.Push(context.Background(), PushOptions{})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, result.Pushed)
	assert.Equal(t, 0, repo.pushes, "no network push when even with remote")
}

func TestPushAheadCommits(t *testing.T) {
	repo := &fakePushRepo{branch: "feature/x", ahead: 3}
	p := NewPusher(repo, zap.NewNop())

	result, err := p.Push(context.Background(), PushOptions{Remote: "upstream"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Pushed)
	assert.Equal(t, "upstream", result.Remote)
	assert.Equal(t, 1, repo.pushes)
	assert.Equal(t, 1, repo.fetches)
}

func TestForcePushToProtectedBranchRefused(t *testing.T) {
	for _, branch := range []string{"main", "master", "release/2.1", "production"} {
		t.Run(branch, func(t *testing.T) {
			repo := &fakePushRepo{branch: branch, ahead: 5}
			p := NewPusher(repo, zap.NewNop())

			_, err := p.Push(context.Background(), PushOptions{Force: true})
			require.Error(t, err)
			var pe *scerrors.ProtectedBranchError
			require.True(t, scerrors.As(err, &pe))
			assert.Equal(t, branch, pe.Branch)
			assert.Zero(t, repo.fetches, "refusal happens before any network call")
			assert.Zero(t, repo.pushes)
		})
	}
}

func TestForcePushToUnprotectedBranch(t *testing.T) {
	repo := &fakePushRepo{branch: "wip/spike", ahead: 1}
	p := NewPusher(repo, zap.NewNop())

	result, err := p.Push(context.Background(), PushOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, result.Forced)
	assert.Equal(t, 1, repo.pushes)
}

func TestConfiguredProtectedBranches(t *testing.T) {
	repo := &fakePushRepo{branch: "staging", ahead: 2}
	p := NewPusher(repo, zap.NewNop())

	_, err := p.Push(context.Background(), PushOptions{Force: true, Protected: []string{"staging"}})
	var pe *scerrors.ProtectedBranchError
	require.True(t, scerrors.As(err, &pe))
}
