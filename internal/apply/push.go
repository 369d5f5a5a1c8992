package apply

import (
	"context"
	"path"

	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/logging"
	"smartcommit/internal/types"
)

// builtinProtected are branch names a forced push always refuses. The
// release/* entry matches by glob.
var builtinProtected = []string{"main", "master", "release/*", "production"}

// PushRepo is the slice of git operations pushing needs.
type PushRepo interface {
	CurrentBranch(ctx context.Context) (string, error)
	Fetch(ctx context.Context, remote string) error
	AheadCount(ctx context.Context, remote, branch string) (int, error)
	Push(ctx context.Context, remote, branch string, force bool) error
}

// PushOptions modify one push.
type PushOptions struct {
	Remote string
	Force  bool
	// Protected extends the built-in protected branch list.
	Protected []string
}

// Pusher pushes applied commits to a remote.
type Pusher struct {
	repo PushRepo
	log  *zap.Logger
}

// NewPusher wires a Pusher for one repository.
func NewPusher(repo PushRepo, log *zap.Logger) *Pusher {
	return &Pusher{repo: repo, log: logging.For(log, logging.CategoryPush)}
}

// Push fetches, counts commits ahead of the remote, and pushes them. Zero
// commits ahead is a successful no-op with no network push. A forced push to
// a protected branch is refused before any network call.
func (p *Pusher) Push(ctx context.Context, opts PushOptions) (*types.PushResult, error) {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}

	branch, err := p.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	result := &types.PushResult{Remote: remote, Branch: branch, Forced: opts.Force}

	if opts.Force && isProtected(branch, opts.Protected) {
		return result, &scerrors.ProtectedBranchError{Branch: branch}
	}

	if err := p.repo.Fetch(ctx, remote); err != nil {
		return nil, err
	}
	ahead, err := p.repo.AheadCount(ctx, remote, branch)
	if err != nil {
		return nil, err
	}
	if ahead == 0 {
		p.log.Info("nothing to push", zap.String("remote", remote), zap.String("branch", branch))
		result.Skipped = true
		return result, nil
	}

	if err := p.repo.Push(ctx, remote, branch, opts.Force); err != nil {
		return result, err
	}
	result.Pushed = ahead
	p.log.Info("pushed",
		zap.String("remote", remote),
		zap.String("branch", branch),
		zap.Int("commits", ahead))
	return result, nil
}

func isProtected(branch string, extra []string) bool {
	for _, pat := range append(append([]string{}, builtinProtected...), extra...) {
		if ok, _ := path.Match(pat, branch); ok {
			return true
		}
	}
	return false
}
