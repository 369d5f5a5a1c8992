// Package apply turns a commit plan into real commits and optionally pushes
// them. Groups are processed strictly in plan order; each commit is made
// atomically and nothing is rolled back on a later failure.
package apply

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/gitx"
	"smartcommit/internal/logging"
	"smartcommit/internal/scope"
	"smartcommit/internal/types"
)

// Repo is the slice of git operations the applier needs.
type Repo interface {
	Status(ctx context.Context) ([]gitx.StatusEntry, error)
	ResetIndex(ctx context.Context) error
	Add(ctx context.Context, files ...string) error
	Commit(ctx context.Context, message string) (string, error)
}

// Options modify one apply run.
type Options struct {
	// Force skips the per-group staleness check.
	Force bool
}

// Applier applies plans against a workspace.
type Applier struct {
	resolver *scope.Resolver
	open     func(dir string) Repo
	log      *zap.Logger
}

// NewApplier wires an Applier. open maps a repository directory to its git
// runner; tests substitute fakes.
func NewApplier(resolver *scope.Resolver, open func(dir string) Repo, log *zap.Logger) *Applier {
	return &Applier{
		resolver: resolver,
		open:     open,
		log:      logging.For(log, logging.CategoryApply),
	}
}

// Apply commits every group in plan order. It stops at the first failure and
// reports partial success; groups already committed stay committed.
func (a *Applier) Apply(ctx context.Context, plan *types.CommitPlan, opts Options) (*types.ApplyResult, error) {
	result := &types.ApplyResult{}

	for i, group := range plan.Commits {
		applied, err := a.applyGroup(ctx, &group, opts)
		if err != nil {
			result.FailedGroup = group.ID
			result.Reason = err.Error()
			for _, g := range plan.Commits[i+1:] {
				result.Remaining = append(result.Remaining, g.ID)
			}
			a.log.Error("apply stopped",
				zap.String("group", group.ID),
				zap.Int("applied", len(result.Applied)),
				zap.Error(err))
			return result, err
		}
		result.Applied = append(result.Applied, *applied)
		a.log.Info("committed",
			zap.String("group", group.ID),
			zap.String("hash", applied.Hash),
			zap.String("header", applied.Header))
	}

	result.Success = true
	return result, nil
}

// applyGroup makes one commit: staleness check, index reset, exact staging,
// commit. A group whose files span repository boundaries is refused.
func (a *Applier) applyGroup(ctx context.Context, group *types.CommitGroup, opts Options) (*types.AppliedCommit, error) {
	boundary, repoFiles, err := a.groupBoundary(group)
	if err != nil {
		return nil, err
	}
	repo := a.open(filepath.Join(a.resolver.Workspace(), filepath.FromSlash(boundary)))

	if !opts.Force {
		if err := a.checkStaleness(ctx, repo, group, repoFiles); err != nil {
			return nil, err
		}
	}

	// Reset to the pre-group baseline so previously staged unrelated files
	// do not leak into this commit.
	if err := repo.ResetIndex(ctx); err != nil {
		return nil, err
	}
	if err := repo.Add(ctx, repoFiles...); err != nil {
		return nil, err
	}

	hash, err := repo.Commit(ctx, commitMessage(group))
	if err != nil {
		return nil, err
	}
	return &types.AppliedCommit{
		GroupID: group.ID,
		Hash:    hash,
		Header:  group.Header(),
		Files:   group.Files,
	}, nil
}

// groupBoundary resolves the repository owning the group and returns the
// group's files relative to it.
func (a *Applier) groupBoundary(group *types.CommitGroup) (string, []string, error) {
	boundary := ""
	repoFiles := make([]string, 0, len(group.Files))
	for _, f := range group.Files {
		owner, err := a.resolver.OwningRepo(f)
		if err != nil {
			return "", nil, err
		}
		if boundary == "" {
			boundary = owner
		} else if owner != boundary {
			return "", nil, scerrors.Errorf(
				"commit group %s spans repositories %s and %s", group.ID, boundary, owner)
		}
		repoFiles = append(repoFiles, scope.RepoRelative(boundary, f))
	}
	return boundary, repoFiles, nil
}

// checkStaleness requires every file in the group to still have pending
// changes in the live working tree.
func (a *Applier) checkStaleness(ctx context.Context, repo Repo, group *types.CommitGroup, repoFiles []string) error {
	entries, err := repo.Status(ctx)
	if err != nil {
		return err
	}
	dirty := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		dirty[e.Path] = struct{}{}
	}
	for i, f := range repoFiles {
		if _, ok := dirty[f]; !ok {
			return &scerrors.StalenessError{GroupID: group.ID, File: group.Files[i]}
		}
	}
	return nil
}

// commitMessage renders the full conventional-commit message, including the
// body and a BREAKING CHANGE footer when set.
func commitMessage(group *types.CommitGroup) string {
	var b strings.Builder
	b.WriteString(group.Header())
	if group.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(group.Body)
	}
	if group.Breaking && group.BreakingNote != "" {
		b.WriteString("\n\nBREAKING CHANGE: ")
		b.WriteString(group.BreakingNote)
	}
	return b.String()
}
