// Package scan reads working-tree and index status across one or more
// repositories rooted under a workspace, scope-filtered, and profiles each
// changed file (status, line counts, truly-new-vs-moved determination).
package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"smartcommit/internal/gitx"
	"smartcommit/internal/scope"
	"smartcommit/internal/types"
)

// diffWorkers bounds the read-only parallelism of batched diff retrieval.
const diffWorkers = 4

// Repo is the slice of the git layer the scanner consumes.
type Repo interface {
	Status(ctx context.Context) ([]gitx.StatusEntry, error)
	Numstat(ctx context.Context, staged bool) (map[string]gitx.NumstatEntry, error)
	HistoryHas(ctx context.Context, path string) (bool, error)
	Diff(ctx context.Context, path string, staged bool) (string, error)
}

// Scanner walks the scope-resolved directories, runs status and numstat at
// each owning repository boundary, and re-prefixes results back to
// workspace-relative paths.
type Scanner struct {
	resolver *scope.Resolver
	open     func(dir string) Repo
	log      *zap.Logger
}

// NewScanner creates a Scanner. The open function maps an absolute
// repository directory to a Repo; production wiring passes gitx.NewRunner.
func NewScanner(resolver *scope.Resolver, open func(dir string) Repo, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{resolver: resolver, open: open, log: log}
}

// Snapshot is the scan result: the scope-filtered change set, per-file
// profiles, and the repository boundary owning each file.
type Snapshot struct {
	Changes    types.ChangeSet
	Profiles   []types.FileProfile
	Boundaries map[string]string // workspace-relative file -> boundary dir ("." = root)
}

// Profile returns the profile for a path, if present.
func (s *Snapshot) Profile(path string) (types.FileProfile, bool) {
	for _, p := range s.Profiles {
		if p.Path == path {
			return p, true
		}
	}
	return types.FileProfile{}, false
}

// Scan resolves the scope and collects status plus profiles across every
// involved repository boundary.
func (s *Scanner) Scan(ctx context.Context, spec string) (*Snapshot, error) {
	dirs, err := s.resolver.Resolve(ctx, spec)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		s.log.Debug("scope resolved to no directories", zap.String("scope", spec))
		return &Snapshot{Boundaries: map[string]string{}}, nil
	}

	// Group scoped directories by the repository boundary that owns them so
	// each boundary is scanned once.
	byBoundary := make(map[string][]string)
	for _, d := range dirs {
		b, err := s.resolver.OwningRepo(d)
		if err != nil {
			return nil, err
		}
		byBoundary[b] = append(byBoundary[b], d)
	}

	snap := &Snapshot{Boundaries: make(map[string]string)}
	boundaries := make([]string, 0, len(byBoundary))
	for b := range byBoundary {
		boundaries = append(boundaries, b)
	}
	sort.Strings(boundaries)

	for _, boundary := range boundaries {
		if err := s.scanBoundary(ctx, boundary, byBoundary[boundary], snap); err != nil {
			return nil, err
		}
	}

	sort.Strings(snap.Changes.Staged)
	sort.Strings(snap.Changes.Unstaged)
	sort.Strings(snap.Changes.Untracked)
	sort.Slice(snap.Profiles, func(i, j int) bool { return snap.Profiles[i].Path < snap.Profiles[j].Path })
	return snap, nil
}

func (s *Scanner) scanBoundary(ctx context.Context, boundary string, scopedDirs []string, snap *Snapshot) error {
	repo := s.open(filepath.Join(s.resolver.Workspace(), filepath.FromSlash(boundary)))

	entries, err := repo.Status(ctx)
	if err != nil {
		return err
	}

	stagedCounts, err := repo.Numstat(ctx, true)
	if err != nil {
		return err
	}
	unstagedCounts, err := repo.Numstat(ctx, false)
	if err != nil {
		return err
	}

	for _, e := range entries {
		wsPath := scope.Rehome(boundary, e.Path)
		if !inScope(wsPath, scopedDirs) {
			continue
		}

		// A partially staged path legitimately shows up in both the staged
		// and unstaged sets; AllFiles dedupes the union.
		switch {
		case e.Untracked:
			snap.Changes.Untracked = append(snap.Changes.Untracked, wsPath)
		default:
			if e.Index != ' ' {
				snap.Changes.Staged = append(snap.Changes.Staged, wsPath)
			}
			if e.Worktree != ' ' {
				snap.Changes.Unstaged = append(snap.Changes.Unstaged, wsPath)
			}
		}
		snap.Boundaries[wsPath] = boundary

		profile, err := s.profile(ctx, repo, e, stagedCounts, unstagedCounts)
		if err != nil {
			return err
		}
		profile.Path = wsPath
		snap.Profiles = append(snap.Profiles, profile)
	}
	return nil
}

// inScope reports whether a workspace-relative path falls under one of the
// scoped directories.
func inScope(wsPath string, scopedDirs []string) bool {
	for _, d := range scopedDirs {
		if d == "." || wsPath == d || strings.HasPrefix(wsPath, d+"/") {
			return true
		}
	}
	return false
}

func (s *Scanner) profile(ctx context.Context, repo Repo, e gitx.StatusEntry,
	staged, unstaged map[string]gitx.NumstatEntry) (types.FileProfile, error) {

	p := types.FileProfile{Status: statusOf(e)}

	if sc, ok := staged[e.Path]; ok {
		p.Additions += sc.Additions
		p.Deletions += sc.Deletions
		p.Binary = p.Binary || sc.Binary
	}
	if uc, ok := unstaged[e.Path]; ok {
		p.Additions += uc.Additions
		p.Deletions += uc.Deletions
		p.Binary = p.Binary || uc.Binary
	}

	// isNewFile only matters for files git reports as added: a rename/move
	// also shows as "added" at the destination, but the content has history.
	if p.Status == types.StatusAdded {
		has, err := repo.HistoryHas(ctx, e.Path)
		if err != nil {
			return p, err
		}
		p.IsNewFile = !has
	}
	return p, nil
}

func statusOf(e gitx.StatusEntry) types.FileStatus {
	if e.Untracked {
		return types.StatusAdded
	}
	// The index column wins over the worktree column: a staged rename with
	// a later edit is still a rename.
	for _, c := range []byte{e.Index, e.Worktree} {
		switch c {
		case 'A':
			return types.StatusAdded
		case 'D':
			return types.StatusDeleted
		case 'R':
			return types.StatusRenamed
		case 'C':
			return types.StatusCopied
		case 'M', 'T', 'U':
			return types.StatusModified
		}
	}
	return types.StatusModified
}

// Diffs retrieves unified diffs for the given workspace-relative files
// concurrently. Failures never abort the batch: untracked content falls back
// to a raw file read, and a file whose diff cannot be produced is skipped
// with a warning. The result maps file path to diff text.
func (s *Scanner) Diffs(ctx context.Context, snap *Snapshot, files []string) (map[string]string, error) {
	untracked := make(map[string]struct{}, len(snap.Changes.Untracked))
	for _, f := range snap.Changes.Untracked {
		untracked[f] = struct{}{}
	}
	staged := make(map[string]struct{}, len(snap.Changes.Staged))
	for _, f := range snap.Changes.Staged {
		staged[f] = struct{}{}
	}

	type diffResult struct {
		path string
		text string
	}
	results := make(chan diffResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(diffWorkers)
	for _, f := range files {
		g.Go(func() error {
			text, err := s.diffOne(gctx, snap, f, untracked, staged)
			if err != nil {
				s.log.Warn("diff retrieval failed, skipping file",
					zap.String("file", f), zap.Error(err))
				return nil
			}
			if text != "" {
				results <- diffResult{path: f, text: text}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	out := make(map[string]string, len(files))
	for r := range results {
		out[r.path] = r.text
	}
	return out, nil
}

func (s *Scanner) diffOne(ctx context.Context, snap *Snapshot, f string,
	untracked, staged map[string]struct{}) (string, error) {

	boundary, ok := snap.Boundaries[f]
	if !ok {
		boundary = "."
	}

	if _, isUntracked := untracked[f]; isUntracked {
		// No diff exists for untracked content; read the file itself.
		raw, err := os.ReadFile(filepath.Join(s.resolver.Workspace(), filepath.FromSlash(f)))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	repo := s.open(filepath.Join(s.resolver.Workspace(), filepath.FromSlash(boundary)))
	repoRel := scope.RepoRelative(boundary, f)

	text, err := repo.Diff(ctx, repoRel, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		if _, isStaged := staged[f]; isStaged {
			return repo.Diff(ctx, repoRel, true)
		}
	}
	return text, nil
}
