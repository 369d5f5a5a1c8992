// Package gitx is the exec-based version-control command layer. Every
// operation runs `git -C <dir>` so a Runner can be pointed at the workspace
// root or at any nested repository boundary.
package gitx

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	scerrors "smartcommit/internal/errors"
)

// Executor runs an external command and returns its combined output. It
// exists so tests can substitute a fake for the git binary.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execExecutor shells out for real.
type execExecutor struct{}

func (execExecutor) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Runner issues git commands against one repository directory.
type Runner struct {
	dir  string
	exec Executor
}

// NewRunner creates a Runner rooted at dir.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir, exec: execExecutor{}}
}

// NewRunnerWithExecutor creates a Runner with a custom executor, for tests.
func NewRunnerWithExecutor(dir string, e Executor) *Runner {
	return &Runner{dir: dir, exec: e}
}

// Dir returns the repository directory this runner operates on.
func (r *Runner) Dir() string { return r.dir }

// At returns a Runner for another directory sharing the same executor.
func (r *Runner) At(dir string) *Runner {
	return &Runner{dir: dir, exec: r.exec}
}

func (r *Runner) git(ctx context.Context, args ...string) (string, error) {
	all := append([]string{"-C", r.dir}, args...)
	out, err := r.exec.Run(ctx, "git", all...)
	if err != nil {
		op := args[0]
		return out, scerrors.NewGitError(op, args[1:], err, out)
	}
	return out, nil
}

// IsRepository reports whether path is inside a git work tree. Exit code 128
// means "not a repository" and is not an error.
func IsRepository(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", path, "rev-parse", "--is-inside-work-tree")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if scerrors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StatusEntry is one parsed line of `git status --porcelain`.
type StatusEntry struct {
	Path        string
	RenamedFrom string // set for renames/copies
	Index       byte   // status letter in the index column, ' ' if none
	Worktree    byte   // status letter in the worktree column, ' ' if none
	Untracked   bool
}

// Status returns the parsed porcelain status of the repository.
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	out, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parsePorcelain(out), nil
}

func parsePorcelain(out string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		x, y := line[0], line[1]
		rest := line[3:]
		e := StatusEntry{Index: x, Worktree: y}
		if x == '?' && y == '?' {
			e.Untracked = true
			e.Index, e.Worktree = ' ', ' '
		}
		// Renames and copies carry "old -> new".
		if i := strings.Index(rest, " -> "); i >= 0 && (x == 'R' || x == 'C') {
			e.RenamedFrom = unquotePath(rest[:i])
			e.Path = unquotePath(rest[i+4:])
		} else {
			e.Path = unquotePath(rest)
		}
		entries = append(entries, e)
	}
	return entries
}

// unquotePath strips the C-style quoting git applies to paths with special
// characters. Escaped bytes inside are left as-is; the common case is plain
// quotes around a path with spaces.
func unquotePath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		if uq, err := strconv.Unquote(p); err == nil {
			return uq
		}
		return p[1 : len(p)-1]
	}
	return p
}

// NumstatEntry carries added/removed line counts for one file. Binary files
// report "-" in numstat and are flagged instead of counted.
type NumstatEntry struct {
	Path      string
	Additions int
	Deletions int
	Binary    bool
}

// Numstat returns per-file line counts. With staged true it inspects the
// index (--cached), otherwise the worktree.
func (r *Runner) Numstat(ctx context.Context, staged bool) (map[string]NumstatEntry, error) {
	args := []string{"diff", "--numstat", "-M"}
	if staged {
		args = []string{"diff", "--cached", "--numstat", "-M"}
	}
	out, err := r.git(ctx, args...)
	if err != nil {
		return nil, err
	}
	result := make(map[string]NumstatEntry)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) < 3 {
			continue
		}
		e := NumstatEntry{Path: numstatPath(fields[2])}
		if fields[0] == "-" || fields[1] == "-" {
			e.Binary = true
		} else {
			e.Additions, _ = strconv.Atoi(fields[0])
			e.Deletions, _ = strconv.Atoi(fields[1])
		}
		result[e.Path] = e
	}
	return result, nil
}

// numstatPath resolves rename notation ("old => new" or "pre{a => b}post")
// to the new path.
func numstatPath(p string) string {
	p = unquotePath(p)
	if i := strings.Index(p, "{"); i >= 0 {
		if j := strings.Index(p, " => "); j > i {
			if k := strings.Index(p[j:], "}"); k >= 0 {
				return p[:i] + p[j+4:j+k] + p[j+k+1:]
			}
		}
	}
	if i := strings.Index(p, " => "); i >= 0 {
		return p[i+4:]
	}
	return p
}

// HistoryHas reports whether path appears anywhere in the committed history
// of any ref, not just the immediate parent commit.
func (r *Runner) HistoryHas(ctx context.Context, path string) (bool, error) {
	out, err := r.git(ctx, "log", "--all", "--format=%H", "-n", "1", "--", path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// Diff returns the unified diff for one file. Staged selects the index diff.
func (r *Runner) Diff(ctx context.Context, path string, staged bool) (string, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--", path)
	return r.git(ctx, args...)
}

// RecentSubjects returns up to n recent commit subject lines, newest first.
// An empty history is not an error.
func (r *Runner) RecentSubjects(ctx context.Context, n int) ([]string, error) {
	out, err := r.git(ctx, "log", "-n", strconv.Itoa(n), "--format=%s")
	if err != nil {
		// A repository with no commits yet has no style sample.
		var ge *scerrors.GitError
		if scerrors.As(err, &ge) {
			return nil, nil
		}
		return nil, err
	}
	var subjects []string
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects, nil
}

// ResetIndex unstages everything, leaving the worktree untouched. Used by
// the applier to establish a clean pre-group baseline.
func (r *Runner) ResetIndex(ctx context.Context) error {
	_, err := r.git(ctx, "reset", "--quiet")
	return err
}

// Add stages exactly the given files.
func (r *Runner) Add(ctx context.Context, files ...string) error {
	args := append([]string{"add", "--"}, files...)
	_, err := r.git(ctx, args...)
	return err
}

// Commit creates a commit with the given message and returns its hash.
func (r *Runner) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return "", err
	}
	return r.Head(ctx)
}

// Head returns the current HEAD commit hash.
func (r *Runner) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Runner) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Fetch updates remote tracking refs.
func (r *Runner) Fetch(ctx context.Context, remote string) error {
	_, err := r.git(ctx, "fetch", "--quiet", remote)
	return err
}

// AheadCount counts commits on HEAD that are not on remote/branch. A remote
// branch that does not exist yet means everything on HEAD is unpushed.
func (r *Runner) AheadCount(ctx context.Context, remote, branch string) (int, error) {
	out, err := r.git(ctx, "rev-list", "--count", remote+"/"+branch+"..HEAD")
	if err != nil {
		var ge *scerrors.GitError
		if scerrors.As(err, &ge) && strings.Contains(ge.Output, "unknown revision") {
			all, err2 := r.git(ctx, "rev-list", "--count", "HEAD")
			if err2 != nil {
				return 0, err2
			}
			return atoiTrim(all), nil
		}
		return 0, err
	}
	return atoiTrim(out), nil
}

func atoiTrim(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// Push pushes the branch to the remote.
func (r *Runner) Push(ctx context.Context, remote, branch string, force bool) error {
	args := []string{"push"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, remote, branch)
	_, err := r.git(ctx, args...)
	return err
}
