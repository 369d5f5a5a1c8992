// Package scope maps a scope specifier (exact name, wildcard, path pattern)
// to workspace directories and determines nested-repository boundaries. The
// resolver owns its caches; nothing here has global lifetime.
package scope

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// skipDirs are never descended into during scope resolution.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	".smartcommit": {},
	"vendor":       {},
	"dist":         {},
}

// Resolver resolves scope specifiers against one workspace root. Resolution
// results and repository-boundary lookups are memoized per instance until
// Invalidate is called.
type Resolver struct {
	workspace string

	mu         sync.Mutex
	dirCache   map[string][]string
	boundaries map[string]string
}

// NewResolver creates a resolver for the given workspace root.
func NewResolver(workspace string) *Resolver {
	return &Resolver{
		workspace:  workspace,
		dirCache:   make(map[string][]string),
		boundaries: make(map[string]string),
	}
}

// Workspace returns the workspace root this resolver serves.
func (r *Resolver) Workspace() string { return r.workspace }

// Invalidate drops all cached resolutions and boundary lookups.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirCache = make(map[string][]string)
	r.boundaries = make(map[string]string)
}

// Resolve maps a scope specifier to a sorted set of workspace-relative
// directories. Supported forms:
//
//	""        the workspace root itself
//	"name"    any directory whose base name equals name
//	"pkg/*"   path pattern matched against workspace-relative paths
//	"*-core"  wildcard matched against directory base names
func (r *Resolver) Resolve(ctx context.Context, spec string) ([]string, error) {
	spec = strings.TrimSuffix(strings.TrimSpace(spec), "/")
	if spec == "" || spec == "." {
		return []string{"."}, nil
	}

	r.mu.Lock()
	if cached, ok := r.dirCache[spec]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	var matches []string
	err := filepath.WalkDir(r.workspace, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.workspace, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if _, skip := skipDirs[d.Name()]; skip {
			return fs.SkipDir
		}
		if matchesSpec(spec, filepath.ToSlash(rel), d.Name()) {
			matches = append(matches, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	r.mu.Lock()
	r.dirCache[spec] = matches
	r.mu.Unlock()
	return matches, nil
}

func matchesSpec(spec, rel, base string) bool {
	// A path-shaped spec matches against the workspace-relative path; a bare
	// spec matches against the directory base name.
	if strings.Contains(spec, "/") {
		if ok, err := path.Match(spec, rel); err == nil && ok {
			return true
		}
		return rel == spec || strings.HasPrefix(rel, spec+"/")
	}
	if strings.ContainsAny(spec, "*?[") {
		ok, err := path.Match(spec, base)
		return err == nil && ok
	}
	return base == spec
}

// OwningRepo walks path segments upward from the given workspace-relative
// directory to the nearest directory owning version-control metadata.
// Returns the boundary as a workspace-relative path ("." for the workspace
// root itself). Lookups are memoized on the resolver.
func (r *Resolver) OwningRepo(rel string) (string, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "" {
		rel = "."
	}

	r.mu.Lock()
	if b, ok := r.boundaries[rel]; ok {
		r.mu.Unlock()
		return b, nil
	}
	r.mu.Unlock()

	cur := rel
	for {
		probe := filepath.Join(r.workspace, filepath.FromSlash(cur), ".git")
		if fi, err := os.Stat(probe); err == nil && (fi.IsDir() || fi.Mode().IsRegular()) {
			r.mu.Lock()
			r.boundaries[rel] = cur
			r.mu.Unlock()
			return cur, nil
		}
		if cur == "." {
			break
		}
		parent := path.Dir(cur)
		if parent == cur {
			parent = "."
		}
		cur = parent
	}

	// No metadata anywhere up to the root: treat the workspace root as the
	// boundary so status/diff operations still have a home.
	r.mu.Lock()
	r.boundaries[rel] = "."
	r.mu.Unlock()
	return ".", nil
}

// RepoRelative re-expresses a workspace-relative path against a boundary,
// and Rehome does the inverse: prefix a boundary-relative path back to the
// workspace root.
func RepoRelative(boundary, workspaceRel string) string {
	if boundary == "." {
		return workspaceRel
	}
	trimmed := strings.TrimPrefix(filepath.ToSlash(workspaceRel), boundary+"/")
	return trimmed
}

// Rehome prefixes a boundary-relative path back to the workspace root.
func Rehome(boundary, repoRel string) string {
	if boundary == "." {
		return repoRel
	}
	return path.Join(boundary, repoRel)
}
