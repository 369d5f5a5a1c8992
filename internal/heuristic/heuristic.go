// Package heuristic is the deterministic, model-free grouping algorithm. It
// doubles as the generator's fallback when no model is configured or every
// model attempt failed. Plan is a pure function: identical input profiles
// always yield identical groups, scopes, and messages, and it never raises
// domain errors.
package heuristic

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"smartcommit/internal/pattern"
	"smartcommit/internal/types"
)

// lockfileNames are config-like siblings clustered with a manifest.
var lockfileNames = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"go.sum":            {},
	"Cargo.lock":        {},
	"poetry.lock":       {},
	"Pipfile.lock":      {},
	"Gemfile.lock":      {},
	"composer.lock":     {},
}

// Plan groups every profile into commit groups using three ordered passes,
// each claiming files so later passes only see the remainder.
func Plan(profiles []types.FileProfile) []types.CommitGroup {
	byPath := make(map[string]types.FileProfile, len(profiles))
	remaining := make([]string, 0, len(profiles))
	for _, p := range profiles {
		byPath[p.Path] = p
		remaining = append(remaining, p.Path)
	}
	sort.Strings(remaining)

	var groups []types.CommitGroup
	nextID := func() string { return fmt.Sprintf("h%d", len(groups)+1) }

	// Pass 1: manifest clustering.
	var after []string
	for _, g := range clusterManifests(remaining) {
		g.ID = nextID()
		groups = append(groups, g)
	}
	claimed := claimedSet(groups)
	for _, f := range remaining {
		if _, ok := claimed[f]; !ok {
			after = append(after, f)
		}
	}
	remaining = after

	// Pass 2: test/implementation pairing.
	for _, g := range pairTests(remaining, byPath) {
		g.ID = nextID()
		groups = append(groups, g)
	}
	claimed = claimedSet(groups)
	after = nil
	for _, f := range remaining {
		if _, ok := claimed[f]; !ok {
			after = append(after, f)
		}
	}
	remaining = after

	// Pass 3: category grouping of whatever is left.
	for _, g := range groupByCategory(remaining, byPath) {
		g.ID = nextID()
		groups = append(groups, g)
	}

	return groups
}

func claimedSet(groups []types.CommitGroup) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range groups {
		for _, f := range g.Files {
			out[f] = struct{}{}
		}
	}
	return out
}

// clusterManifests builds one chore group per manifest directory, pulling in
// lockfiles and config-like siblings from the same or nested directories.
func clusterManifests(files []string) []types.CommitGroup {
	var manifestDirs []string
	seen := map[string]struct{}{}
	for _, f := range files {
		if pattern.IsManifest(f) {
			dir := path.Dir(f)
			if _, ok := seen[dir]; !ok {
				seen[dir] = struct{}{}
				manifestDirs = append(manifestDirs, dir)
			}
		}
	}
	sort.Strings(manifestDirs)

	var groups []types.CommitGroup
	claimed := map[string]struct{}{}
	for _, dir := range manifestDirs {
		var members []string
		for _, f := range files {
			if _, ok := claimed[f]; ok {
				continue
			}
			if !sameOrNested(dir, path.Dir(f)) {
				continue
			}
			if pattern.IsManifest(f) || isConfigLike(f) {
				members = append(members, f)
			}
		}
		if len(members) == 0 {
			continue
		}
		sort.Strings(members)
		for _, m := range members {
			claimed[m] = struct{}{}
		}
		scope := path.Base(dir)
		if dir == "." {
			scope = "deps"
		}
		groups = append(groups, types.CommitGroup{
			Type:        types.TypeChore,
			Scope:       scope,
			Message:     "update dependencies",
			Files:       members,
			ReleaseHint: types.ReleaseNone,
		})
	}
	return groups
}

func sameOrNested(parent, dir string) bool {
	if parent == "." {
		return true
	}
	return dir == parent || strings.HasPrefix(dir, parent+"/")
}

func isConfigLike(f string) bool {
	base := path.Base(f)
	if _, ok := lockfileNames[base]; ok {
		return true
	}
	switch path.Ext(base) {
	case ".json", ".yaml", ".yml", ".toml", ".ini":
		return true
	}
	return strings.HasPrefix(base, ".") && !strings.Contains(base[1:], "/")
}

// pairTests matches each test file with its inferred implementation path and
// emits one group per pair, typed by the implementation's change shape.
func pairTests(files []string, byPath map[string]types.FileProfile) []types.CommitGroup {
	inSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		inSet[f] = struct{}{}
	}

	var groups []types.CommitGroup
	claimed := map[string]struct{}{}
	for _, f := range files {
		if _, ok := claimed[f]; ok {
			continue
		}
		if !isTestFile(f) {
			continue
		}
		impl := implPathFor(f)
		if impl == "" || impl == f {
			continue
		}
		if _, present := inSet[impl]; !present {
			continue
		}
		if _, ok := claimed[impl]; ok {
			continue
		}

		p := byPath[impl]
		ctype, verb := shapeOf(p)
		base := strings.TrimSuffix(path.Base(impl), path.Ext(impl))
		groups = append(groups, types.CommitGroup{
			Type:        ctype,
			Scope:       scopeOf([]string{impl, f}),
			Message:     fmt.Sprintf("%s %s with tests", verb, base),
			Files:       []string{impl, f},
			ReleaseHint: releaseHintFor(ctype, false),
		})
		claimed[f] = struct{}{}
		claimed[impl] = struct{}{}
	}
	return groups
}

func isTestFile(f string) bool {
	base := path.Base(f)
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasSuffix(base, ".test.ts"), strings.HasSuffix(base, ".test.tsx"),
		strings.HasSuffix(base, ".test.js"), strings.HasSuffix(base, ".test.jsx"),
		strings.HasSuffix(base, ".spec.ts"), strings.HasSuffix(base, ".spec.js"),
		strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return true
	}
	for _, seg := range strings.Split(path.Dir(f), "/") {
		if seg == "test" || seg == "tests" || seg == "__tests__" {
			return true
		}
	}
	return false
}

// implPathFor strips the test suffix/directory convention to find the
// implementation candidate.
func implPathFor(f string) string {
	dir, base := path.Dir(f), path.Base(f)
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return path.Join(dir, strings.TrimSuffix(base, "_test.go")+".go")
	case strings.HasSuffix(base, ".test.ts"):
		return path.Join(dir, strings.TrimSuffix(base, ".test.ts")+".ts")
	case strings.HasSuffix(base, ".test.tsx"):
		return path.Join(dir, strings.TrimSuffix(base, ".test.tsx")+".tsx")
	case strings.HasSuffix(base, ".test.js"):
		return path.Join(dir, strings.TrimSuffix(base, ".test.js")+".js")
	case strings.HasSuffix(base, ".test.jsx"):
		return path.Join(dir, strings.TrimSuffix(base, ".test.jsx")+".jsx")
	case strings.HasSuffix(base, ".spec.ts"):
		return path.Join(dir, strings.TrimSuffix(base, ".spec.ts")+".ts")
	case strings.HasSuffix(base, ".spec.js"):
		return path.Join(dir, strings.TrimSuffix(base, ".spec.js")+".js")
	case strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py"):
		return path.Join(dir, strings.TrimPrefix(base, "test_"))
	}
	return ""
}

// shapeOf infers a type and verb from a file's change shape: pure additions
// are a feature, pure deletions a cleanup, everything else a refactor.
func shapeOf(p types.FileProfile) (types.ConventionalType, string) {
	switch {
	case p.Status == types.StatusDeleted || (p.Deletions > 0 && p.Additions == 0):
		return types.TypeChore, "remove"
	case p.Status == types.StatusAdded || (p.Additions > 0 && p.Deletions == 0):
		return types.TypeFeat, "add"
	default:
		return types.TypeRefactor, "rework"
	}
}

// categories, in emission order.
var categoryOrder = []string{"test", "docs", "config", "ci", "build"}

var categoryTypes = map[string]types.ConventionalType{
	"test":   types.TypeTest,
	"docs":   types.TypeDocs,
	"config": types.TypeChore,
	"ci":     types.TypeCI,
	"build":  types.TypeBuild,
}

// groupByCategory buckets remaining files by coarse category; source files
// bucket by top-level directory.
func groupByCategory(files []string, byPath map[string]types.FileProfile) []types.CommitGroup {
	buckets := make(map[string][]string)
	for _, f := range files {
		buckets[categoryOf(f)] = append(buckets[categoryOf(f)], f)
	}

	var keys []string
	for _, c := range categoryOrder {
		if _, ok := buckets[c]; ok {
			keys = append(keys, c)
		}
	}
	var srcKeys []string
	for k := range buckets {
		if strings.HasPrefix(k, "src:") {
			srcKeys = append(srcKeys, k)
		}
	}
	sort.Strings(srcKeys)
	keys = append(keys, srcKeys...)

	var groups []types.CommitGroup
	for _, key := range keys {
		members := buckets[key]
		sort.Strings(members)

		ctype, label := categoryTypes[key], key
		if strings.HasPrefix(key, "src:") {
			label = strings.TrimPrefix(key, "src:") + " sources"
			ctype = bucketShape(members, byPath)
		}

		verb := bucketVerb(members, byPath)
		msg := fmt.Sprintf("%s %s", verb, label)
		if len(members) > 1 {
			msg = fmt.Sprintf("%s (%d files)", msg, len(members))
		}
		groups = append(groups, types.CommitGroup{
			Type:        ctype,
			Scope:       scopeOf(members),
			Message:     msg,
			Files:       members,
			ReleaseHint: releaseHintFor(ctype, false),
		})
	}
	return groups
}

func categoryOf(f string) string {
	base := path.Base(f)
	top := strings.Split(f, "/")[0]
	switch {
	case isTestFile(f):
		return "test"
	case strings.HasSuffix(base, ".md") || strings.HasSuffix(base, ".rst") || top == "docs" || top == "doc":
		return "docs"
	case strings.HasPrefix(f, ".github/") || base == ".gitlab-ci.yml" || top == "ci":
		return "ci"
	case base == "Dockerfile" || base == "Makefile" || strings.HasSuffix(base, ".mk") || top == "build":
		return "build"
	case isConfigLike(f) && !strings.Contains(f, "/"):
		return "config"
	}
	if !strings.Contains(f, "/") {
		return "src:root"
	}
	return "src:" + top
}

// bucketShape derives a type for a source bucket from its aggregate shape.
func bucketShape(members []string, byPath map[string]types.FileProfile) types.ConventionalType {
	switch bucketVerb(members, byPath) {
	case "add":
		return types.TypeFeat
	case "remove":
		return types.TypeChore
	default:
		return types.TypeRefactor
	}
}

func bucketVerb(members []string, byPath map[string]types.FileProfile) string {
	allAdded, allDeleted := true, true
	for _, f := range members {
		p := byPath[f]
		if p.Status != types.StatusAdded {
			allAdded = false
		}
		if p.Status != types.StatusDeleted {
			allDeleted = false
		}
	}
	switch {
	case allAdded:
		return "add"
	case allDeleted:
		return "remove"
	default:
		return "update"
	}
}

// scopeOf infers a scope from the longest common directory prefix of the
// group's files. Root-level groups have no scope.
func scopeOf(files []string) string {
	if len(files) == 0 {
		return ""
	}
	prefix := strings.Split(path.Dir(files[0]), "/")
	if path.Dir(files[0]) == "." {
		return ""
	}
	for _, f := range files[1:] {
		dir := path.Dir(f)
		if dir == "." {
			return ""
		}
		parts := strings.Split(dir, "/")
		var common []string
		for i := 0; i < len(prefix) && i < len(parts); i++ {
			if prefix[i] != parts[i] {
				break
			}
			common = append(common, prefix[i])
		}
		prefix = common
		if len(prefix) == 0 {
			return ""
		}
	}
	// The scope is the last shared segment, not the whole path.
	return prefix[len(prefix)-1]
}

func releaseHintFor(t types.ConventionalType, breaking bool) types.ReleaseHint {
	if breaking {
		return types.ReleaseMajor
	}
	switch t {
	case types.TypeFeat:
		return types.ReleaseMinor
	case types.TypeFix, types.TypePerf:
		return types.ReleasePatch
	}
	return types.ReleaseNone
}

// ReleaseHintFor exposes the type-to-release-hint derivation for the
// generator, which fills hints the model omitted.
func ReleaseHintFor(t types.ConventionalType, breaking bool) types.ReleaseHint {
	return releaseHintFor(t, breaking)
}
