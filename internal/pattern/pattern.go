// Package pattern is the pre-model heuristic classifier. Detect is a pure
// function over file profiles producing one hint chosen by priority: new
// package scaffold, bulk move, refactor-only edit, pure deletion, or mixed.
package pattern

import (
	"fmt"
	"path"
	"strings"

	"smartcommit/internal/types"
)

// manifestNames are the package manifests that anchor the new-package rule
// and the heuristic planner's dependency clustering.
var manifestNames = map[string]struct{}{
	"package.json":   {},
	"go.mod":         {},
	"Cargo.toml":     {},
	"pyproject.toml": {},
	"setup.py":       {},
	"pom.xml":        {},
	"build.gradle":   {},
	"Gemfile":        {},
	"composer.json":  {},
}

// IsManifest reports whether the path names a package manifest.
func IsManifest(p string) bool {
	_, ok := manifestNames[path.Base(p)]
	return ok
}

// Detect classifies the change set shape. It never errs and never consults
// anything beyond the given profiles.
func Detect(profiles []types.FileProfile) types.PatternHint {
	if len(profiles) == 0 {
		return types.PatternHint{PatternType: types.PatternMixed}
	}

	if hint, ok := detectNewPackage(profiles); ok {
		return hint
	}
	if hint, ok := detectBulkMove(profiles); ok {
		return hint
	}
	if hint, ok := detectRefactorModify(profiles); ok {
		return hint
	}
	if hint, ok := detectDeletions(profiles); ok {
		return hint
	}
	return types.PatternHint{PatternType: types.PatternMixed}
}

// detectNewPackage: a package manifest plus at least ten genuinely new added
// files, 80%+ of them under the manifest's directory.
func detectNewPackage(profiles []types.FileProfile) (types.PatternHint, bool) {
	if len(profiles) < 10 {
		return types.PatternHint{}, false
	}
	var manifestDir string
	manifestFound := false
	for _, p := range profiles {
		if p.Status != types.StatusAdded || !p.IsNewFile {
			return types.PatternHint{}, false
		}
		if IsManifest(p.Path) && !manifestFound {
			manifestDir = path.Dir(p.Path)
			manifestFound = true
		}
	}
	if !manifestFound {
		return types.PatternHint{}, false
	}

	under := 0
	for _, p := range profiles {
		if manifestDir == "." || p.Path == manifestDir || strings.HasPrefix(p.Path, manifestDir+"/") {
			under++
		}
	}
	if float64(under) < 0.8*float64(len(profiles)) {
		return types.PatternHint{}, false
	}

	return types.PatternHint{
		PatternType: types.PatternNewPackage,
		Confidence:  0.95,
		Hints: []string{
			fmt.Sprintf("new package scaffold under %s (%d files, manifest present)", manifestDir, len(profiles)),
		},
		SuggestedType: types.TypeFeat,
	}, true
}

// detectBulkMove: twenty-plus "added" files where most content already
// exists in history, concentrated into a few directories.
func detectBulkMove(profiles []types.FileProfile) (types.PatternHint, bool) {
	if len(profiles) < 20 {
		return types.PatternHint{}, false
	}
	moved := 0
	dirs := make(map[string]struct{})
	for _, p := range profiles {
		if p.Status != types.StatusAdded {
			return types.PatternHint{}, false
		}
		if !p.IsNewFile {
			moved++
		}
		dirs[dirAtDepth(p.Path, 3)] = struct{}{}
	}
	if float64(moved) <= 0.5*float64(len(profiles)) || len(dirs) >= 5 {
		return types.PatternHint{}, false
	}

	return types.PatternHint{
		PatternType: types.PatternRefactorMove,
		Confidence:  0.90,
		Hints: []string{
			fmt.Sprintf("bulk move: %d of %d files have prior history, concentrated in %d directories", moved, len(profiles), len(dirs)),
		},
		SuggestedType: types.TypeRefactor,
	}, true
}

// detectRefactorModify: every file modified with the change dominated by
// removals and rewrites rather than additions.
func detectRefactorModify(profiles []types.FileProfile) (types.PatternHint, bool) {
	adds, dels := 0, 0
	for _, p := range profiles {
		if p.Status != types.StatusModified {
			return types.PatternHint{}, false
		}
		adds += p.Additions
		dels += p.Deletions
	}
	total := adds + dels
	if total == 0 || float64(adds)/float64(total) >= 0.4 {
		return types.PatternHint{}, false
	}

	return types.PatternHint{
		PatternType: types.PatternRefactorModify,
		Confidence:  0.85,
		Hints: []string{
			fmt.Sprintf("modification-only change with addition ratio %.2f", float64(adds)/float64(total)),
		},
		SuggestedType: types.TypeRefactor,
	}, true
}

// detectDeletions: everything deleted, or the change overwhelmingly removes
// lines.
func detectDeletions(profiles []types.FileProfile) (types.PatternHint, bool) {
	allDeleted := true
	for _, p := range profiles {
		if p.Status != types.StatusDeleted {
			allDeleted = false
			break
		}
	}
	if allDeleted {
		return types.PatternHint{
			PatternType:   types.PatternDeletions,
			Confidence:    0.98,
			Hints:         []string{fmt.Sprintf("all %d files deleted", len(profiles))},
			SuggestedType: types.TypeChore,
		}, true
	}
	if ratio := DeletionRatio(profiles); ratio > 0.8 {
		return types.PatternHint{
			PatternType:   types.PatternDeletions,
			Confidence:    0.95,
			Hints:         []string{fmt.Sprintf("deletion ratio %.2f", ratio)},
			SuggestedType: types.TypeRefactor,
		}, true
	}
	return types.PatternHint{}, false
}

// DeletionRatio returns deletions / (additions + deletions), 0 for an empty
// change.
func DeletionRatio(profiles []types.FileProfile) float64 {
	adds, dels := 0, 0
	for _, p := range profiles {
		adds += p.Additions
		dels += p.Deletions
	}
	if adds+dels == 0 {
		return 0
	}
	return float64(dels) / float64(adds+dels)
}

// AllDeleted reports whether every profile is a deletion.
func AllDeleted(profiles []types.FileProfile) bool {
	if len(profiles) == 0 {
		return false
	}
	for _, p := range profiles {
		if p.Status != types.StatusDeleted {
			return false
		}
	}
	return true
}

// ContradictsFeat reports whether the evidence contradicts a model
// classification of feat: an all-deleted change, or one dominated (>80%) by
// deletions. Used to override the model post hoc.
func ContradictsFeat(profiles []types.FileProfile) bool {
	return AllDeleted(profiles) || DeletionRatio(profiles) > 0.8
}

// dirAtDepth truncates the file's directory to at most depth segments.
func dirAtDepth(p string, depth int) string {
	dir := path.Dir(p)
	if dir == "." {
		return "."
	}
	parts := strings.Split(dir, "/")
	if len(parts) > depth {
		parts = parts[:depth]
	}
	return strings.Join(parts, "/")
}
