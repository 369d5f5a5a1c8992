package planner

import (
	"sort"

	"go.uber.org/zap"

	"smartcommit/internal/types"
)

// Validate enforces ground truth on a group list: files the workspace does
// not actually contain are dropped as hallucinations, duplicate files keep
// only their first occurrence in group order, and groups emptied by either
// rule are removed. Returns the surviving groups and the leftover set of
// real files no group claimed, sorted.
func Validate(groups []types.CommitGroup, truth []string, log *zap.Logger) ([]types.CommitGroup, []string) {
	if log == nil {
		log = zap.NewNop()
	}
	real := make(map[string]struct{}, len(truth))
	for _, f := range truth {
		real[f] = struct{}{}
	}

	seen := make(map[string]struct{})
	var kept []types.CommitGroup
	for _, g := range groups {
		var files []string
		for _, f := range g.Files {
			if _, ok := real[f]; !ok {
				log.Warn("dropping hallucinated file",
					zap.String("file", f),
					zap.String("group", g.ID))
				continue
			}
			if _, dup := seen[f]; dup {
				log.Debug("dropping duplicate file from later group",
					zap.String("file", f),
					zap.String("group", g.ID))
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
		if len(files) == 0 {
			log.Debug("dropping empty group", zap.String("group", g.ID))
			continue
		}
		g.Files = files
		kept = append(kept, g)
	}

	var leftover []string
	for _, f := range truth {
		if _, ok := seen[f]; !ok {
			leftover = append(leftover, f)
		}
	}
	sort.Strings(leftover)
	return kept, leftover
}
