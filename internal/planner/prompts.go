package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"smartcommit/internal/types"
)

const systemPrompt = `You group uncommitted changes into conventional commits.

Rules:
- Every group needs: type (feat|fix|docs|refactor|test|chore|perf|ci|build), message (imperative, lowercase, no trailing period), files (exact paths from the provided list), confidence (0.0-1.0).
- Optional: scope, body, breaking, breaking_note, reasoning.
- Only use file paths that appear in the provided change list. Never invent paths.
- Each file belongs to exactly one group.
- Prefer small, coherent groups over one large commit.
- If the file list alone is not enough to classify confidently, respond with need_context true and request_files naming the diffs you want.

Respond with the propose_commit_plan tool, or with a single JSON object of the same shape.`

func phase1Prompt(profiles []types.FileProfile, hint types.PatternHint, subjects []string) string {
	var b strings.Builder
	b.WriteString("Changed files:\n")
	writeProfiles(&b, profiles)
	writeHint(&b, hint)
	writeStyle(&b, subjects)
	b.WriteString("\nGroup these changes into conventional commits.\n")
	return b.String()
}

func phase2Prompt(profiles []types.FileProfile, hint types.PatternHint,
	subjects []string, diffs map[string]string) string {

	var b strings.Builder
	b.WriteString("Changed files:\n")
	writeProfiles(&b, profiles)
	writeHint(&b, hint)
	writeStyle(&b, subjects)

	b.WriteString("\nDiffs for the most significant files:\n")
	for _, f := range sortedKeys(diffs) {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", f, diffs[f])
	}
	b.WriteString("\nGroup all changed files into conventional commits. This is your final answer; do not request more context.\n")
	return b.String()
}

func phase3Prompt(groups []types.CommitGroup, leftover []string, profiles []types.FileProfile) string {
	var b strings.Builder
	b.WriteString("Current commit groups:\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "- id=%s %s (files: %s)\n", g.ID, g.Header(), strings.Join(g.Files, ", "))
	}

	b.WriteString("\nUnassigned files:\n")
	writeProfiles(&b, subset(profiles, leftover))

	b.WriteString(`
Place every unassigned file: either extend an existing group via assign
(group_id plus files), or propose new groups for files that do not fit.
Do not move files already assigned.
`)
	return b.String()
}

func writeProfiles(b *strings.Builder, profiles []types.FileProfile) {
	for _, p := range profiles {
		flags := ""
		if p.IsNewFile {
			flags = " new"
		}
		if p.Binary {
			flags += " binary"
		}
		fmt.Fprintf(b, "- %s [%s] +%d/-%d%s\n", p.Path, p.Status, p.Additions, p.Deletions, flags)
	}
}

func writeHint(b *strings.Builder, hint types.PatternHint) {
	if hint.Confidence == 0 {
		return
	}
	data, _ := json.Marshal(hint)
	fmt.Fprintf(b, "\nStructural pattern detected: %s\n", data)
}

func writeStyle(b *strings.Builder, subjects []string) {
	if len(subjects) == 0 {
		return
	}
	b.WriteString("\nRecent commit subjects in this repository, match their style:\n")
	for _, s := range subjects {
		fmt.Fprintf(b, "- %s\n", s)
	}
}
