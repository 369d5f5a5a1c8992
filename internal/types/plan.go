// Package types holds the shared data model for commit planning. It has no
// dependencies on other internal packages so that every layer can exchange
// plans, profiles, and results without import cycles.
package types

import (
	"fmt"
	"sort"
	"time"
)

// PlanSchemaVersion is written into every persisted plan. A loader must
// refuse plans written by a newer schema.
const PlanSchemaVersion = 1

// FileStatus classifies how a file changed relative to HEAD.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
	StatusCopied   FileStatus = "copied"
)

// ConventionalType is a conventional-commit type token.
type ConventionalType string

const (
	TypeFeat     ConventionalType = "feat"
	TypeFix      ConventionalType = "fix"
	TypeDocs     ConventionalType = "docs"
	TypeRefactor ConventionalType = "refactor"
	TypeTest     ConventionalType = "test"
	TypeChore    ConventionalType = "chore"
	TypePerf     ConventionalType = "perf"
	TypeCI       ConventionalType = "ci"
	TypeBuild    ConventionalType = "build"
)

// ValidConventionalType reports whether t is one of the accepted commit
// types. Anything else coming back from a model is rejected, not coerced.
func ValidConventionalType(t ConventionalType) bool {
	switch t {
	case TypeFeat, TypeFix, TypeDocs, TypeRefactor, TypeTest, TypeChore, TypePerf, TypeCI, TypeBuild:
		return true
	}
	return false
}

// ReleaseHint is the semver impact a commit group suggests.
type ReleaseHint string

const (
	ReleaseNone  ReleaseHint = "none"
	ReleasePatch ReleaseHint = "patch"
	ReleaseMinor ReleaseHint = "minor"
	ReleaseMajor ReleaseHint = "major"
)

// ChangeSet is the workspace status snapshot a plan was generated against.
// A partially staged path appears in both Staged and Unstaged.
type ChangeSet struct {
	Staged    []string `json:"staged"`
	Unstaged  []string `json:"unstaged"`
	Untracked []string `json:"untracked"`
}

// AllFiles returns the deduplicated union of all three sets, sorted.
func (c *ChangeSet) AllFiles() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range [][]string{c.Staged, c.Unstaged, c.Untracked} {
		for _, f := range set {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether the workspace has no changes at all.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.Staged) == 0 && len(c.Unstaged) == 0 && len(c.Untracked) == 0
}

// FileProfile carries per-file metadata used by pattern detection and
// grouping. Paths are workspace-relative with forward slashes.
type FileProfile struct {
	Path        string     `json:"path"`
	Status      FileStatus `json:"status"`
	Additions   int        `json:"additions"`
	Deletions   int        `json:"deletions"`
	Binary      bool       `json:"binary,omitempty"`
	RenamedFrom string     `json:"renamed_from,omitempty"`
	// IsNewFile distinguishes genuinely new content from a move: a renamed
	// file also reports as added at its destination, but its content has
	// prior history.
	IsNewFile bool `json:"is_new_file,omitempty"`
}

// Churn is the total line movement for the file, used to rank files when
// selecting diffs for deeper analysis.
func (p FileProfile) Churn() int { return p.Additions + p.Deletions }

// PatternType names a detected change-shape.
type PatternType string

const (
	PatternNewPackage     PatternType = "new-package"
	PatternRefactorMove   PatternType = "refactor-move"
	PatternRefactorModify PatternType = "refactor-modify"
	PatternDeletions      PatternType = "deletions"
	PatternMixed          PatternType = "mixed"
)

// PatternHint is the output of structural pattern detection. It biases but
// never replaces grouping; Confidence 0 means no recognizable shape.
type PatternHint struct {
	PatternType   PatternType      `json:"pattern_type"`
	Confidence    float64          `json:"confidence"`
	SuggestedType ConventionalType `json:"suggested_type,omitempty"`
	Hints         []string         `json:"hints,omitempty"`
}

// GroupReasoning is advisory explanation attached to a group during
// generation. It is stripped before a plan is persisted.
type GroupReasoning struct {
	Confidence   float64 `json:"confidence"`
	NewBehavior  bool    `json:"new_behavior,omitempty"`
	BugFix       bool    `json:"bug_fix,omitempty"`
	InternalOnly bool    `json:"internal_only,omitempty"`
	Summary      string  `json:"summary,omitempty"`
}

// CommitGroup is one planned commit: a conventional-commit header plus the
// exact files it stages.
type CommitGroup struct {
	ID      string           `json:"id"`
	Type    ConventionalType `json:"type"`
	Scope   string           `json:"scope,omitempty"`
	Message string           `json:"message"`
	Body    string           `json:"body,omitempty"`
	// Breaking marks the group as a breaking change; BreakingNote becomes
	// the BREAKING CHANGE footer.
	Breaking     bool            `json:"breaking,omitempty"`
	BreakingNote string          `json:"breaking_note,omitempty"`
	Files        []string        `json:"files"`
	Confidence   float64         `json:"confidence,omitempty"`
	ReleaseHint  ReleaseHint     `json:"release_hint"`
	Reasoning    *GroupReasoning `json:"reasoning,omitempty"`
}

// Header renders the conventional-commit subject line.
func (g *CommitGroup) Header() string {
	bang := ""
	if g.Breaking {
		bang = "!"
	}
	if g.Scope != "" {
		return fmt.Sprintf("%s(%s)%s: %s", g.Type, g.Scope, bang, g.Message)
	}
	return fmt.Sprintf("%s%s: %s", g.Type, bang, g.Message)
}

// PlanMetadata records how a plan was produced.
type PlanMetadata struct {
	// Generator is the model identifier, or "heuristic" for the fallback
	// planner.
	Generator string      `json:"generator"`
	Pattern   PatternType `json:"pattern,omitempty"`
	Branch    string      `json:"branch,omitempty"`
	// TotalFiles counts distinct changed files the plan covers;
	// TotalCommits counts the groups.
	TotalFiles   int `json:"total_files"`
	TotalCommits int `json:"total_commits"`
	// TokensUsed sums model token usage across all phases of the run.
	TokensUsed int `json:"tokens_used,omitempty"`
	// Escalated records whether the run needed the diff-backed phase.
	Escalated bool `json:"escalated,omitempty"`
}

// CommitPlan is an ordered set of commit groups generated against one
// workspace snapshot.
type CommitPlan struct {
	SchemaVersion int    `json:"schema_version"`
	Scope         string `json:"scope,omitempty"`
	// RepoRoot is the workspace the plan was generated in.
	RepoRoot  string       `json:"repo_root,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Metadata  PlanMetadata `json:"metadata"`
	// GitStatus is the snapshot the plan was generated against; the applier
	// compares live status against it per group.
	GitStatus ChangeSet     `json:"git_status"`
	Commits   []CommitGroup `json:"commits"`
}

// StripReasoning removes advisory reasoning from every group. Persisted
// plans never carry reasoning.
func (p *CommitPlan) StripReasoning() {
	for i := range p.Commits {
		p.Commits[i].Reasoning = nil
	}
}

// Group returns the group with the given ID.
func (p *CommitPlan) Group(id string) (*CommitGroup, bool) {
	for i := range p.Commits {
		if p.Commits[i].ID == id {
			return &p.Commits[i], true
		}
	}
	return nil, false
}

// SecretMatch reports one suspected credential in a changed file.
type SecretMatch struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Pattern     string `json:"pattern"`
	PatternName string `json:"pattern_name"`
	Snippet     string `json:"snippet"`
	MatchedText string `json:"matched_text,omitempty"`
}

// AppliedCommit records one commit created by the applier.
type AppliedCommit struct {
	GroupID string   `json:"group_id"`
	Hash    string   `json:"hash"`
	Header  string   `json:"header"`
	Files   []string `json:"files"`
}

// ApplyResult is the outcome of applying a plan. Application stops at the
// first failing group; commits already created are never rolled back.
type ApplyResult struct {
	Success bool            `json:"success"`
	Applied []AppliedCommit `json:"applied"`
	// FailedGroup and Reason describe the group that stopped application,
	// empty on success.
	FailedGroup string `json:"failed_group,omitempty"`
	Reason      string `json:"reason,omitempty"`
	// Remaining lists group IDs never attempted.
	Remaining []string `json:"remaining,omitempty"`
}

// PushResult is the outcome of pushing applied commits.
type PushResult struct {
	Remote  string `json:"remote"`
	Branch  string `json:"branch"`
	Pushed  int    `json:"pushed"`
	Forced  bool   `json:"forced,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}
