// Package planner turns a workspace snapshot into a validated commit plan.
// The generator walks a fixed pipeline: scan, secrets gate, pattern
// detection, then either the model phases or the deterministic heuristic
// planner. Model output is never trusted as-is; every phase feeds the
// validator before anything reaches a plan.
package planner

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/heuristic"
	"smartcommit/internal/logging"
	"smartcommit/internal/model"
	"smartcommit/internal/pattern"
	"smartcommit/internal/scan"
	"smartcommit/internal/secrets"
	"smartcommit/internal/types"
)

const (
	// escalateFileCount forces phase 2 regardless of reported confidence.
	escalateFileCount = 10
	// confidenceFloor is the minimum average phase 1 confidence that avoids
	// escalation.
	confidenceFloor = 0.7
	// maxDiffFiles caps how many diffs are retrieved for phase 2.
	maxDiffFiles = 15
	// maxReconcileRounds bounds the phase 3 loop.
	maxReconcileRounds = 5
	// defaultModelAttempts is the per-call retry budget when none is
	// configured.
	defaultModelAttempts = 2
	// recentSubjectCount is the style sample size sent to the model.
	recentSubjectCount = 10
)

// ErrNoChanges is returned when the scoped workspace is clean.
var ErrNoChanges = scerrors.New("no uncommitted changes in scope")

// Deps is the capability bundle the generator operates on. Model may be nil,
// in which case the heuristic planner runs directly.
type Deps struct {
	Scanner *scan.Scanner
	Secrets *secrets.Detector
	Model   types.ModelClient
	// Subjects returns recent commit subject lines for the style sample.
	Subjects func(ctx context.Context) ([]string, error)
	Branch   string
	// Workspace is the absolute root the plan is generated in.
	Workspace string
	// Attempts is the per-model-call retry budget; zero means the default.
	Attempts int
	Log      *zap.Logger
}

// Options modify one generation run.
type Options struct {
	Scope  string
	Bypass secrets.BypassOptions
}

// Generator produces commit plans.
type Generator struct {
	deps Deps
	log  *zap.Logger

	// Per-run accounting, reset at the top of Generate.
	tokens    int
	escalated bool
}

// NewGenerator wires a Generator from its capability bundle.
func NewGenerator(deps Deps) *Generator {
	log := logging.For(deps.Log, logging.CategoryGenerator)
	return &Generator{deps: deps, log: log}
}

// Generate runs the full pipeline for one scope and returns a plan whose
// groups cover exactly the scoped change set.
func (g *Generator) Generate(ctx context.Context, opts Options) (*types.CommitPlan, error) {
	g.tokens = 0
	g.escalated = false

	snap, err := g.deps.Scanner.Scan(ctx, opts.Scope)
	if err != nil {
		return nil, err
	}
	if snap.Changes.IsEmpty() {
		return nil, ErrNoChanges
	}

	// Filename gate runs on the full candidate list before any model
	// interaction.
	if matches := g.deps.Secrets.CheckFilenames(snap.Changes.AllFiles()); len(matches) > 0 {
		if err := g.deps.Secrets.Gate(matches, opts.Bypass); err != nil {
			return nil, err
		}
	}

	hint := pattern.Detect(snap.Profiles)
	g.log.Debug("pattern detected",
		zap.String("pattern", string(hint.PatternType)),
		zap.Float64("confidence", hint.Confidence))

	var groups []types.CommitGroup
	generator := "heuristic"
	if g.deps.Model == nil {
		groups = heuristic.Plan(snap.Profiles)
	} else {
		groups, err = g.modelPlan(ctx, snap, hint, opts)
		switch {
		case err == nil:
			generator = g.deps.Model.Name()
		case scerrors.IsSecretsDetected(err):
			return nil, err
		default:
			g.log.Warn("model planning failed, falling back to heuristic planner",
				zap.Error(err))
			groups = heuristic.Plan(snap.Profiles)
		}
	}

	plan := &types.CommitPlan{
		SchemaVersion: types.PlanSchemaVersion,
		Scope:         opts.Scope,
		RepoRoot:      g.deps.Workspace,
		CreatedAt:     time.Now().UTC(),
		Metadata: types.PlanMetadata{
			Generator:    generator,
			Pattern:      hint.PatternType,
			Branch:       g.deps.Branch,
			TotalFiles:   len(snap.Changes.AllFiles()),
			TotalCommits: len(groups),
			TokensUsed:   g.tokens,
			Escalated:    g.escalated,
		},
		GitStatus: snap.Changes,
		Commits:   groups,
	}
	return plan, nil
}

// modelPlan runs phases 1 through 3 and returns a validated, complete group
// set. Any error other than SecretsDetected sends the caller to the
// heuristic fallback.
func (g *Generator) modelPlan(ctx context.Context, snap *scan.Snapshot,
	hint types.PatternHint, opts Options) ([]types.CommitGroup, error) {

	truth := snap.Changes.AllFiles()
	subjects := g.styleSample(ctx)

	p1, err := g.phase1(ctx, snap.Profiles, hint, subjects)
	if err != nil {
		return nil, err
	}

	resp := p1
	if g.shouldEscalate(p1, len(truth)) {
		g.escalated = true
		resp, err = g.phase2(ctx, snap, hint, subjects, p1, opts)
		if err != nil {
			return nil, err
		}
	}

	groups := g.materialize(resp.Groups, snap.Profiles)
	groups, leftover := Validate(groups, truth, g.log)

	groups, leftover = g.reconcile(ctx, groups, leftover, snap.Profiles)
	if len(leftover) > 0 {
		groups = append(groups, catchAll(leftover))
	}
	return groups, nil
}

// phase1 submits profiles, the pattern hint, and the commit style sample.
func (g *Generator) phase1(ctx context.Context, profiles []types.FileProfile,
	hint types.PatternHint, subjects []string) (*planResponse, error) {
	return g.complete(ctx, phase1Prompt(profiles, hint, subjects))
}

// shouldEscalate applies the phase 2 triggers: an explicit context request
// from the model, a low average confidence, or a large change set.
func (g *Generator) shouldEscalate(resp *planResponse, fileCount int) bool {
	if resp.NeedContext {
		g.log.Debug("escalating: model requested more context")
		return true
	}
	if fileCount >= escalateFileCount {
		g.log.Debug("escalating: large change set", zap.Int("files", fileCount))
		return true
	}
	if avg := averageConfidence(resp.Groups); avg < confidenceFloor {
		g.log.Debug("escalating: low confidence", zap.Float64("average", avg))
		return true
	}
	return false
}

// phase2 retrieves diffs for the selected files, gates their content, and
// re-invokes the model. This phase is terminal; its answer is final.
func (g *Generator) phase2(ctx context.Context, snap *scan.Snapshot,
	hint types.PatternHint, subjects []string, p1 *planResponse,
	opts Options) (*planResponse, error) {

	selected := g.selectDiffFiles(p1, snap)
	diffs, err := g.deps.Scanner.Diffs(ctx, snap, selected)
	if err != nil {
		return nil, err
	}

	// Content gate runs on every diff immediately before it would reach the
	// model.
	var matches []types.SecretMatch
	for _, f := range sortedKeys(diffs) {
		matches = append(matches, g.deps.Secrets.CheckContent(f, diffs[f])...)
	}
	if len(matches) > 0 {
		if err := g.deps.Secrets.Gate(matches, opts.Bypass); err != nil {
			return nil, err
		}
	}

	return g.complete(ctx, phase2Prompt(snap.Profiles, hint, subjects, diffs))
}

// selectDiffFiles picks which diffs phase 2 sees: the model's requested
// files capped at the limit, otherwise the highest-churn files.
func (g *Generator) selectDiffFiles(p1 *planResponse, snap *scan.Snapshot) []string {
	if len(p1.RequestFiles) > 0 {
		files := p1.RequestFiles
		if len(files) > maxDiffFiles {
			g.log.Warn("model requested more diffs than allowed, truncating",
				zap.Int("requested", len(files)),
				zap.Int("limit", maxDiffFiles))
			files = files[:maxDiffFiles]
		}
		return files
	}

	profiles := make([]types.FileProfile, len(snap.Profiles))
	copy(profiles, snap.Profiles)
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Churn() > profiles[j].Churn()
	})
	n := len(profiles)
	if n > maxDiffFiles {
		n = maxDiffFiles
	}
	files := make([]string, 0, n)
	for _, p := range profiles[:n] {
		files = append(files, p.Path)
	}
	return files
}

// reconcile runs the phase 3 loop: while files remain unassigned, ask the
// model to extend existing groups or create new ones. Stops on iteration
// budget, no progress, or a small stable remainder.
func (g *Generator) reconcile(ctx context.Context, groups []types.CommitGroup,
	leftover []string, profiles []types.FileProfile) ([]types.CommitGroup, []string) {

	truth := make([]string, 0, len(profiles))
	for _, p := range profiles {
		truth = append(truth, p.Path)
	}

	for round := 1; round <= maxReconcileRounds && len(leftover) > 0; round++ {
		if round > 2 && len(leftover) <= 3 {
			g.log.Debug("stopping reconciliation: small stable remainder",
				zap.Int("files", len(leftover)))
			break
		}

		resp, err := g.complete(ctx, phase3Prompt(groups, leftover, profiles))
		if err != nil {
			g.log.Warn("reconciliation round failed", zap.Int("round", round), zap.Error(err))
			break
		}

		before := len(leftover)
		groups = g.applyAssignments(groups, resp.Assign, leftover)
		groups = append(groups, g.materialize(resp.Groups, profiles)...)
		groups, leftover = Validate(groups, truth, g.log)
		if len(leftover) >= before {
			g.log.Debug("stopping reconciliation: no progress", zap.Int("round", round))
			break
		}
	}
	return groups, leftover
}

// applyAssignments extends existing groups by id with leftover files. Files
// outside the leftover set are ignored; the validator dedupes afterward.
func (g *Generator) applyAssignments(groups []types.CommitGroup,
	assigns []assignment, leftover []string) []types.CommitGroup {

	allowed := make(map[string]struct{}, len(leftover))
	for _, f := range leftover {
		allowed[f] = struct{}{}
	}
	for _, a := range assigns {
		for i := range groups {
			if groups[i].ID != a.GroupID {
				continue
			}
			for _, f := range a.Files {
				if _, ok := allowed[f]; ok {
					groups[i].Files = append(groups[i].Files, f)
				}
			}
			break
		}
	}
	return groups
}

// materialize converts raw model groups into CommitGroups, rejecting invalid
// commit types and deriving release hints.
func (g *Generator) materialize(raw []rawGroup, profiles []types.FileProfile) []types.CommitGroup {
	var out []types.CommitGroup
	for _, r := range raw {
		t := types.ConventionalType(r.Type)
		if !types.ValidConventionalType(t) {
			g.log.Warn("dropping group with invalid commit type", zap.String("type", r.Type))
			continue
		}
		if t == types.TypeFeat && pattern.ContradictsFeat(subset(profiles, r.Files)) {
			g.log.Debug("overriding feat classification contradicted by deletions",
				zap.String("message", r.Message))
			t = types.TypeRefactor
		}
		out = append(out, types.CommitGroup{
			ID:           uuid.NewString(),
			Type:         t,
			Scope:        r.Scope,
			Message:      r.Message,
			Body:         r.Body,
			Breaking:     r.Breaking,
			BreakingNote: r.BreakingNote,
			Files:        r.Files,
			Confidence:   r.Confidence,
			ReleaseHint:  heuristic.ReleaseHintFor(t, r.Breaking),
			Reasoning:    reasoningFor(t, r.Confidence, r.Reasoning),
		})
	}
	return out
}

// reasoningFor derives the advisory classification flags from the commit
// type. It never survives persistence.
func reasoningFor(t types.ConventionalType, confidence float64, summary string) *types.GroupReasoning {
	return &types.GroupReasoning{
		Confidence:  confidence,
		NewBehavior: t == types.TypeFeat,
		BugFix:      t == types.TypeFix,
		InternalOnly: t == types.TypeRefactor || t == types.TypeChore ||
			t == types.TypeTest || t == types.TypeBuild || t == types.TypeCI,
		Summary: summary,
	}
}

// complete sends one prompt through the retry wrapper and parses the
// response, preferring a schema-validated tool call over free text.
func (g *Generator) complete(ctx context.Context, userPrompt string) (*planResponse, error) {
	attempts := g.deps.Attempts
	if attempts <= 0 {
		attempts = defaultModelAttempts
	}
	return model.Do(ctx, g.log, attempts, func(ctx context.Context) (*planResponse, error) {
		resp, err := g.deps.Model.CompleteWithTools(ctx, systemPrompt, userPrompt, planTools())
		if err != nil {
			return nil, err
		}
		g.tokens += resp.Usage.TotalTokens
		return parsePlanResponse(resp)
	})
}

func (g *Generator) styleSample(ctx context.Context) []string {
	if g.deps.Subjects == nil {
		return nil
	}
	subjects, err := g.deps.Subjects(ctx)
	if err != nil {
		g.log.Debug("no commit style sample available", zap.Error(err))
		return nil
	}
	if len(subjects) > recentSubjectCount {
		subjects = subjects[:recentSubjectCount]
	}
	return subjects
}

// catchAll wraps files the model never placed into a single low-confidence
// chore group.
func catchAll(files []string) types.CommitGroup {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)
	return types.CommitGroup{
		ID:          uuid.NewString(),
		Type:        types.TypeChore,
		Message:     "remaining changes",
		Files:       sorted,
		Confidence:  0.3,
		ReleaseHint: types.ReleaseNone,
	}
}

func averageConfidence(groups []rawGroup) float64 {
	if len(groups) == 0 {
		return 0
	}
	var sum float64
	for _, g := range groups {
		sum += g.Confidence
	}
	return sum / float64(len(groups))
}

func subset(profiles []types.FileProfile, files []string) []types.FileProfile {
	want := make(map[string]struct{}, len(files))
	for _, f := range files {
		want[f] = struct{}{}
	}
	var out []types.FileProfile
	for _, p := range profiles {
		if _, ok := want[p.Path]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
