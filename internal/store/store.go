// Package store persists the current commit plan and a status snapshot at a
// scope-namespaced path under the workspace, and archives applied plans into
// timestamped history directories. The current plan is mutable until applied
// or reset; an archived plan is immutable.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartcommit/internal/config"
	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/types"
)

const (
	planFile   = "plan.json"
	statusFile = "status.json"
	resultFile = "result.json"
	historyDir = "history"
)

// Store reads and writes plans for one workspace.
type Store struct {
	workspace string
	log       *zap.Logger
}

// NewStore creates a Store rooted at the workspace.
func NewStore(workspace string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{workspace: workspace, log: log}
}

// scopeSlug maps a scope specifier to a filesystem-safe namespace. The empty
// scope namespaces under "root".
func scopeSlug(scope string) string {
	if scope == "" || scope == "." {
		return "root"
	}
	r := strings.NewReplacer("/", "_", "\\", "_", "*", "_", "?", "_", "[", "_", "]", "_", " ", "_")
	return r.Replace(scope)
}

func (s *Store) scopeDir(scope string) string {
	return filepath.Join(s.workspace, config.ConfigDir, "plans", scopeSlug(scope))
}

// Save persists the plan and its status snapshot for the scope. Advisory
// reasoning is stripped before anything reaches disk.
func (s *Store) Save(scope string, plan *types.CommitPlan) error {
	plan.StripReasoning()

	dir := s.scopeDir(scope)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scerrors.Wrap(err, "create plan directory")
	}
	if err := writeJSON(filepath.Join(dir, planFile), plan); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, statusFile), plan.GitStatus); err != nil {
		return err
	}
	s.log.Debug("plan saved",
		zap.String("scope", scope),
		zap.Int("commits", len(plan.Commits)))
	return nil
}

// Load reads the current plan for the scope. A missing plan returns
// (nil, nil). A plan written by a newer schema is refused.
func (s *Store) Load(scope string) (*types.CommitPlan, error) {
	data, err := os.ReadFile(filepath.Join(s.scopeDir(scope), planFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scerrors.Wrap(err, "read plan")
	}
	var plan types.CommitPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, scerrors.Wrap(err, "parse plan")
	}
	if plan.SchemaVersion > types.PlanSchemaVersion {
		return nil, scerrors.Errorf("plan schema version %d is newer than supported %d",
			plan.SchemaVersion, types.PlanSchemaVersion)
	}
	return &plan, nil
}

// LoadStatus reads the status snapshot captured alongside the plan. It is
// for display and staleness comparison only; the applier's live check is
// authoritative.
func (s *Store) LoadStatus(scope string) (*types.ChangeSet, error) {
	data, err := os.ReadFile(filepath.Join(s.scopeDir(scope), statusFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scerrors.Wrap(err, "read status snapshot")
	}
	var cs types.ChangeSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, scerrors.Wrap(err, "parse status snapshot")
	}
	return &cs, nil
}

// Clear removes the current plan and status snapshot, leaving history
// untouched.
func (s *Store) Clear(scope string) error {
	dir := s.scopeDir(scope)
	for _, f := range []string{planFile, statusFile} {
		if err := os.Remove(filepath.Join(dir, f)); err != nil && !os.IsNotExist(err) {
			return scerrors.Wrapf(err, "remove %s", f)
		}
	}
	return nil
}

// HistoryEntry identifies one archived plan.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Dir       string    `json:"dir"`
}

// Archive moves the current plan into a timestamped history directory along
// with the apply result, then clears the current plan.
func (s *Store) Archive(scope string, plan *types.CommitPlan, result *types.ApplyResult) (HistoryEntry, error) {
	now := time.Now().UTC()
	id := now.Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
	dir := filepath.Join(s.scopeDir(scope), historyDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return HistoryEntry{}, scerrors.Wrap(err, "create history directory")
	}

	plan.StripReasoning()
	if err := writeJSON(filepath.Join(dir, planFile), plan); err != nil {
		return HistoryEntry{}, err
	}
	if err := writeJSON(filepath.Join(dir, resultFile), result); err != nil {
		return HistoryEntry{}, err
	}
	if err := s.Clear(scope); err != nil {
		return HistoryEntry{}, err
	}

	entry := HistoryEntry{ID: id, Timestamp: now, Dir: dir}
	s.log.Debug("plan archived", zap.String("scope", scope), zap.String("id", id))
	return entry, nil
}

// ListHistory returns archived entries for the scope, newest first.
func (s *Store) ListHistory(scope string) ([]HistoryEntry, error) {
	root := filepath.Join(s.scopeDir(scope), historyDir)
	dirents, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scerrors.Wrap(err, "read history")
	}

	var entries []HistoryEntry
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		name := d.Name()
		tsPart, _, _ := strings.Cut(name, "-")
		ts, err := time.Parse("20060102T150405Z", tsPart)
		if err != nil {
			continue
		}
		entries = append(entries, HistoryEntry{
			ID:        name,
			Timestamp: ts,
			Dir:       filepath.Join(root, name),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

// LoadArchived reads a plan back out of a history entry.
func (s *Store) LoadArchived(entry HistoryEntry) (*types.CommitPlan, *types.ApplyResult, error) {
	var plan types.CommitPlan
	data, err := os.ReadFile(filepath.Join(entry.Dir, planFile))
	if err != nil {
		return nil, nil, scerrors.Wrap(err, "read archived plan")
	}
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, nil, scerrors.Wrap(err, "parse archived plan")
	}

	var result types.ApplyResult
	data, err = os.ReadFile(filepath.Join(entry.Dir, resultFile))
	if err == nil {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, nil, scerrors.Wrap(err, "parse archived result")
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, scerrors.Wrap(err, "read archived result")
	}
	return &plan, &result, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return scerrors.Wrap(err, "encode json")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return scerrors.Wrapf(err, "write %s", filepath.Base(path))
	}
	return nil
}
