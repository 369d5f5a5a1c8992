package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitGroupHeader(t *testing.T) {
	cases := []struct {
		name  string
		group CommitGroup
		want  string
	}{
		{"with scope", CommitGroup{Type: TypeFeat, Scope: "api", Message: "add pagination"}, "feat(api): add pagination"},
		{"no scope", CommitGroup{Type: TypeChore, Message: "update dependencies"}, "chore: update dependencies"},
		{"breaking with scope", CommitGroup{Type: TypeRefactor, Scope: "core", Message: "drop v1 codec", Breaking: true}, "refactor(core)!: drop v1 codec"},
		{"breaking no scope", CommitGroup{Type: TypeFeat, Message: "new engine", Breaking: true}, "feat!: new engine"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.group.Header())
		})
	}
}

func TestChangeSetAllFiles(t *testing.T) {
	cs := ChangeSet{
		Staged:    []string{"b.go", "a.go"},
		Unstaged:  []string{"a.go", "c.go"},
		Untracked: []string{"d.txt"},
	}
	assert.Equal(t, []string{"a.go", "b.go", "c.go", "d.txt"}, cs.AllFiles())
	assert.False(t, cs.IsEmpty())
	assert.True(t, (&ChangeSet{}).IsEmpty())
}

func TestValidConventionalType(t *testing.T) {
	for _, ct := range []ConventionalType{TypeFeat, TypeFix, TypeDocs, TypeRefactor, TypeTest, TypeChore, TypePerf, TypeCI, TypeBuild} {
		assert.True(t, ValidConventionalType(ct), string(ct))
	}
	assert.False(t, ValidConventionalType("feature"))
	assert.False(t, ValidConventionalType(""))
}

func TestStripReasoning(t *testing.T) {
	p := CommitPlan{Commits: []CommitGroup{
		{ID: "1", Reasoning: &GroupReasoning{Summary: "x"}},
		{ID: "2"},
	}}
	p.StripReasoning()
	assert.Nil(t, p.Commits[0].Reasoning)
	assert.Nil(t, p.Commits[1].Reasoning)
}
