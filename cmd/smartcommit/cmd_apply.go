package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartcommit/internal/apply"
)

var forceApply bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the saved commit plan as real commits",
	Long: `Commits each group of the saved plan in order. Every group's files must
still have pending changes; a group that went clean since generation aborts
the run at that group. Commits already made are kept. The plan is archived
to history with the result.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&forceApply, "force", false,
		"skip the per-group staleness check")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := newBundle()
	if err != nil {
		return err
	}

	plan, err := b.store.Load(scopeSpec)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("no saved plan for this scope, run 'smartcommit generate' first")
	}

	result, applyErr := b.applier().Apply(ctx, plan, apply.Options{Force: forceApply})

	// The plan is consumed either way; partial results are part of history.
	if _, err := b.store.Archive(scopeSpec, plan, result); err != nil {
		return err
	}

	for _, c := range result.Applied {
		fmt.Printf("  %s  %s\n", c.Hash[:min(12, len(c.Hash))], c.Header)
	}
	if !result.Success {
		fmt.Printf("\nApplied %d of %d commit(s) before stopping.\n",
			len(result.Applied), len(result.Applied)+1+len(result.Remaining))
		return applyErr
	}
	fmt.Printf("\nApplied %d commit(s).\n", len(result.Applied))
	return nil
}
