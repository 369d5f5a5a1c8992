package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scerrors "smartcommit/internal/errors"
	"smartcommit/internal/planner"
	"smartcommit/internal/secrets"
	"smartcommit/internal/types"
)

var (
	bypassSecrets bool
	assumeYes     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Scan uncommitted changes and generate a commit plan",
	Long: `Scans the scoped working tree, profiles every changed file, and groups
the changes into conventional commits. With a configured model provider the
grouping is model-assisted with diff escalation for ambiguous change sets;
without one a deterministic heuristic planner runs. The plan is saved under
.smartcommit/plans/ for inspection and apply.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&bypassSecrets, "bypass-secrets", false,
		"continue despite detected secrets (requires confirmation)")
	generateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false,
		"answer confirmation prompts with yes")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := newBundle()
	if err != nil {
		return err
	}

	gen, err := b.generator(ctx)
	if err != nil {
		return err
	}
	plan, err := gen.Generate(ctx, planner.Options{
		Scope: scopeSpec,
		Bypass: secrets.BypassOptions{
			Bypass:      bypassSecrets,
			AutoConfirm: assumeYes || cfg.Secrets.AutoConfirmBypass,
			Confirm:     b.confirmer(false),
		},
	})
	if err != nil {
		var sd *scerrors.SecretsDetectedError
		if scerrors.As(err, &sd) {
			printSecretMatches(sd.Matches)
		}
		return err
	}

	if err := b.store.Save(scopeSpec, plan); err != nil {
		return err
	}
	printPlan(plan)
	return nil
}

func printPlan(plan *types.CommitPlan) {
	fmt.Printf("Plan: %d commit(s), generated by %s\n\n", len(plan.Commits), plan.Metadata.Generator)
	for i, g := range plan.Commits {
		fmt.Printf("  %d. %s\n", i+1, g.Header())
		for _, f := range g.Files {
			fmt.Printf("       %s\n", f)
		}
		if g.ReleaseHint != types.ReleaseNone {
			fmt.Printf("       release: %s\n", g.ReleaseHint)
		}
	}
	fmt.Printf("\nRun 'smartcommit apply' to create these commits.\n")
}

func printSecretMatches(matches []types.SecretMatch) {
	fmt.Fprintln(os.Stderr, "Potential secrets detected:")
	for _, m := range matches {
		fmt.Fprintf(os.Stderr, "  %s:%d:%d  %s  %s\n", m.File, m.Line, m.Column, m.PatternName, m.Snippet)
	}
	fmt.Fprintln(os.Stderr, "\nUse --bypass-secrets to override after review.")
}
