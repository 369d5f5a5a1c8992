package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartcommit/internal/apply"
)

var (
	pushRemote string
	pushForce  bool
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push applied commits to the remote",
	Long: `Fetches the remote, counts commits the current branch is ahead, and
pushes them. Being even with the remote is a successful no-op. A forced push
to a protected branch (main, master, release/*, production, plus any
configured names) is refused before any network call.`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().StringVar(&pushRemote, "remote", "", "remote name (default from config)")
	pushCmd.Flags().BoolVar(&pushForce, "force", false, "force push")
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := newBundle()
	if err != nil {
		return err
	}

	remote := pushRemote
	if remote == "" {
		remote = cfg.Apply.Remote
	}

	pusher := apply.NewPusher(b.root, logger)
	result, err := pusher.Push(ctx, apply.PushOptions{
		Remote:    remote,
		Force:     pushForce,
		Protected: cfg.Apply.ProtectedBranches,
	})
	if err != nil {
		return err
	}

	if result.Skipped {
		fmt.Printf("%s is even with %s, nothing to push.\n", result.Branch, result.Remote)
		return nil
	}
	fmt.Printf("Pushed %d commit(s) to %s/%s.\n", result.Pushed, result.Remote, result.Branch)
	return nil
}
