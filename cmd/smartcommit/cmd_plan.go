package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect and manage saved plans",
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved plan for the current scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBundle()
		if err != nil {
			return err
		}
		plan, err := b.store.Load(scopeSpec)
		if err != nil {
			return err
		}
		if plan == nil {
			fmt.Println("No saved plan for this scope.")
			return nil
		}
		printPlan(plan)
		return nil
	},
}

var planClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved plan without applying it",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBundle()
		if err != nil {
			return err
		}
		return b.store.Clear(scopeSpec)
	},
}

var planHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List applied plans for the current scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBundle()
		if err != nil {
			return err
		}
		entries, err := b.store.ListHistory(scopeSpec)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No history for this scope.")
			return nil
		}
		for _, e := range entries {
			plan, result, err := b.store.LoadArchived(e)
			if err != nil {
				fmt.Printf("  %s  (unreadable: %v)\n", e.ID, err)
				continue
			}
			status := "applied"
			if !result.Success {
				status = fmt.Sprintf("stopped after %d", len(result.Applied))
			}
			fmt.Printf("  %s  %d commit(s)  %s\n", e.Timestamp.Format("2006-01-02 15:04"), len(plan.Commits), status)
		}
		return nil
	},
}

func init() {
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planClearCmd)
	planCmd.AddCommand(planHistoryCmd)
}
