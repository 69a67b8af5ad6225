package main

import (
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Recompute stored progress for every approved enrollment",
	RunE: func(cmd *cobra.Command, args []string) error {
		courseID, err := parseID(cmd, "course", false)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Services.Aggregator.Backfill(cmd.Context(), courseID, dryRun)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	backfillCmd.Flags().String("course", "", "Only enrollments of this course")
	backfillCmd.Flags().Bool("dry-run", false, "Report changes without writing them")
}
