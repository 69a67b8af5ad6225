package main

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Print a student's completion snapshot for a course",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := parseID(cmd, "student", true)
		if err != nil {
			return err
		}
		courseID, err := parseID(cmd, "course", true)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.Services.Aggregator.CourseCompletion(cmd.Context(), *studentID, *courseID)
		if err != nil {
			return err
		}
		return printJSON(cmd, snap)
	},
}

func init() {
	completionCmd.Flags().String("student", "", "Student id")
	completionCmd.Flags().String("course", "", "Course id")
}
