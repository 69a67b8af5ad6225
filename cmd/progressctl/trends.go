package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/courseledger-backend/internal/learning/timebucket"
	"github.com/yungbote/courseledger-backend/internal/services"
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Print a student's weekly or monthly performance trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := parseID(cmd, "student", true)
		if err != nil {
			return err
		}
		rawGranularity, _ := cmd.Flags().GetString("granularity")
		granularity, err := timebucket.ParseGranularity(rawGranularity)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		series, err := a.Services.Metrics.StudentTrends(cmd.Context(), services.TrendsInput{
			StudentID:   *studentID,
			Granularity: granularity,
			Subject:     subject,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, series)
	},
}

func init() {
	trendsCmd.Flags().String("student", "", "Student id")
	trendsCmd.Flags().String("granularity", "week", "week or month")
	trendsCmd.Flags().String("subject", "", "Only this course subject")
}
