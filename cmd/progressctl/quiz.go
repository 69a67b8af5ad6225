package main

import (
	"github.com/spf13/cobra"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Print a quiz with its decoded questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, err := parseID(cmd, "quiz", true)
		if err != nil {
			return err
		}

		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.Services.Catalog.GetQuiz(cmd.Context(), *quizID)
		if err != nil {
			return err
		}
		return printJSON(cmd, detail)
	},
}

func init() {
	quizCmd.Flags().String("quiz", "", "Quiz id")
}
