package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/courseledger-backend/internal/app"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:           "progressctl",
	Short:         "Operate on the course progress ledger",
	Long:          "progressctl runs migrations, repairs stored enrollment progress and inspects derived completion and trends.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver, postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite file (overrides SQLITE_PATH)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(quizCmd)
}

// openApp wires storage and services from the environment, with flag overrides applied.
func openApp(cmd *cobra.Command, migrate bool) (*app.App, error) {
	app.LoadEnv()
	cfg := app.LoadConfig(nil)
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DB.Driver = v
	}
	if v, _ := cmd.Flags().GetString("sqlite-path"); v != "" {
		cfg.DB.SQLitePath = v
	}
	cfg.AutoMigrate = migrate

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.Open(cmd.Context(), log, cfg)
}

func parseID(cmd *cobra.Command, flag string, required bool) (*uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(flag)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return nil, fmt.Errorf("--%s is required", flag)
		}
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return nil, fmt.Errorf("--%s: invalid id %q", flag, raw)
	}
	return &id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
