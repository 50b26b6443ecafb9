package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"levelquiz/internal/app"
	"levelquiz/internal/config"
	"levelquiz/internal/models"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Level quiz operator tool",
		Long:          "Manage the level quiz database. Connection settings come from the same environment as the server (DB_TYPE, DB_PATH, DATABASE_URL, REDIS_URL).",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(migrateCmd(), importQuestionsCmd(), banCmd(), unbanCmd(), exportCmd(), importCmd())
	return root
}

// openApp connects using the environment, honouring --db. Only migrate
// fills an empty question bank with the built-in set.
func openApp(cmd *cobra.Command, seed bool) (*app.App, error) {
	cfg := config.Load()
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DatabaseType = "sqlite"
		cfg.DatabasePath = p
	}
	cfg.SeedQuestions = seed
	return app.New(cmd.Context(), cfg)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed an empty question bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
			return nil
		},
	}
}

func importQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-questions <file.csv>",
		Short: "Add questions from a CSV file",
		Long:  "Columns: level,question,option1,option2,option3,option4,correct where correct is the 1-based option number.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			added, err := a.Admin.ImportQuestionsCSV(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d questions\n", added)
			return nil
		},
	}
}

func banCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ban <user-id>",
		Short: "Stop a user from taking quizzes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := models.ParseUserID(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			reason, _ := cmd.Flags().GetString("reason")

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Admin.Ban(cmd.Context(), userID, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s banned\n", userID)
			return nil
		},
	}
	cmd.Flags().String("reason", "", "Reason recorded with the ban")
	return cmd
}

func unbanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unban <user-id>",
		Short: "Lift a ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := models.ParseUserID(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Admin.Unban(cmd.Context(), userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s unbanned\n", userID)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = fmt.Sprintf("levelquiz_backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Backup.Export(cmd.Context(), output); err != nil {
				return err
			}
			if info, err := os.Stat(output); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s (%.2f KB)\n", output, float64(info.Size())/1024)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default levelquiz_backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load a JSON backup, adding to the existing data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("input file: %w", err)
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.Backup.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d users, %d questions, %d results, %d bans\n",
				summary.Users, summary.Questions, summary.Results, summary.Bans)
			return nil
		},
	}
}
