package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  "Create the users and grade_records tables in DATABASE_URL if they do not exist. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if appConfig.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
		}
		if err := migrate(cmd.Context(), appConfig.DatabaseURL); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
