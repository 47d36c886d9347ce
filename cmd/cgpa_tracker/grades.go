package main

import (
	"encoding/json"

	"github.com/jonathan/cgpa-tracker/internal/grading"
	"github.com/jonathan/cgpa-tracker/internal/observability"
	"github.com/spf13/cobra"
)

var gradesJSON bool

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Print the grade table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		entries := grading.StandardTable().Entries()
		if gradesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintGradeTable(entries)
		return nil
	},
}

func init() {
	gradesCmd.Flags().BoolVar(&gradesJSON, "json", false, "Output JSON instead of a table")
	rootCmd.AddCommand(gradesCmd)
}
