package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/grading"
	"github.com/jonathan/cgpa-tracker/internal/logging"
	"github.com/jonathan/cgpa-tracker/internal/observability"
	"github.com/jonathan/cgpa-tracker/internal/schemas"
	"github.com/jonathan/cgpa-tracker/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	computeInputs      []string
	computeOutput      string
	computeSchema      string
	computeJSON        bool
	computeConcurrency int
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute GPA and CGPA for grade-record files offline",
	Long: `Read one or more grade-record JSON files, validate them against the grade-record
schema, and replay their semesters through the calculator in file order.
No database is needed.`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().StringArrayVarP(&computeInputs, "in", "i", nil, "Path to a grade-record JSON file (repeatable)")
	computeCmd.Flags().StringVarP(&computeOutput, "out", "o", "", "Write computed records as JSON to this file")
	computeCmd.Flags().StringVar(&computeSchema, "schema", "", "Validate against this schema file instead of the embedded one")
	computeCmd.Flags().BoolVar(&computeJSON, "json", false, "Print JSON to stdout instead of a summary")
	computeCmd.Flags().IntVar(&computeConcurrency, "concurrency", runtime.NumCPU(), "Maximum files processed at once")

	if err := computeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(computeCmd)
}

// gradeRecordFile is the on-disk input format.
type gradeRecordFile struct {
	UserID    uuid.UUID `json:"user_id"`
	Semesters []struct {
		SemesterNumber int                  `json:"semester_number"`
		Subjects       []types.SubjectInput `json:"subjects"`
	} `json:"semesters"`
}

// computedRecord pairs an input path with its computed record.
type computedRecord struct {
	File   string        `json:"file"`
	Record *types.Record `json:"record"`
}

func runCompute(cmd *cobra.Command, _ []string) error {
	check := embeddedSchema
	if computeSchema != "" {
		path := schemas.ResolveSchemaPath(computeSchema)
		if path == "" {
			return fmt.Errorf("schema file not found: %s", computeSchema)
		}
		check = schemaFile(path)
	}

	calc := grading.NewCalculator(grading.StandardTable())
	var results []computedRecord
	err := logging.TimeFunction(logger, "compute", func() error {
		var err error
		results, err = computeFiles(cmd.Context(), calc, check, computeInputs, computeConcurrency)
		return err
	})
	if err != nil {
		return err
	}

	if computeOutput != "" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		if dir := filepath.Dir(computeOutput); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(computeOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		level.Info(logger).Log("msg", "wrote computed records", "path", computeOutput, "records", len(results))
	}

	if computeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if computeOutput != "" {
		return nil
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	for _, res := range results {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", res.File)
		if appConfig.Verbose {
			for i := range res.Record.Semesters {
				printer.PrintSemester(&res.Record.Semesters[i])
			}
		}
		printer.PrintRecord(res.Record)
	}
	return nil
}

// schemaCheck validates the document read from path.
type schemaCheck func(path string, data []byte) error

func embeddedSchema(_ string, data []byte) error {
	return schemas.ValidateGradeRecord(data)
}

// schemaFile validates input files against the schema at schemaPath.
func schemaFile(schemaPath string) schemaCheck {
	return func(path string, _ []byte) error {
		return schemas.ValidateJSON(schemaPath, path)
	}
}

// computeFiles processes paths concurrently and returns results in input
// order. The first failing file cancels the rest.
func computeFiles(ctx context.Context, calc *grading.Calculator, check schemaCheck, paths []string, limit int) ([]computedRecord, error) {
	results := make([]computedRecord, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			record, err := computeRecord(calc, check, path, data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			level.Debug(logger).Log("msg", "computed record", "file", path,
				"semesters", fmt.Sprint(record.SemesterNumbers()), "cgpa", observability.FormatGPA(record.OverallCGPA))
			results[i] = computedRecord{File: path, Record: record}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// computeRecord validates one document and replays its semesters in order.
// A later entry for the same semester number replaces the earlier one.
func computeRecord(calc *grading.Calculator, check schemaCheck, path string, data []byte) (*types.Record, error) {
	if err := check(path, data); err != nil {
		return nil, err
	}

	var in gradeRecordFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse grade record: %w", err)
	}

	record := calc.NewRecord(in.UserID)
	for i, sem := range in.Semesters {
		next, _, err := calc.UpsertSemester(record, sem.SemesterNumber, sem.Subjects)
		if err != nil {
			return nil, fmt.Errorf("semesters[%d]: %w", i, err)
		}
		record = next
	}
	return record, nil
}
