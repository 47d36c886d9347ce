// Package observability provides formatted output for the CLI and the
// display fields of API responses.
package observability

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jonathan/cgpa-tracker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxSubjectsToShow caps the subject list of a semester box
	maxSubjectsToShow = 12
)

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatGPA renders a GPA with exactly two decimals.
func FormatGPA(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRecord outputs one line per semester followed by the overall figures.
func (p *Printer) PrintRecord(record *types.Record) {
	if record == nil {
		return
	}

	var sb strings.Builder
	if len(record.Semesters) == 0 {
		sb.WriteString("No semesters recorded.\n")
	} else {
		sb.WriteString(fmt.Sprintf("%-10s %8s %8s %9s\n", "Semester", "Subjects", "Credits", "GPA"))
		for _, sem := range record.Semesters {
			sb.WriteString(fmt.Sprintf("%-10d %8d %8d %9s\n",
				sem.Number, len(sem.Subjects), sem.TotalCredits, FormatGPA(sem.GPA)))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Overall CGPA:  %s\n", FormatGPA(record.OverallCGPA)))
	sb.WriteString(fmt.Sprintf("Total credits: %d", record.TotalCredits))

	p.printBox("GRADE RECORD", sb.String())
}

// PrintSemester outputs the subjects of one semester and its GPA.
func (p *Printer) PrintSemester(sem *types.Semester) {
	if sem == nil {
		return
	}

	var sb strings.Builder
	count := min(len(sem.Subjects), maxSubjectsToShow)
	for i := 0; i < count; i++ {
		sub := sem.Subjects[i]
		name := sub.Name
		if r := []rune(name); len(r) > 30 {
			name = string(r[:27]) + "..."
		}
		sb.WriteString(fmt.Sprintf("%-30s %3d  %-3s %5.1f\n", name, sub.Credits, sub.Grade, sub.GradePoint))
	}
	if len(sem.Subjects) > maxSubjectsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(sem.Subjects)-maxSubjectsToShow))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("GPA: %s over %d credits", FormatGPA(sem.GPA), sem.TotalCredits))

	p.printBox(fmt.Sprintf("SEMESTER %d", sem.Number), sb.String())
}

// PrintGradeTable outputs the grade labels with their points.
func (p *Printer) PrintGradeTable(entries []types.GradeEntry) {
	var sb strings.Builder
	for i, e := range entries {
		note := ""
		if !e.Countable {
			note = "  (no credit)"
		}
		sb.WriteString(fmt.Sprintf("%-4s %5.1f%s", e.Grade, e.Points, note))
		if i < len(entries)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("GRADE TABLE", sb.String())
}
