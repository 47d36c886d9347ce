package grading

import (
	"sort"

	"github.com/jonathan/cgpa-tracker/internal/types"
)

// NoCreditGrade is the label for a completed course that carries no credit.
const NoCreditGrade = "SC"

// FailGrade is the failing label. It is countable with zero points.
const FailGrade = "U"

// GradePoint is the numeric value of a grade label.
type GradePoint struct {
	Label     string
	Points    float64
	Countable bool
}

// Table maps grade labels to grade points. It is immutable once built.
type Table struct {
	points map[string]GradePoint
}

// NewTable builds a table from the given entries. Later duplicates win.
func NewTable(entries ...GradePoint) *Table {
	points := make(map[string]GradePoint, len(entries))
	for _, e := range entries {
		points[e.Label] = e
	}
	return &Table{points: points}
}

// StandardTable returns the ten-point table: O=10, A+=9, A=8, B+=7, B=6,
// C=5, U=0 and the no-credit marker SC=0.
func StandardTable() *Table {
	return NewTable(
		GradePoint{Label: "O", Points: 10, Countable: true},
		GradePoint{Label: "A+", Points: 9, Countable: true},
		GradePoint{Label: "A", Points: 8, Countable: true},
		GradePoint{Label: "B+", Points: 7, Countable: true},
		GradePoint{Label: "B", Points: 6, Countable: true},
		GradePoint{Label: "C", Points: 5, Countable: true},
		GradePoint{Label: FailGrade, Points: 0, Countable: true},
		GradePoint{Label: NoCreditGrade, Points: 0, Countable: false},
	)
}

// Lookup returns the grade point for label and whether the label exists.
// A zero-point grade is a present entry.
func (t *Table) Lookup(label string) (GradePoint, bool) {
	gp, ok := t.points[label]
	return gp, ok
}

// IsNoCredit reports whether label is present and excluded from weighting.
func (t *Table) IsNoCredit(label string) bool {
	gp, ok := t.points[label]
	return ok && !gp.Countable
}

// Labels returns all labels, highest points first.
func (t *Table) Labels() []string {
	labels := make([]string, 0, len(t.points))
	for l := range t.points {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := t.points[labels[i]], t.points[labels[j]]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Countable != b.Countable {
			return a.Countable
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Entries returns the table in Labels order for API responses.
func (t *Table) Entries() []types.GradeEntry {
	labels := t.Labels()
	entries := make([]types.GradeEntry, len(labels))
	for i, l := range labels {
		gp := t.points[l]
		entries[i] = types.GradeEntry{Grade: gp.Label, Points: gp.Points, Countable: gp.Countable}
	}
	return entries
}
