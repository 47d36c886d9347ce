package grading

import "github.com/jonathan/cgpa-tracker/internal/types"

// countable reports whether a subject takes part in weighted averages.
func (c *Calculator) countable(s types.Subject) bool {
	return !c.table.IsNoCredit(s.Grade)
}

// SemesterCredits sums the credits of countable subjects.
func (c *Calculator) SemesterCredits(subjects []types.Subject) int {
	total := 0
	for _, s := range subjects {
		if c.countable(s) {
			total += s.Credits
		}
	}
	return total
}

// SemesterGPA is the credit-weighted mean grade point of the countable
// subjects, or 0 when they carry no credits. The result is not rounded.
func (c *Calculator) SemesterGPA(subjects []types.Subject) float64 {
	var weighted float64
	credits := 0
	for _, s := range subjects {
		if !c.countable(s) {
			continue
		}
		weighted += float64(s.Credits) * s.GradePoint
		credits += s.Credits
	}
	if credits <= 0 {
		return 0
	}
	return weighted / float64(credits)
}

// OverallCGPA weights each semester GPA by its credits. Semesters with no
// GPA or no credits do not contribute.
func OverallCGPA(semesters []types.Semester) float64 {
	var weighted float64
	credits := 0
	for _, s := range semesters {
		if s.GPA <= 0 || s.TotalCredits <= 0 {
			continue
		}
		weighted += s.GPA * float64(s.TotalCredits)
		credits += s.TotalCredits
	}
	if credits == 0 {
		return 0
	}
	return weighted / float64(credits)
}

// OverallCredits sums the credits of every semester, contributing to the
// CGPA or not.
func OverallCredits(semesters []types.Semester) int {
	total := 0
	for _, s := range semesters {
		total += s.TotalCredits
	}
	return total
}

// Recompute refreshes the overall figures of r from its semesters.
func Recompute(r *types.Record) {
	r.OverallCGPA = OverallCGPA(r.Semesters)
	r.TotalCredits = OverallCredits(r.Semesters)
}
