package types

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SubjectInput is a subject as submitted by a client, before validation.
// Credits is a pointer so that a missing value can be told apart from zero.
type SubjectInput struct {
	Name    string   `json:"name" validate:"max=200"`
	Credits *float64 `json:"credits"`
	Grade   string   `json:"grade" validate:"max=8"`
}

// Subject is a validated, normalized course entry within a semester.
// GradePoint is always derived from the grade table.
type Subject struct {
	Name       string  `json:"name"`
	Credits    int     `json:"credits"`
	Grade      string  `json:"grade"`
	GradePoint float64 `json:"grade_point"`
}

// Semester holds the subjects of one semester and the figures derived from them.
type Semester struct {
	Number       int       `json:"semester_number"`
	Subjects     []Subject `json:"subjects"`
	GPA          float64   `json:"gpa"`
	TotalCredits int       `json:"total_credits"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// Record is the per-user aggregate of all semesters.
//
// Semesters are kept in ascending order of Number. Use PutSemester and
// RemoveSemester to mutate them; both preserve the ordering.
type Record struct {
	UserID       uuid.UUID  `json:"user_id"`
	Semesters    []Semester `json:"semesters"`
	OverallCGPA  float64    `json:"overall_cgpa"`
	TotalCredits int        `json:"total_credits"`
	LastUpdated  time.Time  `json:"last_updated"`
	Version      int64      `json:"version"`
}

func compareSemester(s Semester, number int) int {
	return s.Number - number
}

// Semester returns the semester with the given number, if present.
func (r *Record) Semester(number int) (*Semester, bool) {
	i, found := slices.BinarySearchFunc(r.Semesters, number, compareSemester)
	if !found {
		return nil, false
	}
	return &r.Semesters[i], true
}

// PutSemester replaces the semester with the same number or inserts it at
// its ordered position.
func (r *Record) PutSemester(s Semester) {
	i, found := slices.BinarySearchFunc(r.Semesters, s.Number, compareSemester)
	if found {
		r.Semesters[i] = s
		return
	}
	r.Semesters = slices.Insert(r.Semesters, i, s)
}

// RemoveSemester deletes every semester with the given number and reports
// whether anything was removed.
func (r *Record) RemoveSemester(number int) bool {
	before := len(r.Semesters)
	r.Semesters = slices.DeleteFunc(r.Semesters, func(s Semester) bool {
		return s.Number == number
	})
	return len(r.Semesters) != before
}

// SortSemesters restores ascending order, e.g. after decoding stored data.
func (r *Record) SortSemesters() {
	slices.SortStableFunc(r.Semesters, func(a, b Semester) int {
		return a.Number - b.Number
	})
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Semesters = make([]Semester, len(r.Semesters))
	for i, s := range r.Semesters {
		s.Subjects = slices.Clone(s.Subjects)
		c.Semesters[i] = s
	}
	return &c
}

// SemesterNumbers lists the semester numbers in record order.
func (r *Record) SemesterNumbers() []int {
	numbers := make([]int, len(r.Semesters))
	for i, s := range r.Semesters {
		numbers[i] = s.Number
	}
	return numbers
}

// UpsertSemesterRequest is the body of a create-or-replace semester request.
// Only size limits are enforced by tags; domain rules are applied by the
// grading calculator so that its reasons reach the client unchanged.
type UpsertSemesterRequest struct {
	SemesterNumber int            `json:"semester_number"`
	Subjects       []SubjectInput `json:"subjects" validate:"max=64,dive"`
}

// UpdateSemesterRequest is the body of an update request; the semester
// number comes from the path.
type UpdateSemesterRequest struct {
	Subjects []SubjectInput `json:"subjects" validate:"max=64,dive"`
}

// SemesterResult is returned by semester create and update operations.
type SemesterResult struct {
	SemesterGPA float64 `json:"semester_gpa"`
	OverallCGPA float64 `json:"overall_cgpa"`
	Record      *Record `json:"record"`
}

// DeleteResult is returned by semester deletion.
type DeleteResult struct {
	OverallCGPA float64 `json:"overall_cgpa"`
	Record      *Record `json:"record"`
}

// GradeEntry describes one row of the grade table for API responses.
type GradeEntry struct {
	Grade     string  `json:"grade"`
	Points    float64 `json:"points"`
	Countable bool    `json:"countable"`
}
