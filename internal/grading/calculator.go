package grading

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/types"
)

// Calculator validates subjects and maintains the derived figures of a
// record. It holds no mutable state and performs no locking; callers must
// give it exclusive access to the record they pass in.
type Calculator struct {
	table *Table
	now   func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source used for CalculatedAt and LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator returns a Calculator over the given table.
func NewCalculator(table *Table, opts ...Option) *Calculator {
	c := &Calculator{
		table: table,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the grade table the calculator was built with.
func (c *Calculator) Table() *Table {
	return c.table
}

// NewRecord returns an empty record owned by userID.
func (c *Calculator) NewRecord(userID uuid.UUID) *types.Record {
	return &types.Record{
		UserID:      userID,
		Semesters:   []types.Semester{},
		LastUpdated: c.now().UTC(),
	}
}

// UpsertSemester returns a copy of record in which the semester numbered
// number holds the given subjects. All inputs are validated before any
// change is made; on error the returned record is nil and record is
// untouched.
func (c *Calculator) UpsertSemester(record *types.Record, number int, inputs []types.SubjectInput) (*types.Record, *types.Semester, error) {
	if number < 1 {
		return nil, nil, invalid(ReasonInvalidSemesterNumber)
	}
	if len(inputs) == 0 {
		return nil, nil, invalid(ReasonNoSubjects)
	}
	for _, in := range inputs {
		if err := c.ValidateSubject(in); err != nil {
			return nil, nil, err
		}
	}

	semester := c.buildSemester(number, inputs)
	next := cloneOrEmpty(record)
	next.PutSemester(*semester)
	c.recompute(next)
	return next, semester, nil
}

// buildSemester normalizes inputs and computes the semester figures. The
// number and inputs must already be validated.
func (c *Calculator) buildSemester(number int, inputs []types.SubjectInput) *types.Semester {
	subjects := make([]types.Subject, len(inputs))
	for i, in := range inputs {
		subjects[i] = c.NormalizeSubject(in)
	}
	return &types.Semester{
		Number:       number,
		Subjects:     subjects,
		GPA:          c.SemesterGPA(subjects),
		TotalCredits: c.SemesterCredits(subjects),
		CalculatedAt: c.now().UTC(),
	}
}

// DeleteSemester returns a copy of record without any semester numbered
// number. Deleting an absent semester is not an error.
func (c *Calculator) DeleteSemester(record *types.Record, number int) *types.Record {
	next := cloneOrEmpty(record)
	next.RemoveSemester(number)
	c.recompute(next)
	return next
}

func (c *Calculator) recompute(r *types.Record) {
	Recompute(r)
	r.LastUpdated = c.now().UTC()
}

func cloneOrEmpty(r *types.Record) *types.Record {
	if r == nil {
		return &types.Record{Semesters: []types.Semester{}}
	}
	return r.Clone()
}
