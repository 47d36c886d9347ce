package grading

import (
	"math"
	"strings"

	"github.com/jonathan/cgpa-tracker/internal/types"
)

// MaxCredits is the largest credit value accepted for one subject.
const MaxCredits = 1000

// ValidateSubject checks a submitted subject against the grade table.
// It does not modify its input.
func (c *Calculator) ValidateSubject(in types.SubjectInput) error {
	name := strings.TrimSpace(in.Name)
	grade := strings.TrimSpace(in.Grade)
	if name == "" || grade == "" {
		return invalid(ReasonMissingNameOrGrade)
	}

	gp, ok := c.table.Lookup(grade)
	if !ok {
		return invalid(ReasonInvalidGrade)
	}
	if !gp.Countable {
		return nil
	}

	if in.Credits == nil {
		return invalid(ReasonInvalidCredits)
	}
	// Fractional credits are truncated on normalization, so anything below
	// one would be stored as zero.
	credits := *in.Credits
	if math.IsNaN(credits) || credits < 1 || credits > MaxCredits {
		return invalid(ReasonInvalidCredits)
	}
	return nil
}

// NormalizeSubject turns a validated input into a stored subject. The grade
// point always comes from the table, credits are truncated to an integer and
// no-credit grades carry 0 credits.
func (c *Calculator) NormalizeSubject(in types.SubjectInput) types.Subject {
	grade := strings.TrimSpace(in.Grade)
	gp, _ := c.table.Lookup(grade)

	credits := 0
	if gp.Countable && in.Credits != nil {
		credits = int(*in.Credits)
	}

	return types.Subject{
		Name:       strings.TrimSpace(in.Name),
		Credits:    credits,
		Grade:      grade,
		GradePoint: gp.Points,
	}
}
