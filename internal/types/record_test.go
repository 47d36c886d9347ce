package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_PutSemesterOrders(t *testing.T) {
	r := &Record{}
	r.PutSemester(Semester{Number: 3})
	r.PutSemester(Semester{Number: 1})
	r.PutSemester(Semester{Number: 2})

	assert.Equal(t, []int{1, 2, 3}, r.SemesterNumbers())
}

func TestRecord_PutSemesterReplaces(t *testing.T) {
	r := &Record{}
	r.PutSemester(Semester{Number: 1, GPA: 5})
	r.PutSemester(Semester{Number: 2, GPA: 6})
	r.PutSemester(Semester{Number: 1, GPA: 9})

	require.Len(t, r.Semesters, 2)
	s, ok := r.Semester(1)
	require.True(t, ok)
	assert.Equal(t, 9.0, s.GPA)
}

func TestRecord_RemoveSemester(t *testing.T) {
	r := &Record{Semesters: []Semester{{Number: 1}, {Number: 2}, {Number: 2}, {Number: 4}}}

	assert.True(t, r.RemoveSemester(2))
	assert.Equal(t, []int{1, 4}, r.SemesterNumbers())
	assert.False(t, r.RemoveSemester(7))
	assert.Equal(t, []int{1, 4}, r.SemesterNumbers())
}

func TestRecord_SemesterMissing(t *testing.T) {
	r := &Record{Semesters: []Semester{{Number: 1}}}
	_, ok := r.Semester(2)
	assert.False(t, ok)
}

func TestRecord_SortSemesters(t *testing.T) {
	r := &Record{Semesters: []Semester{{Number: 4}, {Number: 1}, {Number: 3}}}
	r.SortSemesters()
	assert.Equal(t, []int{1, 3, 4}, r.SemesterNumbers())
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := &Record{
		UserID: uuid.New(),
		Semesters: []Semester{
			{Number: 1, Subjects: []Subject{{Name: "Math", Credits: 4, Grade: "A", GradePoint: 8}}},
		},
	}

	c := r.Clone()
	c.Semesters[0].Subjects[0].Name = "Changed"
	c.PutSemester(Semester{Number: 2})

	assert.Equal(t, "Math", r.Semesters[0].Subjects[0].Name)
	assert.Len(t, r.Semesters, 1)
	assert.Equal(t, r.UserID, c.UserID)

	var nilRecord *Record
	assert.Nil(t, nilRecord.Clone())
}
