package db

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSemesters_NilBecomesEmptyArray(t *testing.T) {
	data, err := encodeSemesters(&types.Record{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestEncodeDecodeSemesters_RoundTripKeepsOrder(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &types.Record{
		UserID: uuid.New(),
		Semesters: []types.Semester{
			{Number: 1, GPA: 8, TotalCredits: 4, CalculatedAt: at, Subjects: []types.Subject{
				{Name: "Math", Credits: 4, Grade: "A", GradePoint: 8},
			}},
			{Number: 2, GPA: 6, TotalCredits: 3, CalculatedAt: at},
		},
	}

	data, err := encodeSemesters(record)
	require.NoError(t, err)

	var decoded types.Record
	require.NoError(t, decodeSemesters(data, &decoded))
	assert.Equal(t, []int{1, 2}, decoded.SemesterNumbers())
	assert.Equal(t, "Math", decoded.Semesters[0].Subjects[0].Name)
	assert.True(t, at.Equal(decoded.Semesters[0].CalculatedAt))
}

func TestDecodeSemesters_SortsStoredData(t *testing.T) {
	var record types.Record
	err := decodeSemesters([]byte(`[{"semester_number":3},{"semester_number":1}]`), &record)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, record.SemesterNumbers())
}

func TestDecodeSemesters_EmptyAndNull(t *testing.T) {
	for _, input := range []string{"", "null", "[]"} {
		var record types.Record
		require.NoError(t, decodeSemesters([]byte(input), &record))
		assert.NotNil(t, record.Semesters, "input %q", input)
		assert.Empty(t, record.Semesters)
	}
}

func TestDecodeSemesters_Invalid(t *testing.T) {
	var record types.Record
	err := decodeSemesters([]byte(`{"not":"an array"}`), &record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal semesters")
}

func TestSchema_DeclaresOneRecordPerUser(t *testing.T) {
	schema := Schema()
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS grade_records")
	assert.True(t, strings.Contains(schema, "user_id       UUID PRIMARY KEY"), "grade_records must be keyed by user")
	assert.Contains(t, schema, "version")
}
