package server

import (
	"context"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/grading"
	"github.com/jonathan/cgpa-tracker/internal/types"
)

// RecordStore loads and saves grade records. SaveRecord must reject a
// record whose Version no longer matches the stored one.
type RecordStore interface {
	FindRecord(ctx context.Context, userID uuid.UUID) (*types.Record, error)
	SaveRecord(ctx context.Context, record *types.Record) (*types.Record, error)
}

// RecordService applies semester changes to a user's record and persists
// the result. Every mutation is a read, a pure recalculation and a single
// versioned write, so a failed step leaves the stored record unchanged.
type RecordService struct {
	store  RecordStore
	calc   *grading.Calculator
	logger log.Logger
}

// NewRecordService creates a RecordService.
func NewRecordService(store RecordStore, calc *grading.Calculator, logger log.Logger) *RecordService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &RecordService{store: store, calc: calc, logger: logger}
}

// GetRecord returns the user's record, creating and saving an empty one
// on first access.
func (s *RecordService) GetRecord(ctx context.Context, userID uuid.UUID) (*types.Record, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Version > 0 {
		return record, nil
	}
	return s.save(ctx, record)
}

// UpsertSemester creates or replaces a semester and recomputes the overall CGPA.
func (s *RecordService) UpsertSemester(ctx context.Context, userID uuid.UUID, number int, subjects []types.SubjectInput) (*types.SemesterResult, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.applySemester(ctx, record, number, subjects)
}

// UpdateSemester replaces an existing semester. It fails with a
// NotFoundError when the semester has not been recorded.
func (s *RecordService) UpdateSemester(ctx context.Context, userID uuid.UUID, number int, subjects []types.SubjectInput) (*types.SemesterResult, error) {
	if number < 1 {
		return nil, &grading.ValidationError{Reason: grading.ReasonInvalidSemesterNumber}
	}
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := record.Semester(number); !ok {
		return nil, semesterNotFound(number)
	}
	return s.applySemester(ctx, record, number, subjects)
}

// DeleteSemester removes a semester. Deleting an absent semester is not an
// error; the record is still recomputed and saved.
func (s *RecordService) DeleteSemester(ctx context.Context, userID uuid.UUID, number int) (*types.DeleteResult, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, ok := record.Semester(number); !ok {
		level.Debug(s.logger).Log("msg", "delete of absent semester", "user", userID, "semester", number)
	}

	saved, err := s.save(ctx, s.calc.DeleteSemester(record, number))
	if err != nil {
		return nil, err
	}
	return &types.DeleteResult{OverallCGPA: saved.OverallCGPA, Record: saved}, nil
}

// GetSemester returns one semester of the user's record.
func (s *RecordService) GetSemester(ctx context.Context, userID uuid.UUID, number int) (*types.Semester, error) {
	record, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	sem, ok := record.Semester(number)
	if !ok {
		return nil, semesterNotFound(number)
	}
	return sem, nil
}

func (s *RecordService) applySemester(ctx context.Context, record *types.Record, number int, subjects []types.SubjectInput) (*types.SemesterResult, error) {
	next, sem, err := s.calc.UpsertSemester(record, number, subjects)
	if err != nil {
		return nil, err
	}

	saved, err := s.save(ctx, next)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log("msg", "semester saved", "user", saved.UserID, "semester", number,
		"gpa", sem.GPA, "cgpa", saved.OverallCGPA, "version", saved.Version)

	return &types.SemesterResult{
		SemesterGPA: sem.GPA,
		OverallCGPA: saved.OverallCGPA,
		Record:      saved,
	}, nil
}

// load fetches the stored record or a fresh unsaved one (Version 0).
func (s *RecordService) load(ctx context.Context, userID uuid.UUID) (*types.Record, error) {
	record, err := s.store.FindRecord(ctx, userID)
	if err != nil {
		return nil, &grading.PersistenceError{Op: "load record", Cause: err}
	}
	if record == nil {
		return s.calc.NewRecord(userID), nil
	}
	return record, nil
}

func (s *RecordService) save(ctx context.Context, record *types.Record) (*types.Record, error) {
	saved, err := s.store.SaveRecord(ctx, record)
	if err != nil {
		level.Warn(s.logger).Log("msg", "record save failed", "user", record.UserID, "version", record.Version, "err", err)
		return nil, &grading.PersistenceError{Op: "save record", Cause: err}
	}
	return saved, nil
}

func semesterNotFound(number int) error {
	return &grading.NotFoundError{Resource: "semester", Key: strconv.Itoa(number)}
}
