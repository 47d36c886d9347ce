package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/types"
)

// FindRecord loads the grade record of a user. Returns nil, nil when the
// user has no record yet.
func (db *DB) FindRecord(ctx context.Context, userID uuid.UUID) (*types.Record, error) {
	var (
		record    types.Record
		semesters []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, semesters, overall_cgpa, total_credits, last_updated, version
		 FROM grade_records WHERE user_id = $1`,
		userID,
	).Scan(&record.UserID, &semesters, &record.OverallCGPA, &record.TotalCredits, &record.LastUpdated, &record.Version)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	if err := decodeSemesters(semesters, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveRecord writes a record and returns it with its new version.
//
// A record with Version 0 is inserted; otherwise the stored row is updated
// only if it still carries the same version. Either way a lost race yields
// ErrVersionConflict.
func (db *DB) SaveRecord(ctx context.Context, record *types.Record) (*types.Record, error) {
	semesters, err := encodeSemesters(record)
	if err != nil {
		return nil, err
	}

	saved := record.Clone()
	if record.Version == 0 {
		err = db.pool.QueryRow(ctx,
			`INSERT INTO grade_records (user_id, semesters, overall_cgpa, total_credits, last_updated, version)
			 VALUES ($1, $2, $3, $4, $5, 1)
			 ON CONFLICT (user_id) DO NOTHING
			 RETURNING version`,
			record.UserID, semesters, record.OverallCGPA, record.TotalCredits, record.LastUpdated,
		).Scan(&saved.Version)
	} else {
		err = db.pool.QueryRow(ctx,
			`UPDATE grade_records
			 SET semesters = $2, overall_cgpa = $3, total_credits = $4, last_updated = $5, version = version + 1
			 WHERE user_id = $1 AND version = $6
			 RETURNING version`,
			record.UserID, semesters, record.OverallCGPA, record.TotalCredits, record.LastUpdated, record.Version,
		).Scan(&saved.Version)
	}
	if err != nil {
		if isNoRows(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	return saved, nil
}

func encodeSemesters(record *types.Record) ([]byte, error) {
	semesters := record.Semesters
	if semesters == nil {
		semesters = []types.Semester{}
	}
	data, err := json.Marshal(semesters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal semesters: %w", err)
	}
	return data, nil
}

func decodeSemesters(data []byte, record *types.Record) error {
	record.Semesters = []types.Semester{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &record.Semesters); err != nil {
		return fmt.Errorf("failed to unmarshal semesters: %w", err)
	}
	if record.Semesters == nil {
		record.Semesters = []types.Semester{}
	}
	record.SortSemesters()
	return nil
}
