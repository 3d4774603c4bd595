package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded alignment run.
type Run struct {
	RunID            string          `json:"run_id"`
	Strategy         string          `json:"strategy"`
	InputPath        string          `json:"input_path,omitempty"`
	VertexCount      int             `json:"vertex_count"`
	AlignedCount     int             `json:"aligned_count"`
	AlignmentRate    float64         `json:"alignment_rate"`
	ValidationPassed bool            `json:"validation_passed"`
	ParamsJSON       json.RawMessage `json:"params_json,omitempty"`
	ReportJSON       json.RawMessage `json:"report_json,omitempty"`
	DurationMs       int64           `json:"duration_ms"`
	CreatedAt        int64           `json:"created_at"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New().String() }

func rawOrNil(b json.RawMessage) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// InsertRun records a run. If RunID is empty, a UUID is generated.
func (db *DB) InsertRun(r *Run) error {
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixNano()
	}
	_, err := db.Exec(`
		INSERT INTO alignment_runs (
			run_id, strategy, input_path, vertex_count, aligned_count,
			alignment_rate, validation_passed, params_json, report_json,
			duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Strategy, r.InputPath, r.VertexCount, r.AlignedCount,
		r.AlignmentRate, r.ValidationPassed, rawOrNil(r.ParamsJSON), rawOrNil(r.ReportJSON),
		r.DurationMs, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.RunID, err)
	}
	return nil
}

const runColumns = `run_id, strategy, input_path, vertex_count, aligned_count,
	alignment_rate, validation_passed, params_json, report_json,
	duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (*Run, error) {
	var (
		r              Run
		input          sql.NullString
		params, report sql.NullString
		duration       sql.NullInt64
	)
	err := s.Scan(&r.RunID, &r.Strategy, &input, &r.VertexCount, &r.AlignedCount,
		&r.AlignmentRate, &r.ValidationPassed, &params, &report, &duration, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.InputPath = input.String
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	if report.Valid {
		r.ReportJSON = json.RawMessage(report.String)
	}
	r.DurationMs = duration.Int64
	return &r, nil
}

// GetRun returns a run by id, or sql.ErrNoRows.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM alignment_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM alignment_runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
