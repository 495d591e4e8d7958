package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/jfin/internal/models"
)

// RunRecord is one row of import run history.
type RunRecord struct {
	ID         string
	Source     string
	Matched    int
	Unmatched  int
	Playlists  int
	Failures   int
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunRepository records one row per import run for later inspection.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts a finished run. Source names the input file or service the
// entries came from.
func (r *RunRepository) Record(summary *models.RunSummary, source string, dryRun bool, startedAt time.Time) error {
	query := `
		INSERT INTO runs (id, source, matched, unmatched, playlists, failures, dry_run, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		summary.RunID,
		source,
		summary.Matched,
		summary.Unmatched,
		len(summary.Playlists),
		len(summary.WriteFailures()),
		dryRun,
		startedAt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// List retrieves runs most recent first, up to limit. A non-positive limit
// returns all runs.
func (r *RunRepository) List(limit int) ([]RunRecord, error) {
	query := `
		SELECT id, source, matched, unmatched, playlists, failures, dry_run, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record     RunRecord
			finishedAt sql.NullTime
		)
		err := rows.Scan(
			&record.ID,
			&record.Source,
			&record.Matched,
			&record.Unmatched,
			&record.Playlists,
			&record.Failures,
			&record.DryRun,
			&record.StartedAt,
			&finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finishedAt.Valid {
			record.FinishedAt = finishedAt.Time
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Get retrieves a single run by ID.
func (r *RunRepository) Get(id string) (*RunRecord, error) {
	query := `
		SELECT id, source, matched, unmatched, playlists, failures, dry_run, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	var (
		record     RunRecord
		finishedAt sql.NullTime
	)
	err := r.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.Source,
		&record.Matched,
		&record.Unmatched,
		&record.Playlists,
		&record.Failures,
		&record.DryRun,
		&record.StartedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finishedAt.Valid {
		record.FinishedAt = finishedAt.Time
	}

	return &record, nil
}
