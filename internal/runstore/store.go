package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database file created inside the log directory.
const FileName = "runs.db"

const defaultListLimit = 50

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database under dir.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("run store directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure run store directory: %w", err)
	}

	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new run record.
func (s *Store) Create(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("run id required")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = StatusRunning
	}
	stages, targets, err := encodeCollections(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, source_path, status, stages_json, targets_json, detected_language,
            run_dir, bundle_json, error_code, error_message, created_at, updated_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.SourcePath,
		rec.Status,
		stages,
		targets,
		nullableString(rec.DetectedLanguage),
		nullableString(rec.RunDir),
		nullableBytes(rec.Bundle),
		nullableString(rec.ErrorCode),
		nullableString(rec.ErrorMessage),
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update persists changes to an existing run record.
func (s *Store) Update(ctx context.Context, rec Record) error {
	stages, targets, err := encodeCollections(rec)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, stages_json = ?, targets_json = ?, detected_language = ?,
             run_dir = ?, bundle_json = ?, error_code = ?, error_message = ?,
             updated_at = ?, finished_at = ?
         WHERE id = ?`,
		rec.Status,
		stages,
		targets,
		nullableString(rec.DetectedLanguage),
		nullableString(rec.RunDir),
		nullableBytes(rec.Bundle),
		nullableString(rec.ErrorCode),
		nullableString(rec.ErrorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableTime(rec.FinishedAt),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

// Get fetches a run by id. A missing run yields ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get run: %w", err)
	}
	return rec, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// Remove deletes a run record. It reports whether a row was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove run: rows affected: %w", err)
	}
	return n > 0, nil
}

func encodeCollections(rec Record) (any, any, error) {
	var stages, targets any
	if len(rec.Stages) > 0 {
		data, err := json.Marshal(rec.Stages)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal stages: %w", err)
		}
		stages = string(data)
	}
	if len(rec.Targets) > 0 {
		data, err := json.Marshal(rec.Targets)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal targets: %w", err)
		}
		targets = string(data)
	}
	return stages, targets, nil
}
