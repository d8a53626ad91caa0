package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

const runColumns = "id, source_path, status, stages_json, targets_json, detected_language, run_dir, bundle_json, error_code, error_message, created_at, updated_at, finished_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec         Record
		status      string
		stages      sql.NullString
		targets     sql.NullString
		detected    sql.NullString
		runDir      sql.NullString
		bundle      sql.NullString
		errorCode   sql.NullString
		errorMsg    sql.NullString
		createdRaw  string
		updatedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.SourcePath,
		&status,
		&stages,
		&targets,
		&detected,
		&runDir,
		&bundle,
		&errorCode,
		&errorMsg,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return Record{}, err
	}

	rec.Status = Status(status)
	rec.DetectedLanguage = detected.String
	rec.RunDir = runDir.String
	rec.ErrorCode = errorCode.String
	rec.ErrorMessage = errorMsg.String
	if bundle.Valid && bundle.String != "" {
		rec.Bundle = json.RawMessage(bundle.String)
	}
	if stages.Valid && stages.String != "" {
		if err := json.Unmarshal([]byte(stages.String), &rec.Stages); err != nil {
			return Record{}, fmt.Errorf("decode stages: %w", err)
		}
	}
	if targets.Valid && targets.String != "" {
		if err := json.Unmarshal([]byte(targets.String), &rec.Targets); err != nil {
			return Record{}, fmt.Errorf("decode targets: %w", err)
		}
	}
	rec.CreatedAt = parseTime(createdRaw)
	rec.UpdatedAt = parseTime(updatedRaw)
	if finishedRaw.Valid && finishedRaw.String != "" {
		finished := parseTime(finishedRaw.String)
		rec.FinishedAt = &finished
	}
	return rec, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBytes(value []byte) any {
	if len(value) == 0 {
		return nil
	}
	return string(value)
}

func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
