package api

import (
	"encoding/json"
	"path/filepath"
	"time"

	"lyricsmith/internal/runstore"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Health is the /health payload.
type Health struct {
	Status         string `json:"status"`
	RunsInProgress int    `json:"runs_in_progress"`
	MaxRuns        int    `json:"max_runs"`
	History        bool   `json:"history"`
}

// RunSummary describes a run in list responses.
type RunSummary struct {
	ID               string            `json:"id"`
	Source           string            `json:"source"`
	Status           string            `json:"status"`
	Stages           map[string]string `json:"stages,omitempty"`
	Targets          []string          `json:"targets,omitempty"`
	DetectedLanguage string            `json:"detected_language,omitempty"`
	Error            string            `json:"error,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	FinishedAt       string            `json:"finished_at,omitempty"`
}

// RunDetail is a run summary plus its result document.
type RunDetail struct {
	RunSummary
	Result json.RawMessage `json:"result,omitempty"`
}

// RunListResponse is the /api/runs payload.
type RunListResponse struct {
	Runs []RunSummary `json:"runs"`
}

// FromRecord converts a stored run into its summary.
func FromRecord(rec runstore.Record) RunSummary {
	summary := RunSummary{
		ID:               rec.ID,
		Source:           filepath.Base(rec.SourcePath),
		Status:           string(rec.Status),
		Stages:           rec.Stages,
		Targets:          rec.Targets,
		DetectedLanguage: rec.DetectedLanguage,
		Error:            rec.ErrorCode,
		CreatedAt:        formatTime(rec.CreatedAt),
	}
	if rec.FinishedAt != nil {
		summary.FinishedAt = formatTime(*rec.FinishedAt)
	}
	return summary
}

// FromRecords converts stored runs preserving order.
func FromRecords(records []runstore.Record) []RunSummary {
	out := make([]RunSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
