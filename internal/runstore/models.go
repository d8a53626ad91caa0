package runstore

import (
	"encoding/json"
	"time"
)

// Status is the overall state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is the persisted view of one pipeline run.
type Record struct {
	ID               string            `json:"id"`
	SourcePath       string            `json:"source_path"`
	Status           Status            `json:"status"`
	Stages           map[string]string `json:"stages,omitempty"`
	Targets          []string          `json:"targets,omitempty"`
	DetectedLanguage string            `json:"detected_language,omitempty"`
	RunDir           string            `json:"run_dir,omitempty"`
	// Bundle holds the result.json payload once the run finishes.
	Bundle       json.RawMessage `json:"bundle,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// Terminal reports whether the run has finished.
func (r Record) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
