package pipeline

import (
	"encoding/json"
	"time"

	"lyricsmith/internal/media"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/runstore"
	"lyricsmith/internal/services"
)

// StageStatus is the outcome of one stage within a run.
type StageStatus string

const (
	StatusPending  StageStatus = "pending"
	StatusSuccess  StageStatus = "success"
	StatusDegraded StageStatus = "degraded"
	StatusFailed   StageStatus = "failed"
)

// Stage names recorded on every run, in execution order.
const (
	StageSeparation    = "separation"
	StageTranscription = "transcription"
	StageLanguage      = "language_detection"
	StageTranslation   = "translation"
	StageTiming        = "timing"
)

var stageOrder = []string{StageSeparation, StageTranscription, StageLanguage, StageTranslation, StageTiming}

// StageNames returns the stage names in execution order.
func StageNames() []string {
	return append([]string(nil), stageOrder...)
}

// Run is the mutable record of one pipeline invocation. Only the orchestrator
// writes to it.
type Run struct {
	ID               string                 `json:"id"`
	Source           string                 `json:"source"`
	Dir              string                 `json:"dir"`
	Targets          []string               `json:"targets"`
	Stages           map[string]StageStatus `json:"stages"`
	Artifacts        map[string]string      `json:"artifacts"`
	Errors           []string               `json:"errors,omitempty"`
	DetectedLanguage string                 `json:"detected_language,omitempty"`
	Tags             tags.Metadata          `json:"tags"`
	StartedAt        time.Time              `json:"started_at"`
	FinishedAt       time.Time              `json:"finished_at"`

	// Bundle is set when the run completed; Failure when it did not.
	Bundle  *Bundle                `json:"bundle,omitempty"`
	Failure *services.ErrorDetails `json:"failure,omitempty"`

	asset *media.Asset
}

func newRun(id, source string, targets []string, now time.Time) *Run {
	stages := make(map[string]StageStatus, len(stageOrder))
	for _, name := range stageOrder {
		stages[name] = StatusPending
	}
	return &Run{
		ID:        id,
		Source:    source,
		Targets:   targets,
		Stages:    stages,
		Artifacts: map[string]string{},
		StartedAt: now,
	}
}

// Asset returns the staged input, or nil before staging.
func (r *Run) Asset() *media.Asset {
	return r.asset
}

func (r *Run) set(stage string, status StageStatus) {
	r.Stages[stage] = status
}

func (r *Run) fail(stage string, err error) {
	r.Stages[stage] = StatusFailed
	if err != nil {
		r.Errors = append(r.Errors, stage+": "+err.Error())
	}
}

// Completed reports whether the run produced a bundle.
func (r *Run) Completed() bool {
	return r.Bundle != nil
}

// Record converts the run into its persisted form.
func (r *Run) Record() runstore.Record {
	rec := runstore.Record{
		ID:               r.ID,
		SourcePath:       r.Source,
		Status:           runstore.StatusRunning,
		Stages:           make(map[string]string, len(r.Stages)),
		Targets:          append([]string(nil), r.Targets...),
		DetectedLanguage: r.DetectedLanguage,
		RunDir:           r.Dir,
		CreatedAt:        r.StartedAt,
	}
	for name, status := range r.Stages {
		rec.Stages[name] = string(status)
	}
	switch {
	case r.Bundle != nil:
		rec.Status = runstore.StatusCompleted
		if data, err := json.Marshal(r.Bundle); err == nil {
			rec.Bundle = data
		}
	case r.Failure != nil:
		rec.Status = runstore.StatusFailed
		rec.ErrorCode = r.Failure.Code
		rec.ErrorMessage = r.Failure.Message
		if data, err := json.Marshal(NewFailure(r.ID, *r.Failure)); err == nil {
			rec.Bundle = data
		}
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		rec.FinishedAt = &finished
	}
	return rec
}
