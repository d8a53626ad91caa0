package pipeline

import (
	"lyricsmith/internal/lyrics"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/services"
)

// Lyrics is the timed lyric payload of a successful bundle.
type Lyrics struct {
	OriginalLyrics []lyrics.Line `json:"original_lyrics"`
	// TranslatedLyrics carries the first target language.
	TranslatedLyrics []lyrics.Line            `json:"translated_lyrics"`
	Translations     map[string][]lyrics.Line `json:"translations"`
	AudioDuration    float64                  `json:"audio_duration"`
	DetectedLanguage string                   `json:"detected_language"`
}

// Bundle is the result.json document of a completed run. Lyrics is null when
// transcription failed.
type Bundle struct {
	Success            bool                   `json:"success"`
	RunID              string                 `json:"run_id"`
	Message            string                 `json:"message"`
	VocalsPath         string                 `json:"vocals_path"`
	BackgroundPath     string                 `json:"background_path"`
	SeparationEngine   string                 `json:"separation_engine"`
	SeparationDegraded bool                   `json:"separation_degraded"`
	Lyrics             *Lyrics                `json:"lyrics"`
	Stages             map[string]StageStatus `json:"stages"`
	Tags               *tags.Metadata         `json:"tags,omitempty"`
}

// Failure is the result document of a run that could not complete.
type Failure struct {
	Success bool   `json:"success"`
	RunID   string `json:"run_id,omitempty"`
	services.ErrorDetails
}

// NewFailure builds the failure document from classified error details.
func NewFailure(runID string, details services.ErrorDetails) Failure {
	return Failure{RunID: runID, ErrorDetails: details}
}

// FailureFor classifies err into a failure document.
func FailureFor(runID string, err error) Failure {
	return NewFailure(runID, services.Details(err))
}

const (
	messageComplete            = "Audio processed successfully"
	messageTranscriptionFailed = "Audio separated; transcription failed so no lyrics were produced"
)
