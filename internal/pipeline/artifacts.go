package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"lyricsmith/internal/fileutil"
	"lyricsmith/internal/language"
	"lyricsmith/internal/services"
)

// Artifact file names inside a run directory.
const (
	TranscriptionFile = "transcription.txt"
	ResultFile        = "result.json"
	LogFile           = "pipeline.log"
	lockFile          = ".run.lock"
)

// Artifact keys recorded on Run.Artifacts.
const (
	ArtifactVocals        = "vocals"
	ArtifactBackground    = "background"
	ArtifactTranscription = "transcription"
	ArtifactResult        = "result"
	ArtifactLog           = "log"
)

var downloadName = regexp.MustCompile(`^(vocals|background)\.[a-z0-9]{2,5}$|^transcription\.txt$|^translation_[a-z0-9_-]+\.txt$|^result\.json$|^pipeline\.log$`)

// TranslationFile returns the file name holding the translation into lang.
func TranslationFile(lang string) string {
	return "translation_" + language.FileToken(lang) + ".txt"
}

// TranslationArtifact returns the Run.Artifacts key for a translation.
func TranslationArtifact(lang string) string {
	return "translation_" + language.FileToken(lang)
}

// RunDir returns the artifact directory of a run.
func RunDir(outputDir, runID string) string {
	return filepath.Join(outputDir, runID)
}

// ResolveArtifact maps a run id and file name to a path inside outputDir. It
// rejects ids that are not uuids and names outside the artifact layout.
func ResolveArtifact(outputDir, runID, name string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", services.Wrap(services.ErrValidation, "download", "resolve", "invalid run id", err)
	}
	if !downloadName.MatchString(name) {
		return "", services.Wrap(services.ErrValidation, "download", "resolve", fmt.Sprintf("unknown artifact %q", name), nil)
	}
	path := filepath.Join(RunDir(outputDir, runID), name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", services.Wrap(services.ErrNotFound, "download", "resolve", name, err)
	}
	return path, nil
}

func writeText(path, text string) error {
	text = strings.TrimRight(text, "\n")
	if err := fileutil.WriteFileAtomic(path, []byte(text+"\n")); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := fileutil.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
