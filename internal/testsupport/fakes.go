package testsupport

import (
	"context"
	"path/filepath"
	"strings"

	"lyricsmith/internal/media"
	"lyricsmith/internal/transcription"
)

// FixedProber reports the same duration for every path.
type FixedProber struct {
	Seconds float64
}

// Duration implements media.Prober.
func (p FixedProber) Duration(context.Context, string) float64 { return p.Seconds }

// Format implements media.Prober using the file extension as container.
func (p FixedProber) Format(_ context.Context, path string) media.SampleFormat {
	return media.SampleFormat{
		Container:  strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		SampleRate: 44100,
		Channels:   2,
	}
}

// ScriptedProvider returns canned text for every chunk.
type ScriptedProvider struct {
	Label string
	Text  string
	Err   error
}

// Name returns the provider label.
func (p ScriptedProvider) Name() string {
	if p.Label == "" {
		return "scripted"
	}
	return p.Label
}

// Transcribe returns the canned text or error.
func (p ScriptedProvider) Transcribe(ctx context.Context, _ string, _ transcription.Budget) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Text, p.Err
}
