package chunking

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/media/ffmpeg"
	"lyricsmith/internal/services"
)

// Extractor writes a mono 16 kHz WAV excerpt of source.
type Extractor interface {
	ExtractSegment(ctx context.Context, source string, start, duration float64, dest string) error
}

// SilenceDetector reports silent intervals of source.
type SilenceDetector interface {
	DetectSilence(ctx context.Context, source string, noiseDB, minSeconds float64) ([]ffmpeg.Silence, error)
}

// Options configure silence-aware refinement.
type Options struct {
	SilenceAware   bool
	NoiseDB        float64
	MinSilenceSecs float64
}

// Engine plans, materializes, and cleans up chunks.
type Engine struct {
	extractor Extractor
	detector  SilenceDetector
	opts      Options
	logger    *slog.Logger
}

// NewEngine returns an Engine. detector may be nil when refinement is off.
func NewEngine(extractor Extractor, detector SilenceDetector, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		extractor: extractor,
		detector:  detector,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "chunking"),
	}
}

// Split plans source into windows of at most window seconds and extracts each
// window into scratchDir. A single-window asset is returned as-is without
// extraction. On failure every extract written so far is removed.
func (e *Engine) Split(ctx context.Context, source string, duration, window float64, scratchDir string) ([]Chunk, error) {
	chunks := Plan(duration, window)
	for i := range chunks {
		chunks[i].Source = source
	}
	if len(chunks) == 1 {
		chunks[0].Path = source
		return chunks, nil
	}

	if e.opts.SilenceAware && e.detector != nil {
		silences, err := e.detector.DetectSilence(ctx, source, e.opts.NoiseDB, e.opts.MinSilenceSecs)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			e.logger.Debug("silence detection failed; using fixed windows", logging.Error(err))
		default:
			chunks = Refine(chunks, silences, window)
		}
	}

	if err := e.Materialize(ctx, chunks, scratchDir); err != nil {
		_ = Cleanup(chunks)
		return nil, err
	}
	e.logger.Debug("chunks materialized",
		logging.Int("count", len(chunks)),
		logging.Seconds("window_seconds", window),
		logging.Seconds("duration_seconds", duration),
	)
	return chunks, nil
}

// Materialize extracts each chunk to scratchDir/chunk_NNN.wav and records the
// path on the chunk.
func (e *Engine) Materialize(ctx context.Context, chunks []Chunk, scratchDir string) error {
	if e.extractor == nil {
		return services.Wrap(services.ErrConfiguration, "chunking", "materialize", "no extractor configured", nil)
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return services.Wrap(services.ErrExternalTool, "chunking", "materialize", "create scratch dir", err)
	}
	for i := range chunks {
		dest := filepath.Join(scratchDir, fmt.Sprintf("chunk_%03d.wav", chunks[i].Index))
		chunks[i].Path = dest
		chunks[i].Owned = true
		if err := e.extractor.ExtractSegment(ctx, chunks[i].Source, chunks[i].Start, chunks[i].Duration(), dest); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrExternalTool, "chunking", "materialize", fmt.Sprintf("extract chunk %d", chunks[i].Index+1), err)
		}
	}
	return nil
}

// Cleanup removes materialized chunk files. Missing files are ignored.
func Cleanup(chunks []Chunk) error {
	var errs []error
	for _, c := range chunks {
		if !c.Owned || c.Path == "" {
			continue
		}
		if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
