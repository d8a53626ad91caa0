package separation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lyricsmith/internal/fallback"
	"lyricsmith/internal/fileutil"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/media"
	"lyricsmith/internal/media/ffmpeg"
	"lyricsmith/internal/services"
)

const stageName = "separation"

// Engine names for the last-resort paths.
const (
	EngineMidSide     = "mid_side"
	EnginePassthrough = "passthrough"
)

// Stems describes separated vocal and accompaniment files.
type Stems struct {
	Vocals        string `json:"vocals"`
	Accompaniment string `json:"accompaniment"`
	Engine        string `json:"engine"`
	Degraded      bool   `json:"degraded"`
}

// Engine separates audioPath into stems written under outputDir.
type Engine interface {
	Name() string
	Separate(ctx context.Context, audioPath, outputDir string) (Stems, error)
}

// Panner applies an ffmpeg pan expression.
type Panner interface {
	Pan(ctx context.Context, source, expression, dest string) error
}

// Options configure the separation stage.
type Options struct {
	// MinStemBytes is the smallest file accepted as a stem.
	MinStemBytes int64
	// Timeout bounds each engine call.
	Timeout time.Duration
}

// Stage runs the engines in order and falls back to mid/side decomposition,
// then to copying the input as both stems.
type Stage struct {
	engines []Engine
	panner  Panner
	opts    Options
	logger  *slog.Logger
}

// NewStage returns a separation stage. panner may be nil to skip mid/side.
func NewStage(engines []Engine, panner Panner, opts Options, logger *slog.Logger) *Stage {
	return &Stage{
		engines: append([]Engine(nil), engines...),
		panner:  panner,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, stageName),
	}
}

// Separate writes vocals.<ext> and background.<ext> into outDir. It only fails
// for unreadable input, an unwritable outDir, or cancellation.
func (s *Stage) Separate(ctx context.Context, asset *media.Asset, outDir string) (Stems, error) {
	logger := logging.WithContext(ctx, s.logger)
	source := asset.Path()
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		if err == nil {
			err = errors.New("is a directory")
		}
		return Stems{}, services.Wrap(services.ErrValidation, stageName, "separate", "input not readable", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stems{}, services.Wrap(services.ErrConfiguration, stageName, "separate", "create output dir", err)
	}

	scratch := filepath.Join(outDir, ".separation")
	defer os.RemoveAll(scratch)

	providers := make([]fallback.Provider[Stems], 0, len(s.engines))
	for _, engine := range s.engines {
		providers = append(providers, fallback.Provider[Stems]{
			Name: engine.Name(),
			Invoke: func(ctx context.Context, _ fallback.Call) (Stems, error) {
				return engine.Separate(ctx, source, scratch)
			},
		})
	}
	chain := fallback.New(providers, s.validStems, fallback.Options{
		Timeout: s.opts.Timeout,
		Stage:   stageName,
		Logger:  logger,
	})
	result := chain.Run(ctx)
	if err := ctx.Err(); err != nil {
		return Stems{}, err
	}
	if result.OK() {
		stems, err := s.publish(result.Value, outDir)
		if err == nil {
			logger.Info("separation complete",
				logging.Provider(stems.Engine),
				logging.Int("attempts", len(result.Attempts)),
			)
			return stems, nil
		}
		logger.Debug("publishing stems failed", logging.Error(err))
	}

	stems, err := s.midSide(ctx, source, outDir)
	if err == nil {
		s.warnDegraded(logger, stems, result.Err)
		return stems, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Stems{}, ctxErr
	}
	logger.Debug("mid/side decomposition failed", logging.Error(err))

	stems, err = s.passthrough(asset, outDir)
	if err != nil {
		return Stems{}, services.Wrap(services.ErrStageFailed, stageName, "passthrough", "copy input", err)
	}
	s.warnDegraded(logger, stems, result.Err)
	return stems, nil
}

func (s *Stage) validStems(stems Stems) bool {
	return s.validFile(stems.Vocals) && s.validFile(stems.Accompaniment)
}

func (s *Stage) validFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() >= s.opts.MinStemBytes
}

// publish copies engine output into the stable layout.
func (s *Stage) publish(stems Stems, outDir string) (Stems, error) {
	ext := extOf(stems.Vocals)
	vocals := filepath.Join(outDir, "vocals."+ext)
	background := filepath.Join(outDir, "background."+extOf(stems.Accompaniment))
	if err := fileutil.CopyFile(stems.Vocals, vocals); err != nil {
		return Stems{}, fmt.Errorf("copy vocals: %w", err)
	}
	if err := fileutil.CopyFile(stems.Accompaniment, background); err != nil {
		return Stems{}, fmt.Errorf("copy accompaniment: %w", err)
	}
	return Stems{Vocals: vocals, Accompaniment: background, Engine: stems.Engine}, nil
}

func (s *Stage) midSide(ctx context.Context, source, outDir string) (Stems, error) {
	if s.panner == nil {
		return Stems{}, errors.New("no panner configured")
	}
	stems := Stems{
		Vocals:        filepath.Join(outDir, "vocals.wav"),
		Accompaniment: filepath.Join(outDir, "background.wav"),
		Engine:        EngineMidSide,
		Degraded:      true,
	}
	if err := s.panner.Pan(ctx, source, ffmpeg.PanMid, stems.Vocals); err != nil {
		return Stems{}, err
	}
	if err := s.panner.Pan(ctx, source, ffmpeg.PanSide, stems.Accompaniment); err != nil {
		_ = os.Remove(stems.Vocals)
		return Stems{}, err
	}
	if !s.validFile(stems.Vocals) || !s.validFile(stems.Accompaniment) {
		_ = os.Remove(stems.Vocals)
		_ = os.Remove(stems.Accompaniment)
		return Stems{}, errors.New("mid/side output too small")
	}
	return stems, nil
}

func (s *Stage) passthrough(asset *media.Asset, outDir string) (Stems, error) {
	ext := asset.Ext()
	stems := Stems{
		Vocals:        filepath.Join(outDir, "vocals."+ext),
		Accompaniment: filepath.Join(outDir, "background."+ext),
		Engine:        EnginePassthrough,
		Degraded:      true,
	}
	if err := fileutil.CopyFile(asset.Path(), stems.Vocals); err != nil {
		return Stems{}, err
	}
	if err := fileutil.CopyFile(asset.Path(), stems.Accompaniment); err != nil {
		return Stems{}, err
	}
	return stems, nil
}

func (s *Stage) warnDegraded(logger *slog.Logger, stems Stems, cause error) {
	logging.WarnWithContext(logger, "separation degraded",
		"separation_degraded",
		logging.Provider(stems.Engine),
		logging.String(logging.FieldErrorHint, "check that demucs is installed and the input is stereo"),
		logging.String(logging.FieldImpact, "vocal stem still contains accompaniment; transcription quality may drop"),
		logging.Error(cause),
	)
}

func extOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "wav"
	}
	return ext
}
