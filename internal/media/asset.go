package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/media/ffprobe"
)

// SampleFormat describes the encoding of an audio asset.
type SampleFormat struct {
	Container  string `json:"container"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Prober reports media facts without failing: unreadable input yields zero values.
type Prober interface {
	Duration(ctx context.Context, path string) float64
	Format(ctx context.Context, path string) SampleFormat
}

// InspectFunc matches ffprobe.Inspect and allows substitution in tests.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FFprobeProber implements Prober with ffprobe.
type FFprobeProber struct {
	binary  string
	inspect InspectFunc
	logger  *slog.Logger
}

// NewFFprobeProber returns a prober using binary. A nil inspect uses ffprobe.Inspect.
func NewFFprobeProber(binary string, inspect InspectFunc, logger *slog.Logger) *FFprobeProber {
	if inspect == nil {
		inspect = ffprobe.Inspect
	}
	return &FFprobeProber{
		binary:  binary,
		inspect: inspect,
		logger:  logging.NewComponentLogger(logger, "probe"),
	}
}

// Duration returns the duration in seconds, or 0.0 when probing fails.
func (p *FFprobeProber) Duration(ctx context.Context, path string) float64 {
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		p.logger.Debug("duration probe failed", logging.String("path", path), logging.Error(err))
		return 0
	}
	return result.DurationSeconds()
}

// Format returns the primary audio stream format; fields are zero when unknown.
func (p *FFprobeProber) Format(ctx context.Context, path string) SampleFormat {
	format := SampleFormat{Container: containerFromPath(path)}
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		p.logger.Debug("format probe failed", logging.String("path", path), logging.Error(err))
		return format
	}
	if name := strings.TrimSpace(result.Format.FormatName); name != "" {
		format.Container = strings.Split(name, ",")[0]
	}
	if stream, ok := result.PrimaryAudio(); ok {
		format.Codec = stream.CodecName
		format.Channels = stream.Channels
	}
	format.SampleRate = result.SampleRate()
	return format
}

func containerFromPath(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Asset is an immutable handle to an audio file. Duration and format are
// probed at most once and memoized.
type Asset struct {
	path   string
	prober Prober

	once     sync.Once
	duration float64
	format   SampleFormat
}

// NewAsset returns a handle for path probed through prober.
func NewAsset(path string, prober Prober) *Asset {
	return &Asset{path: path, prober: prober}
}

// Path returns the asset location.
func (a *Asset) Path() string {
	return a.path
}

// Ext returns the lowercased extension without the dot, defaulting to "wav".
func (a *Asset) Ext() string {
	if ext := containerFromPath(a.path); ext != "" {
		return ext
	}
	return "wav"
}

// Duration returns the probed duration in seconds (0 when unknown).
func (a *Asset) Duration(ctx context.Context) float64 {
	a.probe(ctx)
	return a.duration
}

// Format returns the probed sample format.
func (a *Asset) Format(ctx context.Context) SampleFormat {
	a.probe(ctx)
	return a.format
}

func (a *Asset) probe(ctx context.Context) {
	a.once.Do(func() {
		if a.prober == nil {
			a.format = SampleFormat{Container: containerFromPath(a.path)}
			return
		}
		a.duration = a.prober.Duration(ctx, a.path)
		a.format = a.prober.Format(ctx, a.path)
	})
}
