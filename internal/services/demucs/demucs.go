package demucs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the demucs executable used when none is configured.
const DefaultBinary = "demucs"

// Stem file names written by demucs.
const (
	StemVocals   = "vocals"
	StemNoVocals = "no_vocals"
	StemDrums    = "drums"
	StemBass     = "bass"
	StemOther    = "other"
)

// CommandRunner executes name with args and returns combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run describes one demucs configuration.
type Run struct {
	Model string
	// TwoStems requests vocals/no_vocals output instead of four stems.
	TwoStems bool
	// MP3 switches the output encoding from WAV to MP3.
	MP3 bool
}

// Label returns a short human-readable name for logs and provenance.
func (r Run) Label() string {
	parts := []string{r.Model}
	if r.TwoStems {
		parts = append(parts, "two-stem")
	} else {
		parts = append(parts, "full")
	}
	if r.MP3 {
		parts = append(parts, "mp3")
	}
	return strings.Join(parts, "/")
}

// Ext returns the stem file extension the run produces.
func (r Run) Ext() string {
	if r.MP3 {
		return "mp3"
	}
	return "wav"
}

// DefaultRuns returns two-stem WAV runs for each model, followed by the
// alternate-format runs when alternates is set.
func DefaultRuns(models []string, alternates bool) []Run {
	runs := make([]Run, 0, len(models)+2)
	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		runs = append(runs, Run{Model: model, TwoStems: true})
	}
	if alternates {
		runs = append(runs,
			Run{Model: "htdemucs", TwoStems: true, MP3: true},
			Run{Model: "htdemucs"},
		)
	}
	return runs
}

// Output lists the files produced by a run. Accompaniment is empty for full
// separation; Others then holds the non-vocal stems.
type Output struct {
	Vocals        string
	Accompaniment string
	Others        []string
}

// Service invokes the demucs CLI.
type Service struct {
	binary string
	device string
	run    CommandRunner
}

// NewService returns a Service. A nil runner executes the real process.
func NewService(binary, device string, runner CommandRunner) *Service {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	device = strings.TrimSpace(device)
	if device == "" {
		device = "cpu"
	}
	if runner == nil {
		runner = execRunner
	}
	return &Service{binary: binary, device: device, run: runner}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Binary returns the configured executable.
func (s *Service) Binary() string {
	return s.binary
}

// BuildArgs returns the demucs command line for run.
func (s *Service) BuildArgs(run Run, input, outputDir string) []string {
	args := []string{"-n", run.Model}
	if run.TwoStems {
		args = append(args, "--two-stems="+StemVocals)
	}
	args = append(args, "--device", s.device)
	if run.MP3 {
		args = append(args, "--mp3")
	}
	return append(args, input, "-o", outputDir)
}

// Separate executes run against input and returns the stem paths. Files are
// only located, not validated.
func (s *Service) Separate(ctx context.Context, run Run, input, outputDir string) (Output, error) {
	if strings.TrimSpace(run.Model) == "" {
		return Output{}, fmt.Errorf("demucs: model required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("demucs: ensure output dir: %w", err)
	}
	output, err := s.run(ctx, s.binary, s.BuildArgs(run, input, outputDir)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Output{}, fmt.Errorf("demucs %s: %w", run.Label(), ctxErr)
		}
		return Output{}, fmt.Errorf("demucs %s: %w: %s", run.Label(), err, lastLine(string(output)))
	}
	return Locate(run, input, outputDir), nil
}

// Locate returns where demucs writes stems: <out>/<model>/<input base>/<stem>.<ext>.
func Locate(run Run, input, outputDir string) Output {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := filepath.Join(outputDir, run.Model, base)
	stem := func(name string) string {
		return filepath.Join(dir, name+"."+run.Ext())
	}
	if run.TwoStems {
		return Output{Vocals: stem(StemVocals), Accompaniment: stem(StemNoVocals)}
	}
	return Output{
		Vocals: stem(StemVocals),
		Others: []string{stem(StemDrums), stem(StemBass), stem(StemOther)},
	}
}

func lastLine(output string) string {
	output = strings.TrimSpace(output)
	if idx := strings.LastIndex(output, "\n"); idx >= 0 {
		return output[idx+1:]
	}
	return output
}
