package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// DefaultBinary is the ffmpeg executable used when none is configured.
const DefaultBinary = "ffmpeg"

// Pan expressions for mid/side decomposition of a stereo signal.
const (
	PanMid  = "pan=mono|c0=0.5*c0+0.5*c1"
	PanSide = "pan=mono|c0=0.5*c0-0.5*c1"
)

// CommandRunner executes name with args and returns combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Tool wraps ffmpeg invocations used by the pipeline.
type Tool struct {
	binary string
	run    CommandRunner
}

// New returns a Tool for the given binary. A nil runner executes the real process.
func New(binary string, runner CommandRunner) *Tool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	if runner == nil {
		runner = execRunner
	}
	return &Tool{binary: binary, run: runner}
}

// Binary returns the configured executable.
func (t *Tool) Binary() string {
	return t.binary
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

func (t *Tool) exec(ctx context.Context, op string, args ...string) ([]byte, error) {
	output, err := t.run(ctx, t.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, fmt.Errorf("ffmpeg %s: %w", op, ctxErr)
		}
		return output, fmt.Errorf("ffmpeg %s: %w: %s", op, err, tail(string(output)))
	}
	return output, nil
}

// ExtractSegment writes [start, start+duration) of source to dest as mono
// 16 kHz 16-bit PCM WAV.
func (t *Tool) ExtractSegment(ctx context.Context, source string, start, duration float64, dest string) error {
	if duration <= 0 {
		return fmt.Errorf("ffmpeg extract segment: invalid duration %.3f", duration)
	}
	_, err := t.exec(ctx, "extract segment", BuildExtractArgs(source, start, duration, dest)...)
	return err
}

// BuildExtractArgs returns the argument list used by ExtractSegment.
func BuildExtractArgs(source string, start, duration float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

// Pan applies a pan filter expression to source, writing a mono file to dest.
func (t *Tool) Pan(ctx context.Context, source, expression, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-af", expression,
		dest,
	}
	_, err := t.exec(ctx, "pan", args...)
	return err
}

// Mix sums the given inputs into one output file.
func (t *Tool) Mix(ctx context.Context, dest string, inputs ...string) error {
	if len(inputs) == 0 {
		return errors.New("ffmpeg mix: no inputs")
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	for _, input := range inputs {
		args = append(args, "-i", input)
	}
	args = append(args,
		"-filter_complex", fmt.Sprintf("amix=inputs=%d:duration=longest:normalize=0", len(inputs)),
		dest,
	)
	_, err := t.exec(ctx, "mix", args...)
	return err
}

// Silence is a detected quiet interval in seconds.
type Silence struct {
	Start float64
	End   float64
}

// Midpoint returns the centre of the interval.
func (s Silence) Midpoint() float64 {
	return s.Start + (s.End-s.Start)/2
}

// DetectSilence runs the silencedetect filter and returns the reported intervals.
func (t *Tool) DetectSilence(ctx context.Context, source string, noiseDB, minSeconds float64) ([]Silence, error) {
	args := []string{
		"-hide_banner",
		"-nostats",
		"-i", source,
		"-af", fmt.Sprintf("silencedetect=noise=%ddB:d=%.2f", int(noiseDB), minSeconds),
		"-f", "null",
		"-",
	}
	output, err := t.run(ctx, t.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ffmpeg silencedetect: %w", ctxErr)
		}
		// ffmpeg can exit non-zero after printing a complete report.
		if len(output) == 0 {
			return nil, fmt.Errorf("ffmpeg silencedetect: %w", err)
		}
	}
	return ParseSilenceOutput(string(output)), nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
)

// ParseSilenceOutput extracts silence intervals from silencedetect output:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
func ParseSilenceOutput(output string) []Silence {
	var silences []Silence
	var start float64
	hasStart := false
	for line := range strings.SplitSeq(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				start = max(v, 0)
				hasStart = true
			}
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && hasStart {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > start {
				silences = append(silences, Silence{Start: start, End: v})
			}
			hasStart = false
		}
	}
	return silences
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(max(v, 0), 'f', 3, 64)
}

func tail(output string) string {
	output = strings.TrimSpace(output)
	const limit = 400
	if len(output) > limit {
		return "..." + output[len(output)-limit:]
	}
	return output
}
