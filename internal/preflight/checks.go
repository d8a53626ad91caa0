package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sys/unix"

	"lyricsmith/internal/config"
	"lyricsmith/internal/deps"
	"lyricsmith/internal/services/llm"
	"lyricsmith/internal/services/whisperx"
)

const mib = 1024 * 1024

// separationMemoryMB is the resident memory Demucs needs on CPU to avoid
// swapping on a typical song.
const separationMemoryMB = 4096

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLMConfig) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the volume holding path has at least minFreeMB
// free. A non-positive minimum only reports the free space.
func CheckDiskSpace(ctx context.Context, name, path string, minFreeMB int) Result {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	freeMB := usage.Free / mib
	detail := fmt.Sprintf("%d MiB free on %s (%.0f%% used)", freeMB, path, usage.UsedPercent)
	if minFreeMB > 0 && freeMB < uint64(minFreeMB) {
		return Result{Name: name, Detail: fmt.Sprintf("%s, need %d MiB", detail, minFreeMB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckMemory reports available memory against what CPU separation needs.
// A shortfall is advisory: separation falls back to mid/side decomposition.
func CheckMemory(ctx context.Context) Result {
	const name = "Memory"
	stats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("error: %v", err)}
	}
	availableMB := stats.Available / mib
	detail := fmt.Sprintf("%d MiB available of %d MiB", availableMB, stats.Total/mib)
	if availableMB < separationMemoryMB {
		return Result{Name: name, Optional: true, Detail: detail + ", separation may be slow or fall back"}
	}
	return Result{Name: name, Optional: true, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external programs needed by cfg. The server,
// the watcher, and the CLI status command share this requirement list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for chunk extraction and mid/side fallback",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for audio duration",
		},
		{
			Name:        "Demucs",
			Command:     cfg.Separation.DemucsBinary,
			Description: "Vocal separation; mid/side decomposition is used without it",
			Optional:    true,
		},
	}
	if slices.Contains(cfg.Transcription.Providers, config.ProviderWhisperX) {
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Launches WhisperX for local transcription",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
