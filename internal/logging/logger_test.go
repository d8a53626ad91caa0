package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyricsmith/internal/config"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "lyricsmith.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerSourceByLevel(t *testing.T) {
	tests := []struct {
		level      string
		wantSource bool
	}{
		{level: "info", wantSource: false},
		{level: "debug", wantSource: true},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "console.log")
			logger, err := logging.New(logging.Options{
				Format:           "console",
				Level:            tc.level,
				OutputPaths:      []string{logPath},
				ErrorOutputPaths: []string{logPath},
			})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			logging.NewComponentLogger(logger, "separation").Info("message", logging.String("engine", "htdemucs"))

			content, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatalf("read log file: %v", err)
			}
			text := string(content)
			if got := strings.Contains(text, ".go:"); got != tc.wantSource {
				t.Fatalf("source present = %v, want %v: %q", got, tc.wantSource, text)
			}
			if !strings.Contains(text, "INFO separation: message") {
				t.Fatalf("missing console header in %q", text)
			}
			if !strings.Contains(text, "engine=htdemucs") {
				t.Fatalf("missing engine attr in %q", text)
			}
		})
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "transcription")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldRunID:         "run-123",
		logging.FieldStage:         "transcription",
		logging.FieldCorrelationID: "req-xyz",
	} {
		if record[key] != want {
			t.Fatalf("field %s = %v, want %q", key, record[key], want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "stems degraded", "separation_degraded", logging.String(logging.FieldImpact, "stems are approximate"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record[logging.FieldEventType] != "separation_degraded" {
		t.Fatalf("unexpected event type %v", record[logging.FieldEventType])
	}
	if record[logging.FieldImpact] != "stems are approximate" {
		t.Fatalf("impact overwritten: %v", record[logging.FieldImpact])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}

func TestTeeLoggerRespectsHandlerLevels(t *testing.T) {
	var baseBuf, teeBuf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&baseBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tee := slog.NewJSONHandler(&teeBuf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := logging.TeeLogger(base, tee).With(slog.String("run_id", "abc"))
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Count(baseBuf.String(), "\n") != 2 {
		t.Fatalf("expected two base records, got %q", baseBuf.String())
	}
	if strings.Contains(teeBuf.String(), "debug only") {
		t.Fatalf("tee handler received debug record: %q", teeBuf.String())
	}
	if !strings.Contains(teeBuf.String(), `"run_id":"abc"`) {
		t.Fatalf("tee handler missing attrs: %q", teeBuf.String())
	}
}

func TestNewFileHandlerAppendsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "pipeline.log")
	handler, closer, err := logging.NewFileHandler(path, "info")
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}
	slog.New(handler).Info("stage finished", slog.String("stage", "separation"))
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"stage finished"`) {
		t.Fatalf("unexpected file content %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected nop logger to be disabled")
	}
	logging.WarnWithContext(nil, "ignored", "noop")
}

func TestFileHandlerJSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.log")
	handler, closer, err := logging.NewFileHandler(path, "debug")
	if err != nil {
		t.Fatalf("NewFileHandler: %v", err)
	}
	slog.New(handler).Warn("separation degraded",
		logging.Duration("elapsed", 1234567*time.Microsecond),
		logging.String(logging.FieldStage, "separation"),
	)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &record); err != nil {
		t.Fatalf("decode %q: %v", content, err)
	}
	if record["level"] != "warn" {
		t.Fatalf("level = %v", record["level"])
	}
	if record["elapsed"] != "1.235s" {
		t.Fatalf("elapsed = %v", record["elapsed"])
	}
	ts, _ := record["ts"].(string)
	parsed, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts)
	if err != nil || parsed.Location() != time.UTC {
		t.Fatalf("unexpected ts %q: %v", ts, err)
	}
	if _, ok := record["time"]; ok {
		t.Fatal("time key should be renamed to ts")
	}
}

func TestDomainAttrs(t *testing.T) {
	if got := logging.Seconds("duration_seconds", 181.2049); got.Value.Float64() != 181.2 {
		t.Fatalf("Seconds rounded to %v", got.Value.Float64())
	}
	if got := logging.Stage("translation"); got.Key != logging.FieldStage || got.Value.String() != "translation" {
		t.Fatalf("unexpected stage attr %v", got)
	}
	if got := logging.Provider("htdemucs"); got.Key != logging.FieldProvider {
		t.Fatalf("unexpected provider key %q", got.Key)
	}
	if got := logging.ChunkIndex(3); got.Key != logging.FieldChunkIndex || got.Value.Int64() != 3 {
		t.Fatalf("unexpected chunk attr %v", got)
	}
}
