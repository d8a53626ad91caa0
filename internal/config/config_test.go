package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricsmith/internal/config"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LYRICSMITH_API_KEY", "BOSON_API_KEY", "OPENAI_API_KEY", "LYRICSMITH_API_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearLLMEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "lyricsmith", "outputs")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Paths.InboxDir != "" {
		t.Fatalf("expected inbox disabled by default, got %q", cfg.Paths.InboxDir)
	}
	if cfg.Transcription.ChunkSeconds != 90 || cfg.Transcription.RetryChunkSeconds != 60 {
		t.Fatalf("unexpected chunk bounds: %v/%v", cfg.Transcription.ChunkSeconds, cfg.Transcription.RetryChunkSeconds)
	}
	if cfg.Transcription.MaxTokens != 4096 || cfg.Transcription.RetryMaxTokens != 8192 {
		t.Fatalf("unexpected token budgets: %d/%d", cfg.Transcription.MaxTokens, cfg.Transcription.RetryMaxTokens)
	}
	if got := strings.Join(cfg.Separation.Models, ","); got != "htdemucs,mdx_extra,mdx_q" {
		t.Fatalf("unexpected separation models: %s", got)
	}
	if got := strings.Join(cfg.Transcription.Providers, ","); got != "audio_model,speech_model,whisperx,placeholder" {
		t.Fatalf("unexpected providers: %s", got)
	}
	if len(cfg.Translation.TargetLanguages) != 1 || cfg.Translation.TargetLanguages[0] != "English" {
		t.Fatalf("unexpected target languages: %v", cfg.Translation.TargetLanguages)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty API key, got %q", cfg.LLM.APIKey)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearLLMEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lyricsmith.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(tempDir, "out") + `"
work_dir = "` + filepath.Join(tempDir, "work") + `"
inbox_dir = "` + filepath.Join(tempDir, "inbox") + `"

[llm]
api_key = "  file-key  "

[transcription]
providers = ["Placeholder", "whisperx", "placeholder"]
workers = 4

[translation]
target_languages = ["Spanish", " spanish ", "French"]
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("expected trimmed api key, got %q", cfg.LLM.APIKey)
	}
	if got := strings.Join(cfg.Transcription.Providers, ","); got != "placeholder,whisperx" {
		t.Fatalf("unexpected providers: %s", got)
	}
	if cfg.Transcription.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Transcription.Workers)
	}
	if got := strings.Join(cfg.Translation.TargetLanguages, ","); got != "Spanish,French" {
		t.Fatalf("unexpected target languages: %s", got)
	}
	if cfg.Paths.InboxDir != filepath.Join(tempDir, "inbox") {
		t.Fatalf("unexpected inbox dir: %q", cfg.Paths.InboxDir)
	}
}

func TestLoadUsesEnvAPIKeyFallback(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOSON_API_KEY", "env-key")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.LLM.APIKey)
	}
	if cfg.GetLLM().APIKey != "env-key" {
		t.Fatalf("GetLLM did not carry api key")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	content := "[transcription]\nproviders = [\"telepathy\"]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "telepathy") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestValidateRejectsInvertedRetryBudgets(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Transcription.RetryChunkSeconds = 120
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected retry chunk validation error")
	}

	cfg = config.Default()
	cfg.Transcription.RetryMaxTokens = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected retry token validation error")
	}

	cfg = config.Default()
	cfg.Translation.GenerateTemperature = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected temperature validation error")
	}
}

func TestModelFallbacks(t *testing.T) {
	cfg := config.Default()
	if got := cfg.TranslationModels(); len(got) != 1 || got[0] != cfg.LLM.Model {
		t.Fatalf("expected translation models to fall back to llm.model, got %v", got)
	}
	if cfg.DetectModel() != cfg.LLM.Model {
		t.Fatalf("expected detect model fallback, got %q", cfg.DetectModel())
	}
	cfg.Translation.Models = []string{"a", "b"}
	cfg.Translation.DetectModel = "detector"
	if got := cfg.TranslationModels(); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected translation models: %v", got)
	}
	if cfg.DetectModel() != "detector" {
		t.Fatalf("unexpected detect model: %q", cfg.DetectModel())
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Separation.TimeoutSeconds != 300 {
		t.Fatalf("unexpected separation timeout: %d", cfg.Separation.TimeoutSeconds)
	}
}
