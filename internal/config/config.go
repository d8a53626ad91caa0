package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	LogDir    string `toml:"log_dir"`
	InboxDir  string `toml:"inbox_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// LLM contains shared connection settings for the OpenAI-compatible endpoint
// used for transcription, language detection, and translation.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Separation contains configuration for vocal/accompaniment separation.
type Separation struct {
	DemucsBinary string `toml:"demucs_binary"`
	Device       string `toml:"device"`
	// Models lists Demucs models tried in order with two-stem WAV output.
	Models []string `toml:"models"`
	// AlternateFormats appends MP3-output and full-separation configurations
	// after the two-stem models.
	AlternateFormats bool  `toml:"alternate_formats"`
	TimeoutSeconds   int   `toml:"timeout_seconds"`
	MinStemBytes     int64 `toml:"min_stem_bytes"`
}

// Transcription contains configuration for vocal transcription.
type Transcription struct {
	// Providers lists transcription providers in priority order. Known values:
	// "audio_model", "speech_model", "whisperx", "placeholder".
	Providers              []string `toml:"providers"`
	AudioModel             string   `toml:"audio_model"`
	SpeechModel            string   `toml:"speech_model"`
	WhisperXModel          string   `toml:"whisperx_model"`
	WhisperXCUDAEnabled    bool     `toml:"whisperx_cuda_enabled"`
	ChunkSeconds           float64  `toml:"chunk_seconds"`
	RetryChunkSeconds      float64  `toml:"retry_chunk_seconds"`
	MaxTokens              int      `toml:"max_tokens"`
	RetryMaxTokens         int      `toml:"retry_max_tokens"`
	MinChars               int      `toml:"min_chars"`
	Workers                int      `toml:"workers"`
	ProviderTimeoutSeconds int      `toml:"provider_timeout_seconds"`
	SilenceAware           bool     `toml:"silence_aware"`
	SilenceNoiseDB         float64  `toml:"silence_noise_db"`
	SilenceMinSeconds      float64  `toml:"silence_min_seconds"`
}

// Translation contains configuration for language detection and translation.
type Translation struct {
	// Models lists chat models tried in order for each translation pass.
	// Falls back to [llm].model when empty.
	Models              []string `toml:"models"`
	DetectModel         string   `toml:"detect_model"`
	TargetLanguages     []string `toml:"target_languages"`
	GenerateTemperature float64  `toml:"generate_temperature"`
	ExtractTemperature  float64  `toml:"extract_temperature"`
	GenerateMaxTokens   int      `toml:"generate_max_tokens"`
	ExtractMaxTokens    int      `toml:"extract_max_tokens"`
	TimeoutSeconds      int      `toml:"timeout_seconds"`
}

// API contains configuration for the HTTP front end.
type API struct {
	MaxConcurrentRuns int `toml:"max_concurrent_runs"`
	MaxUploadMB       int `toml:"max_upload_mb"`
	MinFreeDiskMB     int `toml:"min_free_disk_mb"`
}

// Notifications contains ntfy delivery settings. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lyricsmith.
//
// Configuration sections by subsystem:
//   - Paths: output/work/log/inbox directories and API bind address
//   - LLM: shared chat-completion connection settings
//   - Separation: Demucs configurations and stem validity thresholds
//   - Transcription: provider order, chunking, and retry budgets
//   - Translation: models, target languages, and pass parameters
//   - API: HTTP front end limits
//   - Notifications: ntfy topic for run outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Separation    Separation    `toml:"separation"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lyricsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lyricsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run writes into.
// The inbox directory is only created when configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.InboxDir) != "" {
		if err := os.MkdirAll(c.Paths.InboxDir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Paths.InboxDir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable name used for extraction and mixing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the shared LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}

// TranslationModels returns the chat models used for translation passes.
// Falls back to [llm].model when [translation].models is empty.
func (c *Config) TranslationModels() []string {
	if len(c.Translation.Models) > 0 {
		return append([]string(nil), c.Translation.Models...)
	}
	if model := strings.TrimSpace(c.LLM.Model); model != "" {
		return []string{model}
	}
	return nil
}

// DetectModel returns the chat model used for language detection.
func (c *Config) DetectModel() string {
	if model := strings.TrimSpace(c.Translation.DetectModel); model != "" {
		return model
	}
	return strings.TrimSpace(c.LLM.Model)
}
