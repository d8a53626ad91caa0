package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeSeparation()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.InboxDir, err = expandPath(strings.TrimSpace(c.Paths.InboxDir)); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("LYRICSMITH_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		for _, key := range []string{"LYRICSMITH_API_KEY", "BOSON_API_KEY", "OPENAI_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
}

func (c *Config) normalizeSeparation() {
	c.Separation.DemucsBinary = strings.TrimSpace(c.Separation.DemucsBinary)
	if c.Separation.DemucsBinary == "" {
		c.Separation.DemucsBinary = defaultDemucsBinary
	}
	c.Separation.Device = strings.ToLower(strings.TrimSpace(c.Separation.Device))
	if c.Separation.Device == "" {
		c.Separation.Device = defaultSeparationDevice
	}
	c.Separation.Models = normalizeList(c.Separation.Models, false)
	if len(c.Separation.Models) == 0 {
		c.Separation.Models = append([]string(nil), defaultSeparationModels...)
	}
	if c.Separation.TimeoutSeconds <= 0 {
		c.Separation.TimeoutSeconds = defaultSeparationTimeout
	}
	if c.Separation.MinStemBytes <= 0 {
		c.Separation.MinStemBytes = defaultMinStemBytes
	}
}

func (c *Config) normalizeTranscription() {
	t := &c.Transcription
	t.Providers = normalizeList(t.Providers, true)
	if len(t.Providers) == 0 {
		t.Providers = append([]string(nil), defaultTranscriptionProviders...)
	}
	t.AudioModel = strings.TrimSpace(t.AudioModel)
	if t.AudioModel == "" {
		t.AudioModel = defaultAudioModel
	}
	t.SpeechModel = strings.TrimSpace(t.SpeechModel)
	if t.SpeechModel == "" {
		t.SpeechModel = defaultSpeechModel
	}
	t.WhisperXModel = strings.TrimSpace(t.WhisperXModel)
	if t.WhisperXModel == "" {
		t.WhisperXModel = defaultWhisperXModel
	}
	if t.ChunkSeconds <= 0 {
		t.ChunkSeconds = defaultChunkSeconds
	}
	if t.RetryChunkSeconds <= 0 {
		t.RetryChunkSeconds = defaultRetryChunkSeconds
	}
	if t.MaxTokens <= 0 {
		t.MaxTokens = defaultTranscriptionMaxTokens
	}
	if t.RetryMaxTokens <= 0 {
		t.RetryMaxTokens = defaultTranscriptionRetryTokens
	}
	if t.MinChars <= 0 {
		t.MinChars = defaultTranscriptMinChars
	}
	if t.Workers <= 0 {
		t.Workers = defaultTranscriptionWorkers
	}
	if t.ProviderTimeoutSeconds <= 0 {
		t.ProviderTimeoutSeconds = defaultProviderTimeoutSeconds
	}
	if t.SilenceNoiseDB == 0 {
		t.SilenceNoiseDB = defaultSilenceNoiseDB
	}
	if t.SilenceMinSeconds <= 0 {
		t.SilenceMinSeconds = defaultSilenceMinSeconds
	}
}

func (c *Config) normalizeTranslation() {
	t := &c.Translation
	t.Models = normalizeList(t.Models, false)
	t.DetectModel = strings.TrimSpace(t.DetectModel)
	langs := make([]string, 0, len(t.TargetLanguages))
	seen := make(map[string]struct{}, len(t.TargetLanguages))
	for _, lang := range t.TargetLanguages {
		trimmed := strings.TrimSpace(lang)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		langs = append(langs, trimmed)
	}
	if len(langs) == 0 {
		langs = []string{defaultTargetLanguage}
	}
	t.TargetLanguages = langs
	if t.GenerateMaxTokens <= 0 {
		t.GenerateMaxTokens = defaultGenerateMaxTokens
	}
	if t.ExtractMaxTokens <= 0 {
		t.ExtractMaxTokens = defaultExtractMaxTokens
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = defaultTranslationTimeout
	}
}

func (c *Config) normalizeAPI() {
	if c.API.MaxConcurrentRuns <= 0 {
		c.API.MaxConcurrentRuns = defaultMaxConcurrentRuns
	}
	if c.API.MaxUploadMB <= 0 {
		c.API.MaxUploadMB = defaultMaxUploadMB
	}
	if c.API.MinFreeDiskMB < 0 {
		c.API.MinFreeDiskMB = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(values []string, lower bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if lower {
			normalized = strings.ToLower(normalized)
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
