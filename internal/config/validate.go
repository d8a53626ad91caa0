package config

import (
	"errors"
	"fmt"
	"strings"
)

// Known transcription provider identifiers.
const (
	ProviderAudioModel  = "audio_model"
	ProviderSpeechModel = "speech_model"
	ProviderWhisperX    = "whisperx"
	ProviderPlaceholder = "placeholder"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds":                    c.LLM.TimeoutSeconds,
		"separation.timeout_seconds":             c.Separation.TimeoutSeconds,
		"transcription.provider_timeout_seconds": c.Transcription.ProviderTimeoutSeconds,
		"transcription.workers":                  c.Transcription.Workers,
		"translation.timeout_seconds":            c.Translation.TimeoutSeconds,
		"api.max_concurrent_runs":                c.API.MaxConcurrentRuns,
	})
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	for _, provider := range t.Providers {
		switch provider {
		case ProviderAudioModel, ProviderSpeechModel, ProviderWhisperX, ProviderPlaceholder:
		default:
			return fmt.Errorf("transcription.providers: unknown provider %q", provider)
		}
	}
	if t.RetryChunkSeconds > t.ChunkSeconds {
		return errors.New("transcription.retry_chunk_seconds must not exceed transcription.chunk_seconds")
	}
	if t.RetryMaxTokens < t.MaxTokens {
		return errors.New("transcription.retry_max_tokens must be >= transcription.max_tokens")
	}
	if t.SilenceNoiseDB > 0 {
		return errors.New("transcription.silence_noise_db must be <= 0")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	t := c.Translation
	for key, value := range map[string]float64{
		"translation.generate_temperature": t.GenerateTemperature,
		"translation.extract_temperature":  t.ExtractTemperature,
	} {
		if value < 0 || value > 2 {
			return fmt.Errorf("%s must be between 0 and 2", key)
		}
	}
	if len(t.TargetLanguages) == 0 {
		return errors.New("translation.target_languages must include at least one language")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
