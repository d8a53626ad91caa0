package config

const (
	defaultOutputDir                = "~/.local/share/lyricsmith/outputs"
	defaultWorkDir                  = "~/.local/share/lyricsmith/work"
	defaultLogDir                   = "~/.local/share/lyricsmith/logs"
	defaultAPIBind                  = "127.0.0.1:8000"
	defaultLLMBaseURL               = "https://hackathon.boson.ai/v1/chat/completions"
	defaultLLMModel                 = "Qwen3-32B-thinking-Hackathon"
	defaultLLMTitle                 = "lyricsmith"
	defaultLLMTimeoutSeconds        = 120
	defaultDemucsBinary             = "demucs"
	defaultSeparationDevice         = "cpu"
	defaultSeparationTimeout        = 300
	defaultMinStemBytes             = 1024
	defaultAudioModel               = "higgs-audio-understanding-Hackathon"
	defaultSpeechModel              = "whisper-1"
	defaultWhisperXModel            = "base"
	defaultChunkSeconds             = 90.0
	defaultRetryChunkSeconds        = 60.0
	defaultTranscriptionMaxTokens   = 4096
	defaultTranscriptionRetryTokens = 8192
	defaultTranscriptMinChars       = 20
	defaultTranscriptionWorkers     = 2
	defaultProviderTimeoutSeconds   = 300
	defaultSilenceNoiseDB           = -30.0
	defaultSilenceMinSeconds        = 1.0
	defaultTargetLanguage           = "English"
	defaultGenerateTemperature      = 0.7
	defaultExtractTemperature       = 0.1
	defaultGenerateMaxTokens        = 2048
	defaultExtractMaxTokens         = 1024
	defaultTranslationTimeout       = 120
	defaultMaxConcurrentRuns        = 1
	defaultMaxUploadMB              = 200
	defaultMinFreeDiskMB            = 512
	defaultNtfyTimeoutSeconds       = 10
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

var (
	defaultSeparationModels       = []string{"htdemucs", "mdx_extra", "mdx_q"}
	defaultTranscriptionProviders = []string{"audio_model", "speech_model", "whisperx", "placeholder"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Separation: Separation{
			DemucsBinary:     defaultDemucsBinary,
			Device:           defaultSeparationDevice,
			Models:           append([]string(nil), defaultSeparationModels...),
			AlternateFormats: true,
			TimeoutSeconds:   defaultSeparationTimeout,
			MinStemBytes:     defaultMinStemBytes,
		},
		Transcription: Transcription{
			Providers:              append([]string(nil), defaultTranscriptionProviders...),
			AudioModel:             defaultAudioModel,
			SpeechModel:            defaultSpeechModel,
			WhisperXModel:          defaultWhisperXModel,
			ChunkSeconds:           defaultChunkSeconds,
			RetryChunkSeconds:      defaultRetryChunkSeconds,
			MaxTokens:              defaultTranscriptionMaxTokens,
			RetryMaxTokens:         defaultTranscriptionRetryTokens,
			MinChars:               defaultTranscriptMinChars,
			Workers:                defaultTranscriptionWorkers,
			ProviderTimeoutSeconds: defaultProviderTimeoutSeconds,
			SilenceNoiseDB:         defaultSilenceNoiseDB,
			SilenceMinSeconds:      defaultSilenceMinSeconds,
		},
		Translation: Translation{
			TargetLanguages:     []string{defaultTargetLanguage},
			GenerateTemperature: defaultGenerateTemperature,
			ExtractTemperature:  defaultExtractTemperature,
			GenerateMaxTokens:   defaultGenerateMaxTokens,
			ExtractMaxTokens:    defaultExtractMaxTokens,
			TimeoutSeconds:      defaultTranslationTimeout,
		},
		API: API{
			MaxConcurrentRuns: defaultMaxConcurrentRuns,
			MaxUploadMB:       defaultMaxUploadMB,
			MinFreeDiskMB:     defaultMinFreeDiskMB,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
