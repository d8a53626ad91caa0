package pipeline

import (
	"log/slog"
	"time"

	"lyricsmith/internal/chunking"
	"lyricsmith/internal/config"
	"lyricsmith/internal/media"
	"lyricsmith/internal/media/ffmpeg"
	"lyricsmith/internal/media/ffprobe"
	"lyricsmith/internal/notifications"
	"lyricsmith/internal/separation"
	"lyricsmith/internal/services/demucs"
	"lyricsmith/internal/services/llm"
	"lyricsmith/internal/services/whisperx"
	"lyricsmith/internal/transcription"
	"lyricsmith/internal/translation"
)

// NewLLMClient builds the shared chat-completion client from cfg.
func NewLLMClient(cfg *config.Config) *llm.Client {
	settings := cfg.GetLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})
}

// NewFromConfig wires the production stages described by cfg. store may be
// nil.
func NewFromConfig(cfg *config.Config, store Store, logger *slog.Logger) *Orchestrator {
	client := NewLLMClient(cfg)
	tool := ffmpeg.New(cfg.FFmpegBinary(), nil)
	prober := media.NewFFprobeProber(cfg.FFprobeBinary(), ffprobe.Inspect, logger)

	demucsService := demucs.NewService(cfg.Separation.DemucsBinary, cfg.Separation.Device, nil)
	runs := demucs.DefaultRuns(cfg.Separation.Models, cfg.Separation.AlternateFormats)
	separator := separation.NewStage(
		separation.DemucsEngines(demucsService, runs, tool),
		tool,
		separation.Options{
			MinStemBytes: cfg.Separation.MinStemBytes,
			Timeout:      seconds(cfg.Separation.TimeoutSeconds),
		},
		logger,
	)

	var detector chunking.SilenceDetector
	if cfg.Transcription.SilenceAware {
		detector = tool
	}
	chunker := chunking.NewEngine(tool, detector, chunking.Options{
		SilenceAware:   cfg.Transcription.SilenceAware,
		NoiseDB:        cfg.Transcription.SilenceNoiseDB,
		MinSilenceSecs: cfg.Transcription.SilenceMinSeconds,
	}, logger)

	providers := transcription.BuildProviders(cfg.Transcription.Providers, transcription.Deps{
		Client:      client,
		AudioModel:  cfg.Transcription.AudioModel,
		SpeechModel: cfg.Transcription.SpeechModel,
		WhisperX: whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.WhisperXCUDAEnabled,
		}, nil),
		WorkDir: cfg.Paths.WorkDir,
	})
	transcriber := transcription.NewStage(providers, chunker, transcription.Options{
		ChunkSeconds:      cfg.Transcription.ChunkSeconds,
		RetryChunkSeconds: cfg.Transcription.RetryChunkSeconds,
		MaxTokens:         cfg.Transcription.MaxTokens,
		RetryMaxTokens:    cfg.Transcription.RetryMaxTokens,
		MinChars:          cfg.Transcription.MinChars,
		Workers:           cfg.Transcription.Workers,
		ProviderTimeout:   seconds(cfg.Transcription.ProviderTimeoutSeconds),
	}, logger)

	translationTimeout := seconds(cfg.Translation.TimeoutSeconds)
	translator := translation.NewStage(
		translation.NewLLMDetector(client, cfg.DetectModel(), translationTimeout, logger),
		client,
		translation.Options{
			Models:              cfg.TranslationModels(),
			GenerateTemperature: cfg.Translation.GenerateTemperature,
			ExtractTemperature:  cfg.Translation.ExtractTemperature,
			GenerateMaxTokens:   cfg.Translation.GenerateMaxTokens,
			ExtractMaxTokens:    cfg.Translation.ExtractMaxTokens,
			Timeout:             translationTimeout,
		},
		logger,
	)

	return New(Deps{
		Separator:   separator,
		Transcriber: transcriber,
		Translator:  translator,
		Prober:      prober,
		Store:       store,
		Notifier:    notifications.NewService(cfg),
	}, Options{
		OutputDir:       cfg.Paths.OutputDir,
		WorkDir:         cfg.Paths.WorkDir,
		TargetLanguages: cfg.Translation.TargetLanguages,
		LogLevel:        cfg.Logging.Level,
	}, logger)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
