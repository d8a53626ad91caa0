package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lyricsmith/internal/fallback"
	"lyricsmith/internal/language"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/sanitize"
	"lyricsmith/internal/services"
	"lyricsmith/internal/services/llm"
)

const stageName = "translation"

// Options configure both translation passes.
type Options struct {
	// Models are tried in order for each pass.
	Models              []string
	GenerateTemperature float64
	ExtractTemperature  float64
	GenerateMaxTokens   int
	ExtractMaxTokens    int
	// Timeout bounds each model call.
	Timeout time.Duration
}

// Translation is the outcome for one target language.
type Translation struct {
	Target string `json:"target"`
	Text   string `json:"text"`
	// Skipped is set when the target equals the source language; Text then
	// echoes the original.
	Skipped bool `json:"skipped,omitempty"`
	// FromGenerate is set when the extract pass came back empty and the
	// sanitized generate output was used instead.
	FromGenerate bool   `json:"from_generate,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Stage detects the source language and translates lyrics.
type Stage struct {
	detector   Detector
	translator Translator
	opts       Options
	logger     *slog.Logger
}

// NewStage returns a translation stage.
func NewStage(detector Detector, translator Translator, opts Options, logger *slog.Logger) *Stage {
	return &Stage{
		detector:   detector,
		translator: translator,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, stageName),
	}
}

// DetectLanguage returns the canonical source language, or language.Unknown.
func (s *Stage) DetectLanguage(ctx context.Context, transcript string) string {
	logger := logging.WithContext(ctx, s.logger)
	if s.detector == nil {
		return language.Unknown
	}
	name, err := s.detector.Detect(ctx, transcript)
	if err != nil {
		logging.WarnWithContext(logger, "language detection failed",
			"language_detection_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "translation skipped; original lyrics echoed"),
		)
		return language.Unknown
	}
	if strings.TrimSpace(name) == "" {
		return language.Unknown
	}
	logger.Info("language detected", logging.String("language", name))
	return name
}

// Translate renders text from source into target. A target equal to the
// source is skipped and echoes text. A failed generate pass fails the
// translation for this target.
func (s *Stage) Translate(ctx context.Context, text, source, target string) (Translation, error) {
	logger := logging.WithContext(ctx, s.logger).With(logging.String("target", target))
	result := Translation{Target: target}
	if language.Same(source, target) {
		result.Text = text
		result.Skipped = true
		logger.Info("translation skipped; target matches source", logging.String("source", source))
		return result, nil
	}

	generated := s.chain("generate", func(ctx context.Context, model string, call fallback.Call) (string, error) {
		return s.complete(ctx, model, generatePrompt(source, target), generateUserPrompt(text, source, target),
			s.opts.GenerateTemperature, s.budget(s.opts.GenerateMaxTokens, call))
	}, func(v string) bool { return strings.TrimSpace(v) != "" }).Run(ctx)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if !generated.OK() {
		return result, services.Wrap(services.ErrStageFailed, stageName, "generate",
			fmt.Sprintf("translate to %s", target), generated.Err)
	}

	extracted := s.chain("extract", func(ctx context.Context, model string, call fallback.Call) (string, error) {
		raw, err := s.complete(ctx, model, extractPrompt(target), extractUserPrompt(generated.Value, target),
			s.opts.ExtractTemperature, s.budget(s.opts.ExtractMaxTokens, call))
		if err != nil {
			return "", err
		}
		return sanitize.TranslationRules.Clean(raw), nil
	}, func(v string) bool { return v != "" }).Run(ctx)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if extracted.OK() {
		result.Text = extracted.Value
		result.Model = extracted.Provider
	} else {
		result.Text = sanitize.TranslationRules.Clean(generated.Value)
		result.Model = generated.Provider
		result.FromGenerate = true
		logging.WarnWithContext(logger, "extract pass empty; using sanitized generate output",
			"translation_extract_empty",
			logging.Error(extracted.Err),
			logging.String(logging.FieldImpact, "translation may contain stray commentary"),
		)
	}
	if result.Text == "" {
		return Translation{Target: target}, services.Wrap(services.ErrStageFailed, stageName, "extract",
			fmt.Sprintf("translate to %s", target), services.ErrInvalidResult)
	}
	logger.Info("translation complete",
		logging.Provider(result.Model),
		logging.Int("lines", strings.Count(result.Text, "\n")+1),
		logging.Bool("from_generate", result.FromGenerate),
	)
	return result, nil
}

func (s *Stage) budget(base int, call fallback.Call) int {
	if call.Relaxed {
		return base * 2
	}
	return base
}

func (s *Stage) complete(ctx context.Context, model, system, user string, temperature float64, maxTokens int) (string, error) {
	if s.translator == nil {
		return "", services.Wrap(services.ErrConfiguration, stageName, "complete", "no translator configured", nil)
	}
	return s.translator.Complete(ctx, llm.Request{
		Model:        model,
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	})
}

func (s *Stage) chain(pass string, invoke func(context.Context, string, fallback.Call) (string, error), valid func(string) bool) *fallback.Chain[string] {
	models := s.opts.Models
	if len(models) == 0 {
		models = []string{""}
	}
	providers := make([]fallback.Provider[string], 0, len(models))
	for _, model := range models {
		name := model
		if name == "" {
			name = "default"
		}
		providers = append(providers, fallback.Provider[string]{
			Name:         name,
			RetryRelaxed: true,
			Invoke: func(ctx context.Context, call fallback.Call) (string, error) {
				return invoke(ctx, model, call)
			},
		})
	}
	return fallback.New(providers, valid, fallback.Options{
		Timeout: s.opts.Timeout,
		Stage:   stageName + "." + pass,
		Logger:  s.logger,
	})
}
