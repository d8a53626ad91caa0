package translation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lyricsmith/internal/language"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/sanitize"
	"lyricsmith/internal/services/llm"
)

// DetectSampleChars bounds how much of the transcript is sent for detection.
const DetectSampleChars = 200

const detectPrompt = "You are a language detection expert. Identify the language of the given text and return only the language name in English (e.g., 'English', 'Spanish', 'French', 'German', 'Italian', 'Portuguese', 'Russian', 'Chinese', 'Japanese', 'Korean', etc.)."

// Translator issues chat completions with an explicit temperature and token
// budget. *llm.Client satisfies it.
type Translator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Detector names the language of a text.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// LLMDetector asks a chat model for the language name.
type LLMDetector struct {
	client  Translator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewLLMDetector returns a detector using model through client.
func NewLLMDetector(client Translator, model string, timeout time.Duration, logger *slog.Logger) *LLMDetector {
	return &LLMDetector{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "language"),
	}
}

// Detect returns the canonical language name of text. Any failure yields
// language.Unknown together with the cause.
func (d *LLMDetector) Detect(ctx context.Context, text string) (string, error) {
	sample := Sample(text, DetectSampleChars)
	if sample == "" {
		return language.Unknown, nil
	}
	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	raw, err := d.client.Complete(callCtx, llm.Request{
		Model:        d.model,
		SystemPrompt: detectPrompt,
		UserPrompt:   "Detect the language of this text:\n\n" + sample,
		Temperature:  0.1,
		MaxTokens:    50,
	})
	if err != nil {
		return language.Unknown, err
	}
	name := ParseLanguageAnswer(raw)
	d.logger.Debug("language answer", logging.String("raw", strings.TrimSpace(raw)), logging.String("language", name))
	return name, nil
}

// ParseLanguageAnswer reduces a model answer to a canonical language name:
// reasoning is stripped, the first surviving line is taken, and empty answers
// become language.Unknown.
func ParseLanguageAnswer(raw string) string {
	cleaned := sanitize.Rules{Spans: sanitize.TranslationRules.Spans}.Clean(raw)
	first, _, _ := strings.Cut(cleaned, "\n")
	if name, ok := language.Find(first); ok {
		return name
	}
	return language.Canonical(first)
}

// Sample returns at most n runes of text, trimmed.
func Sample(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(string(runes))
}
