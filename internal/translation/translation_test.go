package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"lyricsmith/internal/language"
	"lyricsmith/internal/services"
	"lyricsmith/internal/services/llm"
)

type scriptedTranslator struct {
	mu       sync.Mutex
	requests []llm.Request
	respond  func(req llm.Request) (string, error)
}

func (s *scriptedTranslator) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.respond(req)
}

func isExtract(req llm.Request) bool {
	return strings.Contains(req.SystemPrompt, "extraction specialist")
}

func defaultOptions() Options {
	return Options{
		Models:              []string{"Qwen3-32B-thinking-Hackathon"},
		GenerateTemperature: 0.7,
		ExtractTemperature:  0.1,
		GenerateMaxTokens:   2048,
		ExtractMaxTokens:    1024,
	}
}

func TestTranslateTwoPasses(t *testing.T) {
	translator := &scriptedTranslator{respond: func(req llm.Request) (string, error) {
		if isExtract(req) {
			return "<think>ok</think>\nHere is the translation:\nVoy a trabajar el lunes\nEl sol en mi cara", nil
		}
		return "<think>analyze rhyme</think>\nVoy a trabajar el lunes\nEl sol en mi cara", nil
	}}
	stage := NewStage(nil, translator, defaultOptions(), nil)

	got, err := stage.Translate(context.Background(), "I go to work on Monday\nSun on my face", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got.Text != "Voy a trabajar el lunes\nEl sol en mi cara" || got.FromGenerate {
		t.Fatalf("unexpected translation %+v", got)
	}
	if len(translator.requests) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(translator.requests))
	}
	gen, ext := translator.requests[0], translator.requests[1]
	if gen.Temperature != 0.7 || gen.MaxTokens != 2048 || !strings.Contains(gen.UserPrompt, "Sun on my face") {
		t.Fatalf("unexpected generate request %+v", gen)
	}
	if ext.Temperature != 0.1 || ext.MaxTokens != 1024 || !strings.Contains(ext.UserPrompt, "analyze rhyme") {
		t.Fatalf("unexpected extract request %+v", ext)
	}
}

func TestTranslateEmptyExtractFallsBackToGenerate(t *testing.T) {
	translator := &scriptedTranslator{respond: func(req llm.Request) (string, error) {
		if isExtract(req) {
			return "<think>only reasoning</think>", nil
		}
		return "<think>plan</think>\nBonjour le monde\nOkay that is the translation", nil
	}}
	stage := NewStage(nil, translator, defaultOptions(), nil)

	got, err := stage.Translate(context.Background(), "Hello world", "English", "French")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got.Text != "Bonjour le monde" || !got.FromGenerate {
		t.Fatalf("unexpected translation %+v", got)
	}
	// Extract was retried once with a doubled budget before falling back.
	extracts := 0
	for _, req := range translator.requests {
		if isExtract(req) {
			extracts++
		}
	}
	if extracts != 2 {
		t.Fatalf("expected 2 extract calls, got %d", extracts)
	}
}

func TestTranslateGenerateFailureFailsTarget(t *testing.T) {
	translator := &scriptedTranslator{respond: func(llm.Request) (string, error) {
		return "", errors.New("503")
	}}
	opts := defaultOptions()
	opts.Models = []string{"a", "b"}
	stage := NewStage(nil, translator, opts, nil)

	_, err := stage.Translate(context.Background(), "Hello world", "English", "German")
	if !errors.Is(err, services.ErrStageFailed) {
		t.Fatalf("expected stage failure, got %v", err)
	}
	if len(translator.requests) != 4 {
		t.Fatalf("expected two models with one relaxed retry each, got %d calls", len(translator.requests))
	}
	if translator.requests[1].MaxTokens != 4096 || translator.requests[2].Model != "b" {
		t.Fatalf("unexpected retry sequence %+v", translator.requests)
	}
}

func TestTranslateSkipsSameLanguage(t *testing.T) {
	translator := &scriptedTranslator{respond: func(llm.Request) (string, error) {
		t.Fatal("translator must not be called")
		return "", nil
	}}
	stage := NewStage(nil, translator, defaultOptions(), nil)
	got, err := stage.Translate(context.Background(), "Hola", "Spanish", "es")
	if err != nil || !got.Skipped || got.Text != "Hola" {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}
}

func TestTranslateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	translator := &scriptedTranslator{respond: func(llm.Request) (string, error) {
		cancel()
		return "", context.Canceled
	}}
	stage := NewStage(nil, translator, defaultOptions(), nil)
	if _, err := stage.Translate(ctx, "Hello", "English", "Spanish"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestLLMDetector(t *testing.T) {
	long := strings.Repeat("la vida es bella ", 40)
	translator := &scriptedTranslator{respond: func(llm.Request) (string, error) {
		return "<think>looks romance</think>\nThe language is Spanish.", nil
	}}
	detector := NewLLMDetector(translator, "detect-model", 0, nil)
	got, err := detector.Detect(context.Background(), long)
	if err != nil || got != "Spanish" {
		t.Fatalf("Detect = %q, %v", got, err)
	}
	req := translator.requests[0]
	if req.MaxTokens != 50 || req.Temperature != 0.1 || req.Model != "detect-model" {
		t.Fatalf("unexpected request %+v", req)
	}
	sample := strings.TrimPrefix(req.UserPrompt, "Detect the language of this text:\n\n")
	if len([]rune(sample)) > DetectSampleChars {
		t.Fatalf("sample too long: %d", len([]rune(sample)))
	}
}

func TestDetectLanguageUnknownOnFailure(t *testing.T) {
	translator := &scriptedTranslator{respond: func(llm.Request) (string, error) {
		return "", errors.New("unauthorized")
	}}
	stage := NewStage(NewLLMDetector(translator, "", 0, nil), translator, defaultOptions(), nil)
	if got := stage.DetectLanguage(context.Background(), "some lyrics here"); got != language.Unknown {
		t.Fatalf("expected Unknown, got %q", got)
	}
}

func TestParseLanguageAnswer(t *testing.T) {
	tests := map[string]string{
		"Spanish":                     "Spanish",
		"  french\n(high confidence)": "French",
		"<think>hmm</think>":          language.Unknown,
		"":                            language.Unknown,
		"pt-BR":                       "Portuguese",
	}
	for raw, want := range tests {
		if got := ParseLanguageAnswer(raw); got != want {
			t.Errorf("ParseLanguageAnswer(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestSampleIsRuneSafe(t *testing.T) {
	if got := Sample("  日本語の歌  ", 3); got != "日本語" {
		t.Fatalf("unexpected sample %q", got)
	}
}
