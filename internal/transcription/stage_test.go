package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"lyricsmith/internal/chunking"
	"lyricsmith/internal/media"
)

type fakeProber struct{ duration float64 }

func (f fakeProber) Duration(context.Context, string) float64 { return f.duration }

func (f fakeProber) Format(context.Context, string) media.SampleFormat {
	return media.SampleFormat{Container: "wav"}
}

type fakeExtractor struct {
	mu        sync.Mutex
	durations []float64
}

func (f *fakeExtractor) ExtractSegment(_ context.Context, _ string, _ float64, duration float64, dest string) error {
	f.mu.Lock()
	f.durations = append(f.durations, duration)
	f.mu.Unlock()
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type funcProvider struct {
	name string
	fn   func(ctx context.Context, path string, budget Budget) (string, error)
}

func (f funcProvider) Name() string { return f.name }

func (f funcProvider) Transcribe(ctx context.Context, path string, budget Budget) (string, error) {
	return f.fn(ctx, path, budget)
}

func defaultOptions() Options {
	return Options{
		ChunkSeconds:      90,
		RetryChunkSeconds: 60,
		MaxTokens:         4096,
		RetryMaxTokens:    8192,
		MinChars:          20,
		Workers:           2,
	}
}

func newStage(t *testing.T, extractor *fakeExtractor, providers ...Provider) *Stage {
	t.Helper()
	chunker := chunking.NewEngine(extractor, nil, chunking.Options{}, nil)
	return NewStage(providers, chunker, defaultOptions(), nil)
}

func vocals(t *testing.T, duration float64) *media.Asset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocals.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write vocals: %v", err)
	}
	return media.NewAsset(path, fakeProber{duration: duration})
}

func TestTranscribeShortAudioSkipsInvalidProvider(t *testing.T) {
	short := funcProvider{name: "short", fn: func(context.Context, string, Budget) (string, error) {
		return "la la", nil
	}}
	good := funcProvider{name: "good", fn: func(context.Context, string, Budget) (string, error) {
		return "I go out to work on Monday morning", nil
	}}
	extractor := &fakeExtractor{}
	stage := newStage(t, extractor, short, good)

	got, err := stage.Transcribe(context.Background(), vocals(t, 45), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Failed || got.Text != "I go out to work on Monday morning" || got.Escalated {
		t.Fatalf("unexpected transcript %+v", got)
	}
	if len(extractor.durations) != 0 {
		t.Fatal("short audio must not be chunked")
	}
	if len(got.Providers) != 1 || got.Providers[0] != "good" {
		t.Fatalf("unexpected providers %v", got.Providers)
	}
}

func TestTranscribeChunksInOrder(t *testing.T) {
	provider := funcProvider{name: "p", fn: func(_ context.Context, path string, _ Budget) (string, error) {
		base := strings.TrimSuffix(filepath.Base(path), ".wav")
		return "words from " + base + " window", nil
	}}
	extractor := &fakeExtractor{}
	stage := newStage(t, extractor, provider)

	scratch := t.TempDir()
	got, err := stage.Transcribe(context.Background(), vocals(t, 200), scratch)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := "words from chunk_000 window words from chunk_001 window words from chunk_002 window"
	if got.Text != want || got.Chunks != 3 {
		t.Fatalf("unexpected transcript %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Join(scratch, "chunks"))
	if len(entries) != 0 {
		t.Fatalf("chunk files were not cleaned up: %d left", len(entries))
	}
}

func TestTranscribeMarksUnavailableChunk(t *testing.T) {
	provider := funcProvider{name: "p", fn: func(_ context.Context, path string, _ Budget) (string, error) {
		if strings.Contains(path, "chunk_001") {
			return "", errors.New("timeout")
		}
		return "a perfectly fine lyric line", nil
	}}
	stage := newStage(t, &fakeExtractor{}, provider)
	got, err := stage.Transcribe(context.Background(), vocals(t, 200), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := "a perfectly fine lyric line [chunk 2 unavailable] a perfectly fine lyric line"
	if got.Text != want {
		t.Fatalf("unexpected transcript %q", got.Text)
	}
}

func TestTranscribeEscalates(t *testing.T) {
	var mu sync.Mutex
	var budgets []int
	provider := funcProvider{name: "p", fn: func(_ context.Context, _ string, budget Budget) (string, error) {
		mu.Lock()
		budgets = append(budgets, budget.MaxTokens)
		mu.Unlock()
		if budget.MaxTokens < 8192 {
			return "cut off", nil
		}
		return "the complete second attempt lyric", nil
	}}
	extractor := &fakeExtractor{}
	stage := newStage(t, extractor, provider)

	got, err := stage.Transcribe(context.Background(), vocals(t, 100), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Failed || !got.Escalated || got.Chunks != 2 {
		t.Fatalf("unexpected transcript %+v", got)
	}
	// First pass: 90 + 10; second pass: 60 + 40.
	if len(extractor.durations) != 4 || extractor.durations[2] != 60 || extractor.durations[3] != 40 {
		t.Fatalf("unexpected extract durations %v", extractor.durations)
	}
}

func TestTranscribeReturnsSentinel(t *testing.T) {
	stage := newStage(t, &fakeExtractor{}, PlaceholderProvider{})
	got, err := stage.Transcribe(context.Background(), vocals(t, 30), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !got.Failed || got.Text != FailedSentinel {
		t.Fatalf("expected sentinel, got %+v", got)
	}
}

func TestTranscribeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := funcProvider{name: "p", fn: func(context.Context, string, Budget) (string, error) {
		cancel()
		return "", context.Canceled
	}}
	stage := newStage(t, &fakeExtractor{}, provider)
	_, err := stage.Transcribe(ctx, vocals(t, 200), t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestValid(t *testing.T) {
	stage := newStage(t, &fakeExtractor{})
	if stage.Valid("too short") {
		t.Fatal("short text must be invalid")
	}
	if stage.Valid("[AUDIO TRANSCRIPTION NEEDED] and lots of other words") {
		t.Fatal("placeholder text must be invalid")
	}
	if !stage.Valid("a transcript that is long enough") {
		t.Fatal("expected valid transcript")
	}
}

func TestTranscribeKeepsShortTailLyric(t *testing.T) {
	provider := funcProvider{name: "p", fn: func(_ context.Context, path string, _ Budget) (string, error) {
		if strings.Contains(path, "chunk_001") {
			return "Oh yeah, baby", nil
		}
		return "I go out to work on Monday morning", nil
	}}
	stage := newStage(t, &fakeExtractor{}, provider)

	got, err := stage.Transcribe(context.Background(), vocals(t, 100), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.Failed || got.Escalated || got.Chunks != 2 {
		t.Fatalf("unexpected transcript %+v", got)
	}
	if want := "I go out to work on Monday morning Oh yeah, baby"; got.Text != want {
		t.Fatalf("transcript = %q, want %q", got.Text, want)
	}
}

func TestTranscribeRejectsTinyChunkText(t *testing.T) {
	provider := funcProvider{name: "p", fn: func(_ context.Context, path string, _ Budget) (string, error) {
		if strings.Contains(path, "chunk_001") {
			return "mm hmm", nil
		}
		return "I go out to work on Monday morning", nil
	}}
	stage := newStage(t, &fakeExtractor{}, provider)

	got, err := stage.Transcribe(context.Background(), vocals(t, 100), t.TempDir())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if want := "I go out to work on Monday morning [chunk 2 unavailable]"; got.Text != want {
		t.Fatalf("transcript = %q, want %q", got.Text, want)
	}
}

func TestValidCountsCharacters(t *testing.T) {
	stage := newStage(t, &fakeExtractor{})
	// Seven CJK characters are 21 bytes.
	if stage.Valid("我走出去上班了") {
		t.Fatal("seven characters must be invalid")
	}
	if !stage.Valid("星期一早上我出门去上班星期二我去度蜜月了") {
		t.Fatal("twenty characters must be valid")
	}
	if validChunk("[AUDIO TRANSCRIPTION NEEDED]") {
		t.Fatal("placeholder chunk text must be invalid")
	}
}
