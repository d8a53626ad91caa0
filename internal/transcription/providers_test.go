package transcription

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricsmith/internal/services/llm"
)

type fakeCompleter struct {
	req    llm.Request
	answer string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.req = req
	return f.answer, nil
}

func TestAudioModelProviderSendsAudioAndSanitizes(t *testing.T) {
	chunk := filepath.Join(t.TempDir(), "chunk_000.wav")
	if err := os.WriteFile(chunk, []byte("RIFFDATA"), 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	client := &fakeCompleter{answer: "<think>listening</think>\nHere are the lyrics:\nHello from the other side\nI must have called"}
	provider := NewAudioModelProvider(client, "higgs-audio-understanding-Hackathon")

	got, err := provider.Transcribe(context.Background(), chunk, Budget{MaxTokens: 4096})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "Hello from the other side\nI must have called" {
		t.Fatalf("unexpected text %q", got)
	}
	if client.req.Audio == nil || client.req.Audio.Format != "wav" || string(client.req.Audio.Data) != "RIFFDATA" {
		t.Fatalf("audio not attached: %+v", client.req.Audio)
	}
	if client.req.Model != "higgs-audio-understanding-Hackathon" || client.req.MaxTokens != 4096 || client.req.Temperature != 0 {
		t.Fatalf("unexpected request %+v", client.req)
	}
	if !strings.Contains(client.req.SystemPrompt, "professional audio transcriptionist") {
		t.Fatal("expected transcriptionist prompt")
	}
}

func TestSpeechModelProviderMissingFile(t *testing.T) {
	provider := NewSpeechModelProvider(&fakeCompleter{}, "whisper-1")
	if _, err := provider.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), Budget{}); err == nil {
		t.Fatal("expected error for missing chunk")
	}
	if provider.Name() != "speech_model" || !provider.Relaxes() {
		t.Fatal("unexpected provider identity")
	}
}

func TestPlaceholderNeverValid(t *testing.T) {
	stage := newStage(t, &fakeExtractor{})
	text, err := PlaceholderProvider{}.Transcribe(context.Background(), "/tmp/chunk_003.wav", Budget{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(text, "chunk_003.wav") || stage.Valid(text) {
		t.Fatalf("unexpected placeholder %q", text)
	}
}

func TestBuildProviders(t *testing.T) {
	providers := BuildProviders([]string{"whisperx", "bogus", "audio_model", "placeholder"}, Deps{WorkDir: t.TempDir()})
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if strings.Join(names, ",") != "whisperx,audio_model,placeholder" {
		t.Fatalf("unexpected providers %v", names)
	}
}
