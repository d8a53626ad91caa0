package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lyricsmith/internal/sanitize"
	"lyricsmith/internal/services/llm"
	"lyricsmith/internal/services/whisperx"
)

// Budget carries per-call limits to a provider.
type Budget struct {
	MaxTokens int
	// Relaxed is set on the single retry a provider may receive.
	Relaxed bool
}

// Provider transcribes one audio file.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, chunkPath string, budget Budget) (string, error)
}

// Completer issues chat completions. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

const audioModelPrompt = `You are a professional audio transcriptionist. Transcribe this audio file COMPLETELY from start to finish.

CRITICAL OUTPUT REQUIREMENTS:
- Output ONLY the transcribed lyrics
- Do NOT include any explanations, analysis, or metadata
- Do NOT include phrases like 'Here is the transcription' or 'The lyrics are'
- Do NOT include any text that is not part of the actual song lyrics
- Transcribe EVERY SINGLE WORD from beginning to end
- Include ALL lyrics, verses, choruses, and repetitions
- If any part is unclear, mark it as [UNCLEAR] but continue
- Preserve the exact structure and line breaks
- Return ONLY the clean lyrics, nothing else`

const speechModelPrompt = `Transcribe this audio completely and accurately.

CRITICAL OUTPUT REQUIREMENTS:
- Output ONLY the transcribed lyrics
- Do NOT include any explanations or metadata
- Do NOT include phrases like 'Here is the transcription'
- Include ALL lyrics from beginning to end
- Do not truncate or abbreviate
- Return ONLY the clean lyrics, nothing else`

// ChatProvider sends the audio inline to a chat-completions model and cleans
// the answer with the transcription rules.
type ChatProvider struct {
	name   string
	model  string
	prompt string
	client Completer
}

// NewAudioModelProvider returns the multimodal audio-understanding provider.
func NewAudioModelProvider(client Completer, model string) *ChatProvider {
	return &ChatProvider{name: "audio_model", model: model, prompt: audioModelPrompt, client: client}
}

// NewSpeechModelProvider returns the speech-model alias provider.
func NewSpeechModelProvider(client Completer, model string) *ChatProvider {
	return &ChatProvider{name: "speech_model", model: model, prompt: speechModelPrompt, client: client}
}

func (p *ChatProvider) Name() string { return p.name }

// Relaxes reports that a doubled token budget may rescue a truncated answer.
func (p *ChatProvider) Relaxes() bool { return true }

func (p *ChatProvider) Transcribe(ctx context.Context, chunkPath string, budget Budget) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("%s: no client configured", p.name)
	}
	audio, err := llm.LoadAudio(chunkPath)
	if err != nil {
		return "", err
	}
	raw, err := p.client.Complete(ctx, llm.Request{
		Model:        p.model,
		SystemPrompt: p.prompt,
		Audio:        &audio,
		Temperature:  0,
		MaxTokens:    budget.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return sanitize.TranscriptionRules.Clean(raw), nil
}

// WhisperXProvider transcribes locally through WhisperX.
type WhisperXProvider struct {
	service *whisperx.Service
	workDir string
}

// NewWhisperXProvider returns a local provider writing scratch output under workDir.
func NewWhisperXProvider(service *whisperx.Service, workDir string) *WhisperXProvider {
	return &WhisperXProvider{service: service, workDir: workDir}
}

func (p *WhisperXProvider) Name() string { return "whisperx" }

func (p *WhisperXProvider) Transcribe(ctx context.Context, chunkPath string, _ Budget) (string, error) {
	if p.service == nil {
		return "", errors.New("whisperx: service not configured")
	}
	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}
	outDir, err := os.MkdirTemp(p.workDir, "whisperx-")
	if err != nil {
		return "", fmt.Errorf("whisperx: %w", err)
	}
	defer os.RemoveAll(outDir)

	result, err := p.service.TranscribeFile(ctx, chunkPath, outDir, "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

// PlaceholderNeeded marks text that still needs a human transcription.
const PlaceholderNeeded = "TRANSCRIPTION NEEDED"

// PlaceholderProvider returns a fixed marker naming the file. Its output
// never passes validity; it exists so the attempt log shows the chain reached
// its end.
type PlaceholderProvider struct{}

func (PlaceholderProvider) Name() string { return "placeholder" }

func (PlaceholderProvider) Transcribe(_ context.Context, chunkPath string, _ Budget) (string, error) {
	return fmt.Sprintf("[AUDIO %s]\nFile: %s\n\nThis audio needs manual transcription.",
		PlaceholderNeeded, filepath.Base(chunkPath)), nil
}

// Deps holds the collaborators providers are built from.
type Deps struct {
	Client      Completer
	AudioModel  string
	SpeechModel string
	WhisperX    *whisperx.Service
	WorkDir     string
}

// BuildProviders returns providers for the configured names in order.
// Unknown names are skipped.
func BuildProviders(names []string, deps Deps) []Provider {
	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "audio_model":
			providers = append(providers, NewAudioModelProvider(deps.Client, deps.AudioModel))
		case "speech_model":
			providers = append(providers, NewSpeechModelProvider(deps.Client, deps.SpeechModel))
		case "whisperx":
			providers = append(providers, NewWhisperXProvider(deps.WhisperX, deps.WorkDir))
		case "placeholder":
			providers = append(providers, PlaceholderProvider{})
		}
	}
	return providers
}
