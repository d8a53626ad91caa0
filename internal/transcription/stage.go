package transcription

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"lyricsmith/internal/chunking"
	"lyricsmith/internal/fallback"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/media"
)

const stageName = "transcription"

// FailedSentinel replaces the transcript when no pass produced usable text.
const FailedSentinel = "TRANSCRIPTION_FAILED"

// Options configure chunking, budgets, and concurrency.
type Options struct {
	ChunkSeconds      float64
	RetryChunkSeconds float64
	MaxTokens         int
	RetryMaxTokens    int
	MinChars          int
	Workers           int
	ProviderTimeout   time.Duration
}

// Transcript is the stage outcome.
type Transcript struct {
	Text string `json:"text"`
	// Failed is set when Text is FailedSentinel.
	Failed    bool `json:"failed"`
	Chunks    int  `json:"chunks"`
	Escalated bool `json:"escalated"`
	// Providers names the winning provider of each transcribed chunk.
	Providers []string `json:"providers,omitempty"`
}

// Stage transcribes a vocal stem chunk by chunk.
type Stage struct {
	providers []Provider
	chunker   *chunking.Engine
	opts      Options
	logger    *slog.Logger
}

// NewStage returns a transcription stage trying providers in order.
func NewStage(providers []Provider, chunker *chunking.Engine, opts Options, logger *slog.Logger) *Stage {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MinChars <= 0 {
		opts.MinChars = 20
	}
	return &Stage{
		providers: append([]Provider(nil), providers...),
		chunker:   chunker,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, stageName),
	}
}

// minChunkChars is the shortest text accepted from one chunk of a multi-chunk
// pass. A window holding only a short tail phrase is still real lyrics.
const minChunkChars = 11

// Valid reports whether text is usable as a transcript.
func (s *Stage) Valid(text string) bool {
	return usable(text, s.opts.MinChars)
}

// validChunk is the per-chunk predicate when a pass has several chunks; the
// reassembled transcript is still held to Valid.
func validChunk(text string) bool {
	return usable(text, minChunkChars)
}

func usable(text string, minChars int) bool {
	text = strings.TrimSpace(text)
	return utf8.RuneCountInString(text) >= minChars && !strings.Contains(text, PlaceholderNeeded)
}

type pass struct {
	window    float64
	maxTokens int
}

// Transcribe returns the transcript of vocals. Chunk extracts live in
// scratchDir and are removed before returning. When both passes fail the
// transcript carries FailedSentinel; the only error returned is the context
// error on cancellation.
func (s *Stage) Transcribe(ctx context.Context, vocals *media.Asset, scratchDir string) (Transcript, error) {
	logger := logging.WithContext(ctx, s.logger)
	duration := vocals.Duration(ctx)

	passes := []pass{
		{window: s.opts.ChunkSeconds, maxTokens: s.opts.MaxTokens},
		{window: s.opts.RetryChunkSeconds, maxTokens: s.opts.RetryMaxTokens},
	}
	for i, p := range passes {
		transcript, err := s.runPass(ctx, vocals.Path(), duration, p, filepath.Join(scratchDir, passDir(i)))
		if err != nil {
			return Transcript{}, err
		}
		transcript.Escalated = i > 0
		if s.Valid(transcript.Text) && len(transcript.Providers) > 0 {
			logger.Info("transcription complete",
				logging.Int("chunks", transcript.Chunks),
				logging.Bool("escalated", transcript.Escalated),
				logging.Int("chars", utf8.RuneCountInString(transcript.Text)),
			)
			return transcript, nil
		}
		if i == 0 {
			logging.WarnWithContext(logger, "transcription pass rejected; escalating",
				"transcription_escalated",
				logging.Int("chunks", transcript.Chunks),
				logging.Seconds("retry_chunk_seconds", s.opts.RetryChunkSeconds),
				logging.Int("retry_max_tokens", s.opts.RetryMaxTokens),
				logging.String(logging.FieldImpact, "transcription retried with smaller chunks"),
			)
		}
	}

	logging.WarnWithContext(logger, "transcription failed",
		"transcription_failed",
		logging.String(logging.FieldErrorHint, "check llm credentials and that the vocal stem contains singing"),
		logging.String(logging.FieldImpact, "no lyrics will be produced"),
	)
	return Transcript{Text: FailedSentinel, Failed: true, Escalated: true}, nil
}

func passDir(i int) string {
	if i == 0 {
		return "chunks"
	}
	return "chunks-retry"
}

func (s *Stage) runPass(ctx context.Context, source string, duration float64, p pass, scratchDir string) (Transcript, error) {
	chunks, err := s.chunker.Split(ctx, source, duration, p.window, scratchDir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Transcript{}, ctxErr
		}
		s.logger.Debug("chunking failed; pass skipped", logging.Error(err))
		return Transcript{}, nil
	}
	defer func() {
		if err := chunking.Cleanup(chunks); err != nil {
			s.logger.Debug("chunk cleanup failed", logging.Error(err))
		}
	}()

	valid := validChunk
	if len(chunks) == 1 {
		valid = s.Valid
	}

	partials := make([]chunking.Partial, len(chunks))
	winners := make([]string, len(chunks))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.opts.Workers)
	for i, chunk := range chunks {
		group.Go(func() error {
			result := s.chain(chunk, p, valid).Run(groupCtx)
			if err := groupCtx.Err(); err != nil {
				return err
			}
			partials[i] = chunking.Partial{Index: chunk.Index, Text: result.Value, Present: result.OK()}
			winners[i] = result.Provider
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Transcript{}, err
	}
	if err := ctx.Err(); err != nil {
		return Transcript{}, err
	}

	transcript := Transcript{Text: chunking.Reassemble(partials), Chunks: len(chunks)}
	for _, name := range winners {
		if name != "" {
			transcript.Providers = append(transcript.Providers, name)
		}
	}
	return transcript, nil
}

func (s *Stage) chain(chunk chunking.Chunk, p pass, valid func(string) bool) *fallback.Chain[string] {
	providers := make([]fallback.Provider[string], 0, len(s.providers))
	for _, provider := range s.providers {
		relaxer, ok := provider.(interface{ Relaxes() bool })
		providers = append(providers, fallback.Provider[string]{
			Name:         provider.Name(),
			RetryRelaxed: ok && relaxer.Relaxes(),
			Invoke: func(ctx context.Context, call fallback.Call) (string, error) {
				budget := Budget{MaxTokens: p.maxTokens, Relaxed: call.Relaxed}
				if call.Relaxed {
					budget.MaxTokens *= 2
				}
				return provider.Transcribe(ctx, chunk.Path, budget)
			},
		})
	}
	return fallback.New(providers, valid, fallback.Options{
		Timeout: s.opts.ProviderTimeout,
		Stage:   stageName,
		Logger: s.logger.With(
			logging.ChunkIndex(chunk.Index),
		),
	})
}
