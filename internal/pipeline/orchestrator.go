package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lyricsmith/internal/fileutil"
	"lyricsmith/internal/language"
	"lyricsmith/internal/logging"
	"lyricsmith/internal/lyrics"
	"lyricsmith/internal/media"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/notifications"
	"lyricsmith/internal/runstore"
	"lyricsmith/internal/separation"
	"lyricsmith/internal/services"
	"lyricsmith/internal/transcription"
	"lyricsmith/internal/translation"
)

// Separator splits an asset into vocal and accompaniment stems.
type Separator interface {
	Separate(ctx context.Context, asset *media.Asset, outDir string) (separation.Stems, error)
}

// Transcriber turns a vocal stem into text.
type Transcriber interface {
	Transcribe(ctx context.Context, vocals *media.Asset, scratchDir string) (transcription.Transcript, error)
}

// Translator detects the source language and translates lyrics.
type Translator interface {
	DetectLanguage(ctx context.Context, transcript string) string
	Translate(ctx context.Context, text, source, target string) (translation.Translation, error)
}

// Store persists run records.
type Store interface {
	Create(ctx context.Context, rec runstore.Record) error
	Update(ctx context.Context, rec runstore.Record) error
}

// Deps are the stage implementations an orchestrator drives. Store and
// Notifier are optional.
type Deps struct {
	Separator   Separator
	Transcriber Transcriber
	Translator  Translator
	Prober      media.Prober
	Store       Store
	Notifier    notifications.Service
}

// Options configure where runs write and what they translate into.
type Options struct {
	OutputDir string
	WorkDir   string
	// TargetLanguages apply when a request names none.
	TargetLanguages []string
	// LogLevel is the level of each run's pipeline.log.
	LogLevel string
}

// Request names one input file and its translation targets.
type Request struct {
	Source          string
	TargetLanguages []string
	// ID overrides the generated run id. It must be a uuid.
	ID string
}

// Orchestrator runs the stages for one asset at a time per call. Distinct
// calls may run concurrently.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New returns an orchestrator.
func New(deps Deps, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Process runs every stage for req.Source. A non-nil Run is returned once
// the run directory exists, even when err is set; its result.json then holds
// the failure document. A failed transcription is not an error: the bundle
// reports success with null lyrics.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Run, error) {
	source := strings.TrimSpace(req.Source)
	if info, err := os.Stat(source); err != nil || info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "open input",
			fmt.Sprintf("%s is not a readable file", filepath.Base(source)), err)
	}
	if strings.TrimSpace(o.opts.OutputDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "output directory not configured", nil)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "prepare", "run id must be a uuid", err)
	}

	run := newRun(id, source, resolveTargets(req.TargetLanguages, o.opts.TargetLanguages), o.now())
	run.Dir = RunDir(o.opts.OutputDir, id)
	if err := os.MkdirAll(run.Dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create run directory", err)
	}

	lockPath := filepath.Join(run.Dir, lockFile)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock", "acquire run directory lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "lock", "run directory is in use", nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	ctx = services.WithRunID(ctx, id)
	logger, closeLog := o.runLogger(ctx, run)
	defer closeLog()

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source_file", source),
		logging.String("targets", strings.Join(run.Targets, ",")),
	)
	o.persist(ctx, logger, run, true)

	start := time.Now()
	execErr := o.execute(ctx, logger, run)
	run.FinishedAt = o.now()

	if execErr != nil {
		details := services.Details(execErr)
		run.Failure = &details
		if err := writeJSON(filepath.Join(run.Dir, ResultFile), NewFailure(run.ID, details)); err != nil {
			logger.Warn("failed to write failure result", logging.Error(err))
		} else {
			run.Artifacts[ArtifactResult] = filepath.Join(run.Dir, ResultFile)
		}
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.Error(execErr),
			logging.String(logging.FieldErrorHint, details.Message),
			logging.Duration("elapsed", time.Since(start)),
		)
		o.persist(ctx, logger, run, false)
		o.notifyFailure(ctx, logger, run, details)
		return run, execErr
	}

	resultPath := filepath.Join(run.Dir, ResultFile)
	if err := writeJSON(resultPath, run.Bundle); err != nil {
		details := services.Details(err)
		run.Failure = &details
		run.Bundle = nil
		o.persist(ctx, logger, run, false)
		return run, services.Wrap(services.ErrConfiguration, "pipeline", "bundle", "write result", err)
	}
	run.Artifacts[ArtifactResult] = resultPath
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Bool("lyrics", run.Bundle.Lyrics != nil),
		logging.String("detected_language", run.DetectedLanguage),
		logging.Duration("elapsed", time.Since(start)),
	)
	o.persist(ctx, logger, run, false)
	o.notifyComplete(ctx, logger, run, time.Since(start))
	return run, nil
}

func (o *Orchestrator) notifyComplete(ctx context.Context, logger *slog.Logger, run *Run, elapsed time.Duration) {
	if o.deps.Notifier == nil {
		return
	}
	var degraded []string
	for _, name := range StageNames() {
		if run.Stages[name] == StatusDegraded || run.Stages[name] == StatusFailed {
			degraded = append(degraded, name)
		}
	}
	err := o.deps.Notifier.NotifyRunCompleted(context.WithoutCancel(ctx), notifications.Outcome{
		RunID:    run.ID,
		Source:   run.Source,
		Language: run.DetectedLanguage,
		Targets:  run.Targets,
		Duration: elapsed,
		Degraded: degraded,
		NoLyrics: run.Bundle.Lyrics == nil,
	})
	if err != nil {
		o.warnNotify(logger, err)
	}
}

func (o *Orchestrator) notifyFailure(ctx context.Context, logger *slog.Logger, run *Run, details services.ErrorDetails) {
	if o.deps.Notifier == nil {
		return
	}
	err := o.deps.Notifier.NotifyRunFailed(context.WithoutCancel(ctx), run.ID, run.Source, details.Code, details.Message)
	if err != nil {
		o.warnNotify(logger, err)
	}
}

func (o *Orchestrator) warnNotify(logger *slog.Logger, err error) {
	logging.WarnWithContext(logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		logging.String(logging.FieldImpact, "run outcome was not announced"),
	)
}

func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, run *Run) error {
	workDir := o.opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create work directory", err)
	}
	scratch, err := os.MkdirTemp(workDir, "run-"+run.ID[:8]+"-")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "prepare", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	staged := filepath.Join(scratch, "source"+strings.ToLower(filepath.Ext(run.Source)))
	if err := fileutil.CopyFileVerified(run.Source, staged); err != nil {
		return services.Wrap(services.ErrValidation, "pipeline", "stage input", "copy input", err)
	}
	run.asset = media.NewAsset(staged, o.deps.Prober)
	duration := run.asset.Duration(ctx)
	o.readTags(logger, run)

	stems, err := o.separate(ctx, logger, run)
	if err != nil {
		return err
	}

	transcript, err := o.transcribe(ctx, logger, run, stems, filepath.Join(scratch, "transcription"))
	if err != nil {
		return err
	}
	if transcript.Failed {
		run.Bundle = o.bundle(run, stems, nil, messageTranscriptionFailed)
		return nil
	}

	if err := ctx.Err(); err != nil {
		run.fail(StageLanguage, err)
		return err
	}
	detected := o.detect(ctx, run, transcript.Text)
	o.persist(ctx, logger, run, false)

	translations, err := o.translate(ctx, logger, run, transcript.Text, detected)
	if err != nil {
		return err
	}

	timed := o.timeLyrics(ctx, logger, run, transcript.Text, translations, duration)
	run.Bundle = o.bundle(run, stems, timed, messageComplete)
	return nil
}

func (o *Orchestrator) separate(ctx context.Context, logger *slog.Logger, run *Run) (separation.Stems, error) {
	stageCtx := services.WithStage(ctx, StageSeparation)
	stems, err := o.deps.Separator.Separate(stageCtx, run.asset, run.Dir)
	if err != nil {
		run.fail(StageSeparation, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return stems, err
		}
		return stems, services.Wrap(services.ErrStageFailed, StageSeparation, "separate", "no stems produced", err)
	}
	if stems.Degraded {
		run.set(StageSeparation, StatusDegraded)
	} else {
		run.set(StageSeparation, StatusSuccess)
	}
	run.Artifacts[ArtifactVocals] = stems.Vocals
	run.Artifacts[ArtifactBackground] = stems.Accompaniment
	logging.WithContext(stageCtx, logger).Info("stems ready",
		logging.Provider(stems.Engine),
		logging.Bool("degraded", stems.Degraded),
	)
	o.persist(ctx, logger, run, false)
	return stems, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, logger *slog.Logger, run *Run, stems separation.Stems, scratch string) (transcription.Transcript, error) {
	stageCtx := services.WithStage(ctx, StageTranscription)
	vocals := media.NewAsset(stems.Vocals, o.deps.Prober)
	transcript, err := o.deps.Transcriber.Transcribe(stageCtx, vocals, scratch)
	if err != nil {
		run.fail(StageTranscription, err)
		return transcript, err
	}

	path := filepath.Join(run.Dir, TranscriptionFile)
	if err := writeText(path, transcript.Text); err != nil {
		run.fail(StageTranscription, err)
		return transcript, services.Wrap(services.ErrConfiguration, StageTranscription, "write", "transcription.txt", err)
	}
	run.Artifacts[ArtifactTranscription] = path

	switch {
	case transcript.Failed:
		run.fail(StageTranscription, errors.New(transcription.FailedSentinel))
	case transcript.Escalated:
		run.set(StageTranscription, StatusDegraded)
	default:
		run.set(StageTranscription, StatusSuccess)
	}
	logging.WithContext(stageCtx, logger).Info("transcription finished",
		logging.Bool("failed", transcript.Failed),
		logging.Bool("escalated", transcript.Escalated),
		logging.Int("chunks", transcript.Chunks),
	)
	o.persist(ctx, logger, run, false)
	return transcript, nil
}

func (o *Orchestrator) detect(ctx context.Context, run *Run, text string) string {
	stageCtx := services.WithStage(ctx, StageLanguage)
	detected := o.deps.Translator.DetectLanguage(stageCtx, text)
	if detected == "" {
		detected = language.Unknown
	}
	run.DetectedLanguage = detected
	if detected == language.Unknown {
		run.set(StageLanguage, StatusDegraded)
	} else {
		run.set(StageLanguage, StatusSuccess)
	}
	return detected
}

// translate returns target -> text for every target. Targets that cannot be
// translated echo the original and mark the stage degraded.
func (o *Orchestrator) translate(ctx context.Context, logger *slog.Logger, run *Run, text, detected string) (map[string]string, error) {
	stageCtx := services.WithStage(ctx, StageTranslation)
	stageLogger := logging.WithContext(stageCtx, logger)
	out := make(map[string]string, len(run.Targets))
	status := StatusSuccess

	for _, target := range run.Targets {
		translated := text
		switch {
		case detected == language.Unknown:
			status = StatusDegraded
		default:
			result, err := o.deps.Translator.Translate(stageCtx, text, detected, target)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					run.fail(StageTranslation, ctxErr)
					return nil, ctxErr
				}
				status = StatusDegraded
				run.Errors = append(run.Errors, StageTranslation+": "+target+": "+err.Error())
				logging.WarnWithContext(stageLogger, "translation failed; echoing original lyrics",
					"translation_failed",
					logging.String("target_language", target),
					logging.Error(err),
					logging.String(logging.FieldImpact, "translated lyrics repeat the original"),
				)
			} else {
				translated = result.Text
			}
		}
		out[target] = translated

		path := filepath.Join(run.Dir, TranslationFile(target))
		if err := writeText(path, translated); err != nil {
			run.fail(StageTranslation, err)
			return nil, services.Wrap(services.ErrConfiguration, StageTranslation, "write", filepath.Base(path), err)
		}
		run.Artifacts[TranslationArtifact(target)] = path
	}
	run.set(StageTranslation, status)
	o.persist(ctx, logger, run, false)
	return out, nil
}

func (o *Orchestrator) timeLyrics(ctx context.Context, logger *slog.Logger, run *Run, original string, translations map[string]string, duration float64) *Lyrics {
	timed := &Lyrics{
		OriginalLyrics:   lyrics.Time(original, duration),
		TranslatedLyrics: []lyrics.Line{},
		Translations:     make(map[string][]lyrics.Line, len(translations)),
		AudioDuration:    duration,
		DetectedLanguage: run.DetectedLanguage,
	}
	for i, target := range run.Targets {
		lines := lyrics.Time(translations[target], duration)
		timed.Translations[target] = lines
		if i == 0 {
			timed.TranslatedLyrics = lines
		}
	}
	if duration > 0 {
		run.set(StageTiming, StatusSuccess)
	} else {
		run.set(StageTiming, StatusDegraded)
		logging.WarnWithContext(logging.WithContext(services.WithStage(ctx, StageTiming), logger),
			"audio duration unavailable", "timing_no_duration",
			logging.String(logging.FieldErrorHint, "check that ffprobe can read the input"),
			logging.String(logging.FieldImpact, "lyrics have no timings"),
		)
	}
	return timed
}

func (o *Orchestrator) bundle(run *Run, stems separation.Stems, timed *Lyrics, message string) *Bundle {
	stages := make(map[string]StageStatus, len(run.Stages))
	for name, status := range run.Stages {
		stages[name] = status
	}
	b := &Bundle{
		Success:            true,
		RunID:              run.ID,
		Message:            message,
		VocalsPath:         stems.Vocals,
		BackgroundPath:     stems.Accompaniment,
		SeparationEngine:   stems.Engine,
		SeparationDegraded: stems.Degraded,
		Lyrics:             timed,
		Stages:             stages,
	}
	if !run.Tags.Empty() {
		meta := run.Tags
		b.Tags = &meta
	}
	return b
}

func (o *Orchestrator) readTags(logger *slog.Logger, run *Run) {
	if !tags.Supported(run.Source) {
		return
	}
	meta, err := tags.Read(run.Source)
	if err != nil {
		if !errors.Is(err, tags.ErrNoTags) {
			logger.Debug("tag read failed", logging.Error(err))
		}
		return
	}
	run.Tags = meta
}

func (o *Orchestrator) runLogger(ctx context.Context, run *Run) (*slog.Logger, func()) {
	base := logging.WithContext(ctx, o.logger)
	path := filepath.Join(run.Dir, LogFile)
	handler, closer, err := logging.NewFileHandler(path, o.opts.LogLevel)
	if err != nil {
		base.Warn("run log unavailable", logging.Error(err))
		return base, func() {}
	}
	run.Artifacts[ArtifactLog] = path
	logger := logging.TeeLogger(base, handler.WithAttrs([]slog.Attr{slog.String(logging.FieldRunID, run.ID)}))
	return logger, func() { _ = closer.Close() }
}

func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, run *Run, create bool) {
	if o.deps.Store == nil {
		return
	}
	// Persist even after cancellation so failed runs are recorded.
	storeCtx := context.WithoutCancel(ctx)
	var err error
	if create {
		err = o.deps.Store.Create(storeCtx, run.Record())
	} else {
		err = o.deps.Store.Update(storeCtx, run.Record())
	}
	if err != nil {
		logger.Warn("failed to persist run", logging.Error(err), logging.Bool("create", create))
	}
}

// resolveTargets canonicalizes and de-duplicates requested targets, falling
// back to defaults when no requested value names a language (none given, all
// blank, or all unrecognized).
func resolveTargets(requested, defaults []string) []string {
	if out := canonicalTargets(requested); len(out) > 0 {
		return out
	}
	return canonicalTargets(defaults)
}

func canonicalTargets(source []string) []string {
	seen := make(map[string]struct{}, len(source))
	out := make([]string, 0, len(source))
	for _, raw := range source {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		name := language.Canonical(raw)
		if name == language.Unknown {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
