package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/media/tags"
	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/services"
)

const (
	// ProcessedDir receives inputs whose run completed.
	ProcessedDir = "processed"
	// FailedDir receives inputs whose run returned an error.
	FailedDir = "failed"

	defaultSettle = 2 * time.Second
	queueSize     = 64
)

// Processor runs the pipeline for one file.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Run, error)
}

// Options tune the watcher.
type Options struct {
	// Settle is how long a file's size must hold steady before it is queued.
	Settle          time.Duration
	TargetLanguages []string
	// OnRun is called after each processed file, mainly for tests.
	OnRun func(path string, run *pipeline.Run, err error)
}

// Watcher processes audio files dropped into a directory.
type Watcher struct {
	dir       string
	processor Processor
	opts      Options
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	pending map[string]*time.Timer
	sizes   map[string]int64
	queued  map[string]struct{}
	queue   chan string

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a watcher for dir.
func New(dir string, processor Processor, opts Options, logger *slog.Logger) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}
	return &Watcher{
		dir:       dir,
		processor: processor,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "inbox"),
		pending:   make(map[string]*time.Timer),
		sizes:     make(map[string]int64),
		queued:    make(map[string]struct{}),
	}
}

// Start begins watching. Files already present are queued as if just created.
func (w *Watcher) Start(ctx context.Context) error {
	if w == nil || w.processor == nil {
		return errors.New("inbox watcher unavailable")
	}
	if strings.TrimSpace(w.dir) == "" {
		return services.Wrap(services.ErrConfiguration, "inbox", "start", "inbox directory not configured", nil)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("inbox watcher already running")
	}
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create inbox %s directory: %w", sub, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create inbox watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.watcher = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.queue = make(chan string, queueSize)
	w.running = true

	w.wg.Add(2)
	go w.eventLoop()
	go w.worker()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox scan failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "inbox_scan_failed"),
			logging.String(logging.FieldErrorHint, "check inbox directory permissions"),
			logging.String(logging.FieldImpact, "existing files are picked up on their next write"),
		)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.scheduleLocked(filepath.Join(w.dir, entry.Name()))
		}
	}

	w.logger.Info("inbox watcher started",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.opts.Settle),
		logging.Any("target_languages", w.opts.TargetLanguages),
	)
	return nil
}

// Stop cancels any in-flight run and waits for the loops to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
	w.wg.Wait()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.mu.Lock()
			if w.running {
				w.scheduleLocked(event.Name)
			}
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "inbox_watch_error"),
				logging.String(logging.FieldErrorHint, "events may have been dropped; restart the watcher to rescan"),
				logging.String(logging.FieldImpact, "some dropped files may not be processed"),
			)
		}
	}
}

// scheduleLocked (re)arms the settle timer for path. Caller holds w.mu.
func (w *Watcher) scheduleLocked(path string) {
	if !tags.Supported(path) {
		return
	}
	if _, ok := w.queued[path]; ok {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() { w.settle(path) })
}

// settle queues path once two consecutive checks see the same non-zero size.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	delete(w.pending, path)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		delete(w.sizes, path)
		return
	}
	last, seen := w.sizes[path]
	if !seen || last != info.Size() || info.Size() == 0 {
		w.sizes[path] = info.Size()
		w.pending[path] = time.AfterFunc(w.opts.Settle, func() { w.settle(path) })
		return
	}
	delete(w.sizes, path)

	select {
	case w.queue <- path:
		w.queued[path] = struct{}{}
	default:
		w.logger.Warn("inbox queue full; retrying later",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "inbox_queue_full"),
			logging.String(logging.FieldErrorHint, "too many files dropped at once"),
			logging.String(logging.FieldImpact, "file processing is delayed"),
		)
		w.pending[path] = time.AfterFunc(w.opts.Settle, func() { w.settle(path) })
	}
}

func (w *Watcher) worker() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case path := <-w.queue:
			w.process(path)
		}
	}
}

func (w *Watcher) process(path string) {
	logger := w.logger.With(logging.String("path", path))
	logger.Info("inbox file queued for processing")

	run, err := w.processor.Process(w.ctx, pipeline.Request{
		Source:          path,
		TargetLanguages: w.opts.TargetLanguages,
	})
	if w.ctx.Err() != nil {
		// Leave the file in place so the next start picks it up again.
		w.forget(path)
		w.notify(path, run, err)
		return
	}

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		details := services.Details(err)
		logging.WarnWithContext(logger, "inbox file failed", "inbox_run_failed",
			logging.String("error_code", details.Code),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "see the run's pipeline.log for details"),
			logging.String(logging.FieldImpact, "file moved to the failed directory"),
		)
	} else {
		logger.Info("inbox file processed",
			logging.String(logging.FieldRunID, run.ID),
			logging.String("run_dir", run.Dir),
		)
	}

	if moveErr := w.move(path, dest); moveErr != nil {
		logger.Warn("inbox move failed",
			logging.Error(moveErr),
			logging.String(logging.FieldEventType, "inbox_move_failed"),
			logging.String(logging.FieldErrorHint, "check inbox directory permissions"),
			logging.String(logging.FieldImpact, "file will be processed again after restart"),
		)
	}
	w.forget(path)
	w.notify(path, run, err)
}

func (w *Watcher) move(path, sub string) error {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		target = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(target, ext), time.Now().Unix(), ext)
	}
	return os.Rename(path, target)
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.queued, path)
	w.mu.Unlock()
}

func (w *Watcher) notify(path string, run *pipeline.Run, err error) {
	if w.opts.OnRun != nil {
		w.opts.OnRun(path, run, err)
	}
}
