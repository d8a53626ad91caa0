package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"lyricsmith/internal/config"
)

const userAgent = "lyricsmith/0.1.0"

// Outcome summarizes a finished run for a notification.
type Outcome struct {
	RunID    string
	Source   string
	Language string
	Targets  []string
	Duration time.Duration
	// Degraded lists stages that completed with a fallback.
	Degraded []string
	// NoLyrics is set when transcription produced nothing usable.
	NoLyrics bool
}

// Service defines the notification surface used by the pipeline.
type Service interface {
	NotifyRunCompleted(ctx context.Context, outcome Outcome) error
	NotifyRunFailed(ctx context.Context, runID, source, code, message string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, outcome Outcome) error {
	name := filepath.Base(strings.TrimSpace(outcome.Source))
	var b strings.Builder
	switch {
	case outcome.NoLyrics:
		fmt.Fprintf(&b, "Stems ready, no lyrics found: %s", name)
	case outcome.Language != "":
		fmt.Fprintf(&b, "Lyrics ready: %s (%s)", name, outcome.Language)
	default:
		fmt.Fprintf(&b, "Lyrics ready: %s", name)
	}
	if len(outcome.Targets) > 0 && !outcome.NoLyrics {
		fmt.Fprintf(&b, "\nTranslations: %s", strings.Join(outcome.Targets, ", "))
	}
	if len(outcome.Degraded) > 0 {
		fmt.Fprintf(&b, "\nDegraded: %s", strings.Join(outcome.Degraded, ", "))
	}
	if outcome.Duration > 0 {
		fmt.Fprintf(&b, "\nTook %s", outcome.Duration.Round(time.Second))
	}
	fmt.Fprintf(&b, "\nRun: %s", outcome.RunID)

	tags := []string{"lyricsmith", "run", "completed"}
	if len(outcome.Degraded) > 0 || outcome.NoLyrics {
		tags = append(tags, "warning")
	}
	return n.send(ctx, payload{
		title:   "lyricsmith - Run Complete",
		message: b.String(),
		tags:    tags,
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, runID, source, code, message string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Run failed: %s", filepath.Base(strings.TrimSpace(source)))
	if code = strings.TrimSpace(code); code != "" {
		fmt.Fprintf(&b, "\n%s: %s", code, strings.TrimSpace(message))
	}
	if runID != "" {
		fmt.Fprintf(&b, "\nRun: %s", runID)
	}
	return n.send(ctx, payload{
		title:    "lyricsmith - Run Failed",
		message:  b.String(),
		tags:     []string{"lyricsmith", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "lyricsmith - Test",
		message:  "Notification system test",
		tags:     []string{"lyricsmith", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, Outcome) error                     { return nil }
func (noopService) NotifyRunFailed(context.Context, string, string, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                                { return nil }
