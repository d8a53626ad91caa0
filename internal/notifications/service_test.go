package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lyricsmith/internal/config"
	"lyricsmith/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()
	requests := make(chan captured, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFailed(context.Background(), "id", "song.mp3", "stage_failed", "boom"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNotifyRunCompleted(t *testing.T) {
	tests := []struct {
		name         string
		outcome      notifications.Outcome
		expectBody   []string
		expectTags   string
		absentInBody string
	}{
		{
			name: "translated",
			outcome: notifications.Outcome{
				RunID:    "run-1",
				Source:   "/music/cancion.mp3",
				Language: "Spanish",
				Targets:  []string{"English", "French"},
				Duration: 92 * time.Second,
			},
			expectBody: []string{"Lyrics ready: cancion.mp3 (Spanish)", "Translations: English, French", "Took 1m32s", "Run: run-1"},
			expectTags: "lyricsmith,run,completed",
		},
		{
			name: "no lyrics",
			outcome: notifications.Outcome{
				RunID:    "run-2",
				Source:   "instrumental.wav",
				Targets:  []string{"English"},
				Degraded: []string{"transcription"},
				NoLyrics: true,
			},
			expectBody:   []string{"Stems ready, no lyrics found: instrumental.wav", "Degraded: transcription"},
			expectTags:   "lyricsmith,run,completed,warning",
			absentInBody: "Translations",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, requests := newNtfyServer(t, http.StatusOK)
			if err := serviceFor(srv.URL).NotifyRunCompleted(context.Background(), tc.outcome); err != nil {
				t.Fatalf("notify: %v", err)
			}
			got := <-requests
			if got.title != "lyricsmith - Run Complete" {
				t.Fatalf("unexpected title %q", got.title)
			}
			for _, want := range tc.expectBody {
				if !strings.Contains(got.body, want) {
					t.Fatalf("body %q missing %q", got.body, want)
				}
			}
			if tc.absentInBody != "" && strings.Contains(got.body, tc.absentInBody) {
				t.Fatalf("body %q should not contain %q", got.body, tc.absentInBody)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
		})
	}
}

func TestNotifyRunFailedUsesHighPriority(t *testing.T) {
	srv, requests := newNtfyServer(t, http.StatusOK)
	err := serviceFor(srv.URL).NotifyRunFailed(context.Background(), "run-3", "/in/song.flac", "stage_failed", "a pipeline stage failed")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	got := <-requests
	if got.priority != "high" {
		t.Fatalf("priority = %q, want high", got.priority)
	}
	if !strings.Contains(got.body, "Run failed: song.flac") || !strings.Contains(got.body, "stage_failed: a pipeline stage failed") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	err := serviceFor(srv.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403") {
		t.Fatalf("expected ntfy status error, got %v", err)
	}
}
