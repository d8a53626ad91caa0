package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"lyricsmith/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "separation", "demucs", "failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"separation", "demucs", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestDetailsClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"validation", services.Wrap(services.ErrValidation, "probe", "duration", "unreadable audio", errors.New("raw")), "validation"},
		{"exhausted", fmt.Errorf("translate: %w", services.ErrChainExhausted), "providers_exhausted"},
		{"cancelled", context.Canceled, "cancelled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"other", errors.New("secret provider payload"), "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			details := services.Details(tc.err)
			if details.Code != tc.code {
				t.Fatalf("code = %q, want %q", details.Code, tc.code)
			}
			if strings.Contains(details.Message, "secret") || strings.Contains(details.Message, "raw") {
				t.Fatalf("details leaked cause: %q", details.Message)
			}
		})
	}
}

func TestDetailsValidationKeepsStageContext(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "probe", "duration", "unreadable audio", errors.New("ffprobe exit 1"))
	details := services.Details(err)
	if !strings.Contains(details.Message, "probe: duration") {
		t.Fatalf("expected stage context in message, got %q", details.Message)
	}
}
