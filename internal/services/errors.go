package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	// ErrProviderUnavailable marks a provider call that raised or timed out.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrInvalidResult marks a provider value rejected by a validity predicate.
	ErrInvalidResult = errors.New("invalid provider result")
	// ErrChainExhausted is returned when no provider produced a valid result.
	ErrChainExhausted = errors.New("fallback chain exhausted")
	// ErrStageDegraded marks a stage that completed through a last-resort path.
	ErrStageDegraded = errors.New("stage degraded")
	// ErrStageFailed marks a stage that produced no usable output.
	ErrStageFailed = errors.New("stage failed")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the user-safe view of a failure returned at the API and CLI
// boundary.
type ErrorDetails struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// Details classifies err into a stable code and a message that never carries
// raw provider output.
func Details(err error) ErrorDetails {
	switch {
	case err == nil:
		return ErrorDetails{Code: "unknown", Message: "unknown failure"}
	case errors.Is(err, context.Canceled):
		return ErrorDetails{Code: "cancelled", Message: "processing was cancelled"}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return ErrorDetails{Code: "timeout", Message: "processing timed out"}
	case errors.Is(err, ErrValidation):
		return ErrorDetails{Code: "validation", Message: "the input could not be processed: " + firstSegment(err)}
	case errors.Is(err, ErrConfiguration):
		return ErrorDetails{Code: "configuration", Message: "the service is misconfigured: " + firstSegment(err)}
	case errors.Is(err, ErrNotFound):
		return ErrorDetails{Code: "not_found", Message: "the requested item was not found"}
	case errors.Is(err, ErrChainExhausted):
		return ErrorDetails{Code: "providers_exhausted", Message: "no provider produced a usable result"}
	case errors.Is(err, ErrStageFailed):
		return ErrorDetails{Code: "stage_failed", Message: "a pipeline stage failed"}
	case errors.Is(err, ErrExternalTool):
		return ErrorDetails{Code: "external_tool", Message: "an external tool failed"}
	default:
		return ErrorDetails{Code: "internal", Message: "processing failed"}
	}
}

// firstSegment returns the stage-context portion of a wrapped error, omitting
// the marker prefix and the underlying cause.
func firstSegment(err error) string {
	parts := strings.Split(err.Error(), ": ")
	if len(parts) < 2 {
		return err.Error()
	}
	end := len(parts)
	if end > 3 {
		end = 3
	}
	return strings.Join(parts[1:end], ": ")
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
