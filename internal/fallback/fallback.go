package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lyricsmith/internal/logging"
	"lyricsmith/internal/services"
)

// State classifies a provider outcome.
type State int

const (
	// Absent means the provider raised, timed out, or was never reached.
	Absent State = iota
	// Invalid means the provider returned a value the predicate rejected.
	Invalid
	// Valid means the value passed the predicate.
	Valid
)

func (s State) String() string {
	switch s {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Call carries per-attempt parameters to a provider.
type Call struct {
	// Attempt is 0 for the first call and 1 for the relaxed retry.
	Attempt int
	// Relaxed asks the provider to loosen its parameters (larger budget,
	// longer window).
	Relaxed bool
}

// Provider is one named candidate in a chain.
type Provider[T any] struct {
	Name   string
	Invoke func(ctx context.Context, call Call) (T, error)
	// RetryRelaxed allows a single relaxed retry before moving on.
	RetryRelaxed bool
}

// Attempt records one provider call for provenance.
type Attempt struct {
	Provider string
	Index    int
	Relaxed  bool
	State    State
	Err      error
	Elapsed  time.Duration
}

// Result is the terminal outcome of a chain run.
type Result[T any] struct {
	Value    T
	State    State
	Provider string
	Attempts []Attempt
	Err      error
}

// OK reports whether the chain produced a valid value.
func (r Result[T]) OK() bool {
	return r.State == Valid
}

// Options tune chain execution.
type Options struct {
	// Timeout bounds each provider call. Zero disables the per-call bound.
	Timeout time.Duration
	// Stage labels errors and log lines.
	Stage  string
	Logger *slog.Logger
}

// Chain invokes providers in order until one returns a valid value.
type Chain[T any] struct {
	providers []Provider[T]
	valid     func(T) bool
	opts      Options
	logger    *slog.Logger
}

// New builds a chain. A nil predicate accepts every returned value.
func New[T any](providers []Provider[T], valid func(T) bool, opts Options) *Chain[T] {
	if valid == nil {
		valid = func(T) bool { return true }
	}
	return &Chain[T]{
		providers: append([]Provider[T](nil), providers...),
		valid:     valid,
		opts:      opts,
		logger:    logging.NewComponentLogger(opts.Logger, "fallback"),
	}
}

// Len returns the number of providers.
func (c *Chain[T]) Len() int {
	return len(c.providers)
}

// Run executes the chain. Context cancellation stops it immediately and is
// reported through Err as the context error, never as exhaustion.
func (c *Chain[T]) Run(ctx context.Context) Result[T] {
	var result Result[T]
	var lastErr error

	for _, provider := range c.providers {
		maxAttempts := 1
		if provider.RetryRelaxed {
			maxAttempts = 2
		}
		for index := 0; index < maxAttempts; index++ {
			if err := ctx.Err(); err != nil {
				result.State = Absent
				result.Err = err
				return result
			}
			call := Call{Attempt: index, Relaxed: index > 0}
			value, attempt := c.invoke(ctx, provider, call)
			result.Attempts = append(result.Attempts, attempt)

			if err := ctx.Err(); err != nil {
				result.State = Absent
				result.Err = err
				return result
			}
			if attempt.State == Valid {
				result.Value = value
				result.State = Valid
				result.Provider = provider.Name
				c.logger.Debug("provider accepted",
					logging.Stage(c.opts.Stage),
					logging.Provider(provider.Name),
					logging.Int("attempt", index),
					logging.Duration("elapsed", attempt.Elapsed),
				)
				return result
			}
			lastErr = attempt.Err
			c.logger.Debug("provider rejected",
				logging.Stage(c.opts.Stage),
				logging.Provider(provider.Name),
				logging.Int("attempt", index),
				logging.String("state", attempt.State.String()),
				logging.Error(attempt.Err),
			)
		}
	}

	result.State = Absent
	result.Err = services.Wrap(
		services.ErrChainExhausted,
		c.opts.Stage,
		"fallback",
		fmt.Sprintf("%d providers tried", len(c.providers)),
		lastErr,
	)
	return result
}

func (c *Chain[T]) invoke(ctx context.Context, provider Provider[T], call Call) (value T, attempt Attempt) {
	attempt = Attempt{Provider: provider.Name, Index: call.Attempt, Relaxed: call.Relaxed}
	start := time.Now()
	defer func() {
		attempt.Elapsed = time.Since(start)
	}()

	if provider.Invoke == nil {
		attempt.Err = services.Wrap(services.ErrProviderUnavailable, c.opts.Stage, provider.Name, "provider not configured", nil)
		return value, attempt
	}

	callCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	got, err := safeInvoke(callCtx, provider, call)
	switch {
	case err != nil:
		marker := services.ErrProviderUnavailable
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			marker = services.ErrTimeout
		}
		attempt.Err = services.Wrap(marker, c.opts.Stage, provider.Name, "call failed", err)
	case !c.valid(got):
		attempt.State = Invalid
		attempt.Err = services.Wrap(services.ErrInvalidResult, c.opts.Stage, provider.Name, "result rejected", nil)
	default:
		attempt.State = Valid
		value = got
	}
	return value, attempt
}

func safeInvoke[T any](ctx context.Context, provider Provider[T], call Call) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider %s panicked: %v", provider.Name, r)
		}
	}()
	return provider.Invoke(ctx, call)
}
