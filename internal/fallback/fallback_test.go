package fallback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lyricsmith/internal/services"
)

func stringProvider(name, value string, err error) Provider[string] {
	return Provider[string]{
		Name: name,
		Invoke: func(context.Context, Call) (string, error) {
			return value, err
		},
	}
}

func longEnough(v string) bool { return len(v) >= 5 }

func TestChainSkipsInvalidAndAbsent(t *testing.T) {
	chain := New([]Provider[string]{
		stringProvider("a", "no", nil),
		stringProvider("b", "", errors.New("boom")),
		stringProvider("c", "valid output", nil),
	}, longEnough, Options{Stage: "test"})

	result := chain.Run(context.Background())
	if !result.OK() || result.Value != "valid output" || result.Provider != "c" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(result.Attempts))
	}
	states := []State{result.Attempts[0].State, result.Attempts[1].State, result.Attempts[2].State}
	if states[0] != Invalid || states[1] != Absent || states[2] != Valid {
		t.Fatalf("unexpected attempt states %v", states)
	}
}

func TestChainExhaustion(t *testing.T) {
	chain := New([]Provider[string]{
		stringProvider("a", "no", nil),
		stringProvider("b", "", errors.New("boom")),
		{Name: "c"},
	}, longEnough, Options{Stage: "test"})

	result := chain.Run(context.Background())
	if result.OK() || result.State != Absent {
		t.Fatalf("expected absent result, got %+v", result)
	}
	if result.Value != "" {
		t.Fatalf("unvalidated value leaked: %q", result.Value)
	}
	if !errors.Is(result.Err, services.ErrChainExhausted) {
		t.Fatalf("expected chain exhausted, got %v", result.Err)
	}
}

func TestChainEmpty(t *testing.T) {
	result := New[string](nil, nil, Options{}).Run(context.Background())
	if result.OK() || !errors.Is(result.Err, services.ErrChainExhausted) {
		t.Fatalf("expected exhaustion for empty chain, got %+v", result)
	}
}

func TestChainRecoversPanics(t *testing.T) {
	chain := New([]Provider[string]{
		{Name: "panics", Invoke: func(context.Context, Call) (string, error) { panic("bad provider") }},
		stringProvider("ok", "hello world", nil),
	}, longEnough, Options{})

	result := chain.Run(context.Background())
	if result.Provider != "ok" {
		t.Fatalf("expected second provider to win, got %+v", result)
	}
	if !strings.Contains(result.Attempts[0].Err.Error(), "panicked") {
		t.Fatalf("expected panic recorded, got %v", result.Attempts[0].Err)
	}
}

func TestRelaxedRetryRunsOnce(t *testing.T) {
	var calls []Call
	provider := Provider[string]{
		Name:         "budgeted",
		RetryRelaxed: true,
		Invoke: func(_ context.Context, call Call) (string, error) {
			calls = append(calls, call)
			if call.Relaxed {
				return "relaxed answer", nil
			}
			return "cut", nil
		},
	}
	result := New([]Provider[string]{provider}, longEnough, Options{}).Run(context.Background())
	if !result.OK() || result.Value != "relaxed answer" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(calls) != 2 || calls[0].Attempt != 0 || calls[0].Relaxed || calls[1].Attempt != 1 || !calls[1].Relaxed {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestRelaxedRetryNeverMoreThanOnce(t *testing.T) {
	count := 0
	provider := Provider[string]{
		Name:         "bad",
		RetryRelaxed: true,
		Invoke: func(context.Context, Call) (string, error) {
			count++
			return "", errors.New("down")
		},
	}
	result := New([]Provider[string]{provider}, nil, Options{}).Run(context.Background())
	if result.OK() || count != 2 {
		t.Fatalf("expected exactly 2 calls, got %d (%+v)", count, result)
	}
}

func TestPerCallTimeoutIsAbsent(t *testing.T) {
	slow := Provider[string]{
		Name: "slow",
		Invoke: func(ctx context.Context, _ Call) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	chain := New([]Provider[string]{slow, stringProvider("fast", "fast result", nil)}, longEnough, Options{Timeout: 10 * time.Millisecond})

	result := chain.Run(context.Background())
	if result.Provider != "fast" {
		t.Fatalf("expected fast provider after timeout, got %+v", result)
	}
	if !errors.Is(result.Attempts[0].Err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", result.Attempts[0].Err)
	}
}

func TestCancellationIsNotExhaustion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	chain := New([]Provider[string]{
		{Name: "cancels", Invoke: func(context.Context, Call) (string, error) {
			cancel()
			return "", context.Canceled
		}},
		{Name: "never", Invoke: func(context.Context, Call) (string, error) {
			called = true
			return "should not run", nil
		}},
	}, nil, Options{})

	result := chain.Run(ctx)
	if called {
		t.Fatal("chain continued after cancellation")
	}
	if !errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, services.ErrChainExhausted) {
		t.Fatalf("expected cancellation, got %v", result.Err)
	}
}
