package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream down")

func quietConfig(threshold int, reset time.Duration) Config {
	return Config{
		FailureThreshold: threshold,
		ResetTimeout:     reset,
		OnStateChange:    func(string, State, State) {},
	}
}

func trip(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		_ = b.Do(context.Background(), func(_ context.Context) error { return errUpstream })
	}
}

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := NewBreaker("firecrawl", NewConfig(0, 0))

	var calls int
	err := b.Do(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if b.State() != Closed {
		t.Errorf("expected closed, got %s", b.State())
	}
	if b.Name() != "firecrawl" {
		t.Errorf("expected name firecrawl, got %s", b.Name())
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("jina", quietConfig(3, time.Minute))
	trip(b, 3)

	if b.State() != Open {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}

	err := b.Do(context.Background(), func(_ context.Context) error {
		t.Error("should not be called while open")
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestBreaker_SuccessClearsFailures(t *testing.T) {
	b := NewBreaker("jina", quietConfig(3, time.Minute))
	trip(b, 2)

	if got := b.Failures(); got != 2 {
		t.Errorf("expected 2 failures, got %d", got)
	}
	_ = b.Do(context.Background(), func(_ context.Context) error { return nil })
	if got := b.Failures(); got != 0 {
		t.Errorf("expected 0 failures after success, got %d", got)
	}
}

func TestBreaker_HalfOpenProbeCloses(t *testing.T) {
	now := time.Now()
	b := NewBreaker("anthropic", quietConfig(2, 100*time.Millisecond))
	b.nowFunc = func() time.Time { return now }
	trip(b, 2)

	b.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	if b.State() != HalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}

	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.State() != Closed {
		t.Errorf("expected closed after probe, got %s", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("anthropic", quietConfig(2, 100*time.Millisecond))
	b.nowFunc = func() time.Time { return now }
	trip(b, 2)

	b.nowFunc = func() time.Time { return now.Add(200 * time.Millisecond) }
	trip(b, 1)

	if b.State() != Open {
		t.Errorf("expected open after failed probe, got %s", b.State())
	}
	if got := b.Failures(); got != 3 {
		t.Errorf("expected 3 failures, got %d", got)
	}
}

func TestBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	b := NewBreaker("openai", quietConfig(1, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != Closed {
		t.Errorf("cancellation must not open the breaker, got %s", b.State())
	}
}

func TestBreaker_ClientStatusDoesNotTrip(t *testing.T) {
	b := NewBreaker("firecrawl", quietConfig(1, time.Hour))
	_ = b.Do(context.Background(), func(_ context.Context) error {
		return &statusErr{code: 404}
	})
	if b.State() != Closed {
		t.Errorf("404 must not open the breaker, got %s", b.State())
	}

	_ = b.Do(context.Background(), func(_ context.Context) error {
		return &statusErr{code: 503}
	})
	if b.State() != Open {
		t.Errorf("503 should open the breaker, got %s", b.State())
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	type change struct {
		name     string
		from, to State
	}
	var changes []change
	cfg := Config{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
		OnStateChange: func(name string, from, to State) {
			changes = append(changes, change{name, from, to})
		},
	}
	b := NewBreaker("jina", cfg)
	trip(b, 2)
	b.Reset()

	if len(changes) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(changes))
	}
	if changes[0] != (change{"jina", Closed, Open}) {
		t.Errorf("unexpected first transition %+v", changes[0])
	}
	if changes[1] != (change{"jina", Open, Closed}) {
		t.Errorf("unexpected second transition %+v", changes[1])
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker("jina", quietConfig(2, time.Hour))
	trip(b, 2)
	b.Reset()

	if b.State() != Closed {
		t.Errorf("expected closed after reset, got %s", b.State())
	}
	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestBreaker_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	b := NewBreaker("local", quietConfig(100, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(context.Background(), func(_ context.Context) error {
				if i%2 == 0 {
					return errUpstream
				}
				return nil
			})
		}()
	}
	wg.Wait()
}

func TestCall(t *testing.T) {
	b := NewBreaker("jina", quietConfig(1, time.Hour))

	val, err := Call(context.Background(), b, func(_ context.Context) (string, error) {
		return "markdown", nil
	})
	if err != nil || val != "markdown" {
		t.Fatalf("got (%q, %v)", val, err)
	}

	trip(b, 1)
	val, err = Call(context.Background(), b, func(_ context.Context) (string, error) {
		return "markdown", nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if val != "" {
		t.Errorf("expected zero value, got %q", val)
	}
}

func TestBreakers_GetAndSnapshot(t *testing.T) {
	r := NewBreakers(quietConfig(1, time.Hour))

	if r.Get("firecrawl") != r.Get("firecrawl") {
		t.Error("expected same breaker for same upstream")
	}
	if r.Get("firecrawl") == r.Get("jina") {
		t.Error("expected different breakers for different upstreams")
	}

	trip(r.Get("firecrawl"), 1)
	snap := r.Snapshot()
	if snap["firecrawl"] != "open" {
		t.Errorf("expected firecrawl=open, got %s", snap["firecrawl"])
	}
	if snap["jina"] != "closed" {
		t.Errorf("expected jina=closed, got %s", snap["jina"])
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(0, -1)
	if cfg.FailureThreshold != 5 || cfg.ResetTimeout != 60*time.Second || cfg.HalfOpenProbes != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	cfg = NewConfig(3, 10)
	if cfg.FailureThreshold != 3 || cfg.ResetTimeout != 10*time.Second {
		t.Errorf("unexpected values %+v", cfg)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Closed, "closed"},
		{Open, "open"},
		{HalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
