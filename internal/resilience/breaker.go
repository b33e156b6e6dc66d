// Package resilience guards calls to upstream collaborators with circuit
// breakers. A breaker only ever fails fast; it never repeats a call.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is the state of a breaker.
type State int

const (
	// Closed lets calls through.
	Closed State = iota
	// Open rejects calls until the reset timeout elapses.
	Open
	// HalfOpen lets probe calls through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = eris.New("resilience: circuit open")

// Config controls breaker behavior.
type Config struct {
	// FailureThreshold is the number of consecutive tripping failures that
	// opens the breaker. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the breaker stays open before letting a probe
	// through. Default: 60s.
	ResetTimeout time.Duration

	// HalfOpenProbes is the number of successful probes that close the
	// breaker again. Default: 1.
	HalfOpenProbes int

	// ShouldTrip decides which errors count as failures. Default: Trips.
	ShouldTrip func(err error) bool

	// OnStateChange is called on every transition, under the breaker lock.
	OnStateChange func(name string, from, to State)
}

// NewConfig builds a Config from the circuit section of the app config.
// Non-positive values keep the defaults.
func NewConfig(failureThreshold, resetTimeoutSecs int) Config {
	cfg := Config{
		FailureThreshold: 5,
		ResetTimeout:     60 * time.Second,
		HalfOpenProbes:   1,
	}
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// Breaker is a circuit breaker for one named upstream.
type Breaker struct {
	name  string
	cfg   Config
	mu    sync.Mutex
	state State

	failures     int
	lastFailure  time.Time
	probeSuccess int
	nowFunc      func() time.Time
}

// NewBreaker creates a closed breaker. Transitions are logged through zap
// unless cfg.OnStateChange is set.
func NewBreaker(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 60 * time.Second
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = Trips
	}
	if cfg.OnStateChange == nil {
		cfg.OnStateChange = logTransition
	}
	return &Breaker{
		name:    name,
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

func logTransition(name string, from, to State) {
	zap.L().Warn("resilience: breaker state change",
		zap.String("upstream", name),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
}

// Name returns the upstream name.
func (b *Breaker) Name() string { return b.name }

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// Call is like Do but returns fn's value.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the current state. An open breaker whose reset timeout has
// elapsed reports HalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		return HalfOpen
	}
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.probeSuccess = 0
	if b.state != Closed {
		b.transition(Closed)
	}
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return nil
	}
	if b.nowFunc().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		b.transition(HalfOpen)
		return nil
	}
	return ErrOpen
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !b.cfg.ShouldTrip(err) {
		switch b.state {
		case HalfOpen:
			b.probeSuccess++
			if b.probeSuccess >= b.cfg.HalfOpenProbes {
				b.transition(Closed)
				b.failures = 0
				b.probeSuccess = 0
			}
		case Closed:
			b.failures = 0
		}
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()

	switch b.state {
	case Closed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(Open)
		}
	case HalfOpen:
		b.transition(Open)
		b.probeSuccess = 0
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.cfg.OnStateChange(b.name, from, to)
}

// Breakers hands out one breaker per upstream name.
type Breakers struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewBreakers creates an empty registry sharing cfg.
func NewBreakers(cfg Config) *Breakers {
	return &Breakers{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Breakers) Get(name string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[name]; ok {
		return b
	}
	b = NewBreaker(name, r.cfg)
	r.breakers[name] = b
	return b
}

// Snapshot returns each upstream's state name, for health output.
func (r *Breakers) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State().String()
	}
	return out
}
