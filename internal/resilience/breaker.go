package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all calls and tracks failures.
	Closed State = iota
	// Open rejects calls until the cool-off period expires.
	Open
	// HalfOpen lets a single probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	// Target labels metrics and logs, e.g. "catalog_cache".
	Target string
	// MinRequests is the number of outcomes observed before the failure
	// ratio is evaluated.
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Logger       zerolog.Logger
}

// Breaker is a failure-ratio circuit breaker guarding an optional
// dependency such as the snapshot cache.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	probing      bool
	openedAt     time.Time
	minRequests  int
	failureRatio float64
	openFor      time.Duration
	target       string
	logger       zerolog.Logger
	Now          func() time.Time
}

// NewBreaker constructs a closed breaker. Zero config values fall back to
// five requests, a 0.5 failure ratio and a 30s cool-off.
func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{
		state:        Closed,
		minRequests:  cfg.MinRequests,
		failureRatio: cfg.FailureRatio,
		openFor:      cfg.OpenFor,
		target:       strings.TrimSpace(cfg.Target),
		logger:       cfg.Logger,
		Now:          time.Now,
	}
	if b.minRequests <= 0 {
		b.minRequests = 5
	}
	if b.failureRatio <= 0 {
		b.failureRatio = 0.5
	}
	if b.failureRatio > 1 {
		b.failureRatio = 1
	}
	if b.openFor <= 0 {
		b.openFor = 30 * time.Second
	}
	if b.target == "" {
		b.target = "default"
	}
	recordState(b.target, Closed)
	return b
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. After the cool-off an open
// breaker admits one probe and moves to half-open.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.openFor {
			return false
		}
		b.transitionLocked(ctx, HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// Report records the outcome of an admitted call.
func (b *Breaker) Report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		b.probing = false
		if success {
			b.transitionLocked(ctx, Closed)
		} else {
			b.transitionLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio {
		b.transitionLocked(ctx, Open)
		return
	}
	if total > b.minRequests*2 {
		// decay so old outcomes stop dominating the ratio
		b.successes = (b.successes + 1) / 2
		b.failures = (b.failures + 1) / 2
	}
}

// Do runs fn when the breaker admits it and reports the outcome. Context
// cancellation by the caller is not counted as a dependency failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow(ctx) {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.mu.Lock()
		b.probing = false
		b.mu.Unlock()
		return err
	}
	b.Report(ctx, err == nil)
	return err
}

func (b *Breaker) transitionLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures = 0
	b.successes = 0
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	recordState(b.target, next)
	recordTransition(b.target, prev, next)

	logger := b.logger
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		logger = *ctxLogger
	}
	evt := logger.Info().Str("target", b.target).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}
