package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
)

// Default circuit breaker settings.
const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 60 * time.Second
)

// Breaker is a per-provider failure-gated state machine. Every provider call
// must pass Allow first and report its outcome through the returned done
// function; a tripped provider fails fast with domain.ErrCircuitOpen until
// the open timeout elapses and a half-open probe succeeds.
type Breaker struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.TwoStepCircuitBreaker[any]

	maxFailures uint32
	timeout     time.Duration
	interval    time.Duration
	logger      *slog.Logger
	events      EventPublisher
}

// NewBreaker creates a breaker service from config, applying defaults for
// zero values (5 consecutive failures, 60s open timeout). events may be nil;
// state transitions are then only logged.
func NewBreaker(cfg config.BreakerConfig, logger *slog.Logger, events EventPublisher) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}

	return &Breaker{
		breakers:    make(map[string]*gobreaker.TwoStepCircuitBreaker[any]),
		maxFailures: maxFailures,
		timeout:     timeout,
		interval:    cfg.Interval,
		logger:      logger,
		events:      events,
	}
}

func (b *Breaker) forProvider(provider string) *gobreaker.TwoStepCircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[provider]; ok {
		return cb
	}

	cb := gobreaker.NewTwoStepCircuitBreaker[any](gobreaker.Settings{
		Name:        "llm:" + provider,
		MaxRequests: 1, // exactly one probe in half-open state
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= b.maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if b.events != nil {
				b.events.Publish(context.Background(), domain.Event{
					Type: domain.EventBreakerTransition,
					Payload: map[string]any{
						"provider": provider,
						"from":     from.String(),
						"to":       to.String(),
					},
				})
			}
		},
	})
	b.breakers[provider] = cb
	return cb
}

// Allow gates one call to the provider. On admission it returns a done
// function the caller must invoke with the call's outcome; on an open
// circuit it returns domain.ErrCircuitOpen.
func (b *Breaker) Allow(provider string) (done func(success bool), err error) {
	done, err = b.forProvider(provider).Allow()
	if err != nil {
		return nil, domain.NewDomainError("Breaker.Allow", domain.ErrCircuitOpen, provider)
	}
	return done, nil
}

// Open reports whether the provider's circuit currently short-circuits calls.
func (b *Breaker) Open(provider string) bool {
	return b.forProvider(provider).State() == gobreaker.StateOpen
}

// State returns the provider's circuit state for observability.
func (b *Breaker) State(provider string) gobreaker.State {
	return b.forProvider(provider).State()
}

// Counts returns the provider's success/failure counters for observability.
func (b *Breaker) Counts(provider string) gobreaker.Counts {
	return b.forProvider(provider).Counts()
}
