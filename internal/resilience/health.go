package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
)

// EventPublisher is the sink for health-change telemetry events.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

type providerHealth struct {
	status  domain.HealthStatus
	latency time.Duration
	checked time.Time
}

// HealthMonitor issues periodic synthetic probes against every configured
// provider and classifies the observed latency. Advisory only: nothing in
// the routing path consults it, and probe traffic is accounted separately
// from the user-command rate limiter.
type HealthMonitor struct {
	mu       sync.Mutex
	statuses map[string]providerHealth

	providers []domain.ToolCallProvider
	interval  time.Duration
	healthy   time.Duration
	degraded  time.Duration
	logger    *slog.Logger
	events    EventPublisher
}

// NewHealthMonitor creates a monitor for the given providers. events may be
// nil; status changes are then only logged.
func NewHealthMonitor(cfg config.HealthConfig, providers []domain.ToolCallProvider, logger *slog.Logger, events EventPublisher) *HealthMonitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	healthy := cfg.HealthyBelow
	if healthy <= 0 {
		healthy = time.Second
	}
	degraded := cfg.DegradedBelow
	if degraded <= 0 {
		degraded = 3 * time.Second
	}

	return &HealthMonitor{
		statuses:  make(map[string]providerHealth),
		providers: providers,
		interval:  interval,
		healthy:   healthy,
		degraded:  degraded,
		logger:    logger,
		events:    events,
	}
}

// Status returns the provider's last classified health and probe latency.
// Providers never probed report HealthUnknown.
func (m *HealthMonitor) Status(provider string) (domain.HealthStatus, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.statuses[provider]
	if !ok {
		return domain.HealthUnknown, 0
	}
	return h.status, h.latency
}

// Snapshot returns the health of every monitored provider.
func (m *HealthMonitor) Snapshot() map[string]domain.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]domain.HealthStatus, len(m.statuses))
	for name, h := range m.statuses {
		out[name] = h.status
	}
	return out
}

// Start runs the probe loop until ctx is cancelled. The first round fires
// immediately so status is available soon after boot.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.probeAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probeAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *HealthMonitor) probeAll(ctx context.Context) {
	for _, p := range m.providers {
		if ctx.Err() != nil {
			return
		}
		m.probe(ctx, p)
	}
}

func (m *HealthMonitor) probe(ctx context.Context, p domain.ToolCallProvider) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	_, err := p.Generate(probeCtx, domain.ProviderRequest{
		Prompt:    "ping",
		MaxTokens: 1,
	})
	latency := time.Since(start)

	status := domain.HealthUnhealthy
	if err == nil {
		switch {
		case latency < m.healthy:
			status = domain.HealthHealthy
		case latency < m.degraded:
			status = domain.HealthDegraded
		}
	}

	m.mu.Lock()
	prev := m.statuses[p.Name()].status
	m.statuses[p.Name()] = providerHealth{
		status:  status,
		latency: latency,
		checked: time.Now(),
	}
	m.mu.Unlock()

	if prev == "" {
		prev = domain.HealthUnknown
	}
	if prev != status {
		m.logger.Info("provider health changed",
			"provider", p.Name(),
			"from", string(prev),
			"to", string(status),
			"latency", latency,
		)
		if m.events != nil {
			m.events.Publish(ctx, domain.Event{
				Type: domain.EventHealthChanged,
				Payload: domain.HealthChangedPayload{
					Provider: p.Name(),
					From:     prev,
					To:       status,
					Latency:  latency,
				},
			})
		}
	}
}
