package gateway

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"easel-ai/internal/domain"
	"easel-ai/internal/telemetry"
)

// Metrics aggregates telemetry events into Prometheus collectors served at
// GET /metrics.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	providerCalls   *prometheus.CounterVec
	providerHealth  *prometheus.GaugeVec
	breakerChanges  *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. Pass
// prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_commands_total",
				Help: "Commands executed, by provider and outcome.",
			},
			[]string{"provider", "classification", "success"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "easel_command_duration_seconds",
				Help:    "End-to-end command latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_provider_calls_total",
				Help: "LLM provider calls, by provider and outcome.",
			},
			[]string{"provider", "success"},
		),
		providerHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "easel_provider_healthy",
				Help: "Provider probe status: 1 healthy, 0.5 degraded, 0 unhealthy.",
			},
			[]string{"provider"},
		),
		breakerChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_breaker_transitions_total",
				Help: "Circuit breaker state transitions.",
			},
			[]string{"provider"},
		),
	}
	reg.MustRegister(
		m.commandsTotal,
		m.commandDuration,
		m.providerCalls,
		m.providerHealth,
		m.breakerChanges,
	)
	return m
}

// Attach subscribes the collectors to the telemetry bus. The returned
// function detaches them.
func (m *Metrics) Attach(bus *telemetry.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(domain.EventCommandExecuted, m.onCommand),
		bus.Subscribe(domain.EventProviderCall, m.onProviderCall),
		bus.Subscribe(domain.EventHealthChanged, m.onHealthChanged),
		bus.Subscribe(domain.EventBreakerTransition, m.onBreakerTransition),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (m *Metrics) onCommand(_ context.Context, event domain.Event) {
	payload, ok := event.Payload.(domain.CommandExecutedPayload)
	if !ok {
		return
	}
	m.commandsTotal.WithLabelValues(
		payload.Provider,
		string(payload.Classification),
		boolLabel(payload.Success),
	).Inc()
	m.commandDuration.WithLabelValues(payload.Provider).
		Observe(payload.Duration.Seconds())
}

func (m *Metrics) onProviderCall(_ context.Context, event domain.Event) {
	payload, ok := event.Payload.(map[string]any)
	if !ok {
		return
	}
	provider, _ := payload["provider"].(string)
	success, _ := payload["success"].(bool)
	m.providerCalls.WithLabelValues(provider, boolLabel(success)).Inc()
}

func (m *Metrics) onHealthChanged(_ context.Context, event domain.Event) {
	payload, ok := event.Payload.(domain.HealthChangedPayload)
	if !ok {
		return
	}
	var v float64
	switch payload.To {
	case domain.HealthHealthy:
		v = 1
	case domain.HealthDegraded:
		v = 0.5
	}
	m.providerHealth.WithLabelValues(payload.Provider).Set(v)
}

func (m *Metrics) onBreakerTransition(_ context.Context, event domain.Event) {
	payload, ok := event.Payload.(map[string]any)
	if !ok {
		return
	}
	provider, _ := payload["provider"].(string)
	m.breakerChanges.WithLabelValues(provider).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
