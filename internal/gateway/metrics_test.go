package gateway

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"easel-ai/internal/domain"
	"easel-ai/internal/telemetry"
)

func TestMetricsAggregateBusEvents(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	bus := telemetry.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	detach := m.Attach(bus)
	defer detach()

	ctx := context.Background()
	bus.Emit(ctx, domain.EventCommandExecuted, domain.CommandExecutedPayload{
		Provider:       "anthropic",
		Classification: domain.ClassComplexPath,
		Duration:       120 * time.Millisecond,
		Success:        true,
	})
	bus.Emit(ctx, domain.EventCommandExecuted, domain.CommandExecutedPayload{
		Provider:       "anthropic",
		Classification: domain.ClassComplexPath,
		Success:        false,
		ErrorCode:      domain.CodeRequestFailed,
	})
	bus.Emit(ctx, domain.EventProviderCall, map[string]any{
		"provider": "openai",
		"success":  true,
	})
	bus.Emit(ctx, domain.EventHealthChanged, domain.HealthChangedPayload{
		Provider: "openai",
		From:     domain.HealthUnknown,
		To:       domain.HealthDegraded,
	})
	bus.Emit(ctx, domain.EventBreakerTransition, map[string]any{
		"provider": "anthropic",
		"from":     "closed",
		"to":       "open",
	})
	bus.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.commandsTotal.WithLabelValues("anthropic", "complex_path", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.commandsTotal.WithLabelValues("anthropic", "complex_path", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.providerCalls.WithLabelValues("openai", "true")))
	assert.Equal(t, 0.5, testutil.ToFloat64(
		m.providerHealth.WithLabelValues("openai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.breakerChanges.WithLabelValues("anthropic")))
}

func TestMetricsDetachStopsCollection(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	bus := telemetry.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer bus.Close()

	detach := m.Attach(bus)
	detach()

	bus.Emit(context.Background(), domain.EventProviderCall, map[string]any{
		"provider": "openai",
		"success":  true,
	})
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(
		m.providerCalls.WithLabelValues("openai", "true")))
}
