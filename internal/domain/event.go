package domain

import (
	"context"
	"time"
)

// EventType identifies the kind of telemetry event being published.
type EventType string

const (
	EventCommandExecuted   EventType = "command.executed"
	EventProviderCall      EventType = "provider.call.completed"
	EventHealthChanged     EventType = "provider.health.changed"
	EventBreakerTransition EventType = "breaker.state.changed"
)

// Event is one telemetry record published on the in-process bus.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventHandler consumes events. Handlers must not block for long; the bus
// dispatches each in its own goroutine.
type EventHandler func(ctx context.Context, event Event)

// CommandExecutedPayload is attached to EventCommandExecuted.
type CommandExecutedPayload struct {
	CanvasID       int64          `json:"canvas_id"`
	Provider       string         `json:"provider"`
	Classification Classification `json:"classification"`
	Duration       time.Duration  `json:"duration"`
	ToolCalls      int            `json:"tool_calls"`
	Success        bool           `json:"success"`
	ErrorCode      ErrorCode      `json:"error_code,omitempty"`
}

// HealthChangedPayload is attached to EventHealthChanged.
type HealthChangedPayload struct {
	Provider string       `json:"provider"`
	From     HealthStatus `json:"from"`
	To       HealthStatus `json:"to"`
	Latency  time.Duration `json:"latency"`
}
