package domain

import "context"

// ProviderRequest is sent to an LLM backend.
type ProviderRequest struct {
	System    string
	Prompt    string
	Tools     []ToolSchema
	MaxTokens int
}

// ProviderResponse is the canonical provider output: tool calls, or a text
// reply when the model asks for clarification instead of acting.
type ProviderResponse struct {
	ToolCalls []ToolCall
	Text      string
}

// ToolCallProvider is the interface for any LLM backend.
type ToolCallProvider interface {
	// Generate sends a request and returns the parsed canonical response.
	Generate(ctx context.Context, req ProviderRequest) (*ProviderResponse, error)
	// Name returns the provider's identifier (e.g. "anthropic", "openai").
	Name() string
}

// HealthStatus classifies a provider's probe latency. Advisory only.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)
