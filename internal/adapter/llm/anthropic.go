package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
	"easel-ai/internal/infra/tracer"
)

const defaultAnthropicVersion = "2023-06-01"

// AnthropicProvider implements domain.ToolCallProvider for the Anthropic
// Messages API.
type AnthropicProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	version string
}

// NewAnthropicProvider creates a provider for the Anthropic Messages API.
func NewAnthropicProvider(cfg config.ProviderConfig, logger *slog.Logger) *AnthropicProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicProvider{
		name:    cfg.Name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
		version: defaultAnthropicVersion,
	}
}

// Name implements domain.ToolCallProvider.
func (p *AnthropicProvider) Name() string { return p.name }

// Generate implements domain.ToolCallProvider.
func (p *AnthropicProvider) Generate(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.generate",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", p.model),
		),
	)
	defer span.End()

	if p.apiKey == "" {
		return nil, domain.NewDomainError("AnthropicProvider.Generate", domain.ErrMissingAPIKey, p.name)
	}

	body, err := json.Marshal(toAnthropicRequest(p.model, req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": p.version,
	}

	respBody, err := doJSONRequest(ctx, p.client, p.name, p.baseURL+"/v1/messages", body, headers)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var antResp anthropicResponse
	if err := json.Unmarshal(respBody, &antResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	result, err := fromAnthropicResponse(antResp)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	p.logger.Debug("llm generate completed",
		"provider", p.name,
		"model", antResp.Model,
		"tool_calls", len(result.ToolCalls),
		"stop_reason", antResp.StopReason,
	)
	return result, nil
}

// --- Anthropic API wire types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

func toAnthropicRequest(model string, req domain.ProviderRequest) anthropicRequest {
	antReq := anthropicRequest{
		Model:     model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: req.Prompt}},
			},
		},
	}
	if antReq.MaxTokens <= 0 {
		antReq.MaxTokens = 4096
	}

	for _, t := range req.Tools {
		antReq.Tools = append(antReq.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	return antReq
}

func fromAnthropicResponse(resp anthropicResponse) (*domain.ProviderResponse, error) {
	result := &domain.ProviderResponse{}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Text += block.Text
		case "tool_use":
			var input map[string]any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					return nil, fmt.Errorf("%w: tool_use input: %v", domain.ErrInvalidResponse, err)
				}
			}
			if input == nil {
				input = map[string]any{}
			}
			result.ToolCalls = append(result.ToolCalls, domain.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}

	// Tool calls take precedence; text alongside tool_use blocks is
	// commentary, not a clarification request.
	if len(result.ToolCalls) > 0 {
		result.Text = ""
	}
	return result, nil
}

var _ domain.ToolCallProvider = (*AnthropicProvider)(nil)
