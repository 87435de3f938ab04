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

// OpenAIProvider implements domain.ToolCallProvider for any OpenAI-compatible
// chat completions API.
type OpenAIProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIProvider creates a provider with configured timeouts.
func NewOpenAIProvider(cfg config.ProviderConfig, logger *slog.Logger) *OpenAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIProvider{
		name:    cfg.Name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
	}
}

// Name implements domain.ToolCallProvider.
func (p *OpenAIProvider) Name() string { return p.name }

// Generate implements domain.ToolCallProvider.
func (p *OpenAIProvider) Generate(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.generate",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", p.model),
		),
	)
	defer span.End()

	if p.apiKey == "" {
		return nil, domain.NewDomainError("OpenAIProvider.Generate", domain.ErrMissingAPIKey, p.name)
	}

	body, err := json.Marshal(toOpenAIRequest(p.model, req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	respBody, err := doJSONRequest(ctx, p.client, p.name, p.baseURL+"/chat/completions", body, headers)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var oaiResp openaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	result, err := fromOpenAIResponse(oaiResp)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	tracer.SetOK(span)
	p.logger.Debug("llm generate completed",
		"provider", p.name,
		"model", oaiResp.Model,
		"tool_calls", len(result.ToolCalls),
	)
	return result, nil
}

// --- OpenAI API wire types ---

type openaiRequest struct {
	Model     string          `json:"model"`
	Messages  []openaiMessage `json:"messages"`
	Tools     []openaiTool    `json:"tools,omitempty"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openaiMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []openaiToolCall `json:"tool_calls,omitempty"`
}

type openaiTool struct {
	Type     string             `json:"type"`
	Function openaiToolFunction `json:"function"`
}

type openaiToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openaiToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function openaiToolCallFunction `json:"function"`
}

type openaiToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

func toOpenAIRequest(model string, req domain.ProviderRequest) openaiRequest {
	oaiReq := openaiRequest{
		Model: model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}
	if req.MaxTokens > 0 {
		oaiReq.MaxTokens = req.MaxTokens
	}

	for _, t := range req.Tools {
		oaiReq.Tools = append(oaiReq.Tools, openaiTool{
			Type: "function",
			Function: openaiToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	return oaiReq
}

func fromOpenAIResponse(resp openaiResponse) (*domain.ProviderResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", domain.ErrInvalidResponse)
	}

	msg := resp.Choices[0].Message
	result := &domain.ProviderResponse{}

	for _, tc := range msg.ToolCalls {
		// The function arguments arrive as a JSON-encoded string.
		var input map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return nil, fmt.Errorf("%w: tool call arguments: %v", domain.ErrInvalidResponse, err)
			}
		}
		if input == nil {
			input = map[string]any{}
		}
		result.ToolCalls = append(result.ToolCalls, domain.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}

	if len(result.ToolCalls) == 0 {
		result.Text = msg.Content
	}
	return result, nil
}

var _ domain.ToolCallProvider = (*OpenAIProvider)(nil)
