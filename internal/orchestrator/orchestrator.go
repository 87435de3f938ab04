// Package orchestrator runs the full command pipeline: canvas check,
// classification, provider selection, resilience gating, prompt enrichment,
// generation with a single fallback retry, then tool execution.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"easel-ai/internal/adapter/llm"
	"easel-ai/internal/classifier"
	"easel-ai/internal/domain"
	"easel-ai/internal/executor"
	"easel-ai/internal/infra/config"
	"easel-ai/internal/infra/tracer"
	"easel-ai/internal/resilience"
	"easel-ai/internal/telemetry"
)

const defaultMaxTokens = 4096

// Orchestrator coordinates one natural-language command end to end.
type Orchestrator struct {
	registry *llm.Registry
	limiter  *resilience.RateLimiter
	breaker  *resilience.Breaker
	store    domain.ObjectStore
	exec     *executor.Executor
	bus      *telemetry.Bus
	routing  config.RoutingConfig
	logger   *slog.Logger
}

// New wires an orchestrator. bus may be nil when telemetry is not wanted.
func New(
	registry *llm.Registry,
	limiter *resilience.RateLimiter,
	breaker *resilience.Breaker,
	store domain.ObjectStore,
	exec *executor.Executor,
	bus *telemetry.Bus,
	routing config.RoutingConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		limiter:  limiter,
		breaker:  breaker,
		store:    store,
		exec:     exec,
		bus:      bus,
		routing:  routing,
		logger:   logger,
	}
}

// Execute runs one command. The returned result carries either executed tool
// results or the provider's verbatim text reply.
func (o *Orchestrator) Execute(ctx context.Context, cmd domain.Command, opts domain.ExecuteOptions) (*domain.CommandResult, error) {
	ctx, span := tracer.StartSpan(ctx, "orchestrator.execute")
	defer span.End()
	start := time.Now()

	if opts.CurrentColor != "" {
		cmd.CurrentColor = opts.CurrentColor
	}
	if opts.Viewport != nil {
		cmd.Viewport = opts.Viewport
	}

	if _, err := o.store.GetCanvas(ctx, cmd.CanvasID); err != nil {
		tracer.RecordError(span, err)
		o.emitOutcome(ctx, cmd, "", "", start, 0, err)
		return nil, err
	}

	class := domain.ClassComplexPath
	if !opts.SkipClassification {
		class = classify(cmd.Text)
	}
	span.SetAttributes(tracer.StringAttr("command.classification", string(class)))

	objects, err := o.store.ListObjects(ctx, cmd.CanvasID)
	if err != nil {
		tracer.RecordError(span, err)
		o.emitOutcome(ctx, cmd, "", class, start, 0, err)
		return nil, err
	}

	req := domain.ProviderRequest{
		System:    systemPrompt,
		Prompt:    buildPrompt(cmd, objects),
		Tools:     executor.Schemas(),
		MaxTokens: defaultMaxTokens,
	}

	providerName, resp, err := o.generate(ctx, class, opts.ProviderOverride, req)
	if err != nil {
		tracer.RecordError(span, err)
		o.emitOutcome(ctx, cmd, providerName, class, start, 0, err)
		return nil, err
	}
	span.SetAttributes(
		tracer.StringAttr("provider.name", providerName),
		tracer.IntAttr("provider.tool_calls", len(resp.ToolCalls)),
	)

	result := &domain.CommandResult{
		Provider:       providerName,
		Classification: class,
	}
	if len(resp.ToolCalls) == 0 {
		result.Text = resp.Text
		tracer.SetOK(span)
		o.emitOutcome(ctx, cmd, providerName, class, start, 0, nil)
		return result, nil
	}

	result.Results = o.exec.Execute(ctx, cmd.CanvasID, resp.ToolCalls, cmd.SelectedIDs)
	tracer.SetOK(span)
	o.emitOutcome(ctx, cmd, providerName, class, start, len(resp.ToolCalls), nil)
	return result, nil
}

// classify is indirected for tests.
var classify = classifier.Classify

// generate picks a provider from the routing table, gates the call through
// the rate limiter and circuit breaker, and retries exactly once on the
// fallback provider when the first choice is blocked or fails non-terminally.
func (o *Orchestrator) generate(ctx context.Context, class domain.Classification, override string, req domain.ProviderRequest) (string, *domain.ProviderResponse, error) {
	primary := o.selectProvider(class, override)

	resp, err := o.callProvider(ctx, primary, req)
	if err == nil {
		return primary, resp, nil
	}
	if domain.IsTerminal(err) {
		return primary, nil, err
	}

	fallback := o.routing.Fallback
	if override != "" || fallback == "" || fallback == primary {
		return primary, nil, err
	}

	o.logger.Warn("provider failed, retrying on fallback",
		"provider", primary,
		"fallback", fallback,
		"error", err,
	)
	resp, ferr := o.callProvider(ctx, fallback, req)
	if ferr != nil {
		// Surface the original failure; the fallback outcome goes to the log.
		o.logger.Error("fallback provider failed", "provider", fallback, "error", ferr)
		return primary, nil, err
	}
	return fallback, resp, nil
}

func (o *Orchestrator) selectProvider(class domain.Classification, override string) string {
	if override != "" {
		return override
	}
	if class == domain.ClassFastPath && o.routing.Fast != "" {
		return o.routing.Fast
	}
	return o.routing.Primary
}

// callProvider runs one gated provider call: limiter admission, breaker
// admission, generation, then outcome reporting to the breaker.
func (o *Orchestrator) callProvider(ctx context.Context, name string, req domain.ProviderRequest) (*domain.ProviderResponse, error) {
	provider, err := o.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if err := o.limiter.Check(name); err != nil {
		return nil, err
	}

	done, err := o.breaker.Allow(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := provider.Generate(ctx, req)
	done(err == nil)

	if o.bus != nil {
		o.bus.Emit(ctx, domain.EventProviderCall, map[string]any{
			"provider": name,
			"duration": time.Since(start),
			"success":  err == nil,
		})
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (o *Orchestrator) emitOutcome(ctx context.Context, cmd domain.Command, provider string, class domain.Classification, start time.Time, toolCalls int, err error) {
	if o.bus == nil {
		return
	}
	payload := domain.CommandExecutedPayload{
		CanvasID:       cmd.CanvasID,
		Provider:       provider,
		Classification: class,
		Duration:       time.Since(start),
		ToolCalls:      toolCalls,
		Success:        err == nil,
	}
	if err != nil {
		payload.ErrorCode = domain.ErrorCodeOf(err)
	}
	o.bus.Emit(ctx, domain.EventCommandExecuted, payload)
}
