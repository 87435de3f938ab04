package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel-ai/internal/adapter/llm"
	"easel-ai/internal/domain"
	"easel-ai/internal/executor"
	"easel-ai/internal/infra/config"
	"easel-ai/internal/resilience"
)

// scriptedProvider returns a canned response or error and records its calls.
type scriptedProvider struct {
	name  string
	resp  *domain.ProviderResponse
	err   error
	calls int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(_ context.Context, _ domain.ProviderRequest) (*domain.ProviderResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.resp != nil {
		return p.resp, nil
	}
	return &domain.ProviderResponse{Text: "ok"}, nil
}

// memStore is an in-memory domain.ObjectStore for pipeline tests.
type memStore struct {
	canvases map[int64]*domain.Canvas
	objects  map[int64]*domain.ObjectRef
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		canvases: map[int64]*domain.Canvas{1: {ID: 1, Name: "test"}},
		objects:  make(map[int64]*domain.ObjectRef),
	}
}

func (s *memStore) GetCanvas(_ context.Context, id int64) (*domain.Canvas, error) {
	c, ok := s.canvases[id]
	if !ok {
		return nil, domain.ErrCanvasNotFound
	}
	return c, nil
}

func (s *memStore) GetObject(_ context.Context, id int64) (*domain.ObjectRef, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *memStore) ListObjects(_ context.Context, canvasID int64) ([]domain.ObjectRef, error) {
	var out []domain.ObjectRef
	for id := int64(1); id <= s.nextID; id++ {
		if o, ok := s.objects[id]; ok && o.CanvasID == canvasID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memStore) CreateObject(ctx context.Context, canvasID int64, objType string, attrs domain.ObjectAttrs) (*domain.ObjectRef, error) {
	if attrs == nil {
		attrs = domain.ObjectAttrs{}
	}
	attrs["type"] = objType
	refs, err := s.CreateObjectsBatch(ctx, canvasID, []domain.ObjectAttrs{attrs})
	if err != nil {
		return nil, err
	}
	return &refs[0], nil
}

func (s *memStore) CreateObjectsBatch(_ context.Context, canvasID int64, records []domain.ObjectAttrs) ([]domain.ObjectRef, error) {
	if _, ok := s.canvases[canvasID]; !ok {
		return nil, domain.ErrCanvasNotFound
	}
	refs := make([]domain.ObjectRef, 0, len(records))
	for _, rec := range records {
		typ, _ := rec["type"].(string)
		if typ == "" {
			return nil, fmt.Errorf("object type is required")
		}
		s.nextID++
		ref := domain.ObjectRef{ID: s.nextID, CanvasID: canvasID, Type: typ}
		if x, ok := rec["x"].(float64); ok {
			ref.Position.X = x
		}
		if y, ok := rec["y"].(float64); ok {
			ref.Position.Y = y
		}
		s.objects[ref.ID] = &ref
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *memStore) UpdateObject(_ context.Context, id int64, attrs domain.ObjectAttrs) (*domain.ObjectRef, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	if x, ok := attrs["x"].(float64); ok {
		o.Position.X = x
	}
	if y, ok := attrs["y"].(float64); ok {
		o.Position.Y = y
	}
	copied := *o
	return &copied, nil
}

func (s *memStore) DeleteObject(_ context.Context, id int64) error {
	if _, ok := s.objects[id]; !ok {
		return domain.ErrObjectNotFound
	}
	delete(s.objects, id)
	return nil
}

func (s *memStore) BringToFront(_ context.Context, _ int64) error { return nil }
func (s *memStore) SendToBack(_ context.Context, _ int64) error   { return nil }
func (s *memStore) MoveForward(_ context.Context, _ int64) error  { return nil }
func (s *memStore) MoveBackward(_ context.Context, _ int64) error { return nil }

type fixture struct {
	orch     *Orchestrator
	store    *memStore
	limiter  *resilience.RateLimiter
	fast     *scriptedProvider
	primary  *scriptedProvider
	fallback *scriptedProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		store:    newMemStore(),
		fast:     &scriptedProvider{name: "fast"},
		primary:  &scriptedProvider{name: "primary"},
		fallback: &scriptedProvider{name: "fallback"},
	}

	registry := llm.NewRegistry()
	for _, p := range []*scriptedProvider{f.fast, f.primary, f.fallback} {
		require.NoError(t, registry.Register(p))
	}

	f.limiter = resilience.NewRateLimiter(config.RateLimitConfig{
		MaxRequests: 100,
		Window:      time.Minute,
	})
	breaker := resilience.NewBreaker(config.BreakerConfig{
		MaxFailures: 100,
		Timeout:     time.Minute,
	}, logger, nil)

	exec := executor.New(f.store, nil, logger)
	f.orch = New(registry, f.limiter, breaker, f.store, exec, nil,
		config.RoutingConfig{Fast: "fast", Primary: "primary", Fallback: "fallback"},
		logger)
	return f
}

// forceClassification pins the routing hint for the duration of a test.
func forceClassification(t *testing.T, class domain.Classification) {
	t.Helper()
	prev := classify
	classify = func(string) domain.Classification { return class }
	t.Cleanup(func() { classify = prev })
}

func TestExecuteCanvasNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 99}, domain.ExecuteOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCanvasNotFound)
	assert.Zero(t, f.primary.calls, "no provider call for a missing canvas")
}

func TestExecuteFastPathRoutesToFastProvider(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassFastPath)

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "create a red circle at 10,10", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Provider)
	assert.Equal(t, domain.ClassFastPath, result.Classification)
	assert.Equal(t, 1, f.fast.calls)
	assert.Zero(t, f.primary.calls)
}

func TestExecuteComplexPathRoutesToPrimary(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "build a login form", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, 1, f.primary.calls)
}

func TestExecuteSkipClassificationForcesComplexPath(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassFastPath)

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "create a circle", CanvasID: 1},
		domain.ExecuteOptions{SkipClassification: true})
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Provider)
	assert.Equal(t, domain.ClassComplexPath, result.Classification)
	assert.Zero(t, f.fast.calls)
}

func TestExecuteProviderOverride(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1},
		domain.ExecuteOptions{ProviderOverride: "fast"})
	require.NoError(t, err)
	assert.Equal(t, "fast", result.Provider)
	assert.Zero(t, f.primary.calls)
}

func TestExecuteOverrideSuppressesFallback(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.fast.err = domain.ErrRequestFailed

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1},
		domain.ExecuteOptions{ProviderOverride: "fast"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Zero(t, f.fallback.calls, "an explicit provider choice is never second-guessed")
}

func TestExecuteFallbackOnPrimaryFailure(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.primary.err = domain.ErrRequestFailed

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Provider)
	assert.Equal(t, 1, f.primary.calls)
	assert.Equal(t, 1, f.fallback.calls)
}

func TestExecuteFallbackFailureSurfacesOriginalError(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.primary.err = &domain.APIError{Provider: "primary", Status: 500, Body: "boom"}
	f.fallback.err = domain.ErrRequestFailed

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1}, domain.ExecuteOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAPIError, "caller sees the primary's failure")
	assert.Equal(t, 1, f.fallback.calls)
}

func TestExecuteTerminalErrorSkipsFallback(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.primary.err = domain.ErrMissingAPIKey

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1}, domain.ExecuteOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Zero(t, f.fallback.calls, "terminal errors are not retried anywhere")
}

func TestExecuteRateLimitedPrimaryFallsBack(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)

	// Exhaust the primary's admission budget out of band.
	for i := 0; i < 100; i++ {
		require.NoError(t, f.limiter.Check("primary"))
	}

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Provider)
	assert.Zero(t, f.primary.calls, "rate-limited provider is never invoked")
}

func TestExecuteUnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "do it", CanvasID: 1},
		domain.ExecuteOptions{ProviderOverride: "mistral"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}

func TestExecuteTextOnlyResponse(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.primary.resp = &domain.ProviderResponse{Text: "Which circle do you mean?"}

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "move the circle", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Which circle do you mean?", result.Text)
	assert.Empty(t, result.Results)
}

func TestExecuteRunsToolCalls(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)
	f.primary.resp = &domain.ProviderResponse{
		ToolCalls: []domain.ToolCall{
			{ID: "tc1", Name: "create_shape", Input: map[string]any{
				"shape_type": "circle", "x": 100.0, "y": 50.0,
			}},
		},
	}

	result, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "create a circle", CanvasID: 1}, domain.ExecuteOptions{})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].OK(), "error: %s", result.Results[0].Error)

	objects, err := f.store.ListObjects(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, 100.0, objects[0].Position.X)
}

func TestExecuteOptionsEnrichCommand(t *testing.T) {
	f := newFixture(t)
	forceClassification(t, domain.ClassComplexPath)

	_, err := f.orch.Execute(context.Background(),
		domain.Command{Text: "add a box", CanvasID: 1},
		domain.ExecuteOptions{
			CurrentColor: "#336699",
			Viewport:     &domain.Viewport{X: 0, Y: 0, Width: 800, Height: 600},
		})
	require.NoError(t, err)
	assert.Equal(t, 1, f.primary.calls)
}
