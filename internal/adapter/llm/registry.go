package llm

import (
	"fmt"
	"log/slog"
	"sync"

	"easel-ai/internal/domain"
	"easel-ai/internal/infra/config"
)

// Registry holds named tool-call providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]domain.ToolCallProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]domain.ToolCallProvider),
	}
}

// NewRegistryFromConfig builds adapters for every configured provider.
func NewRegistryFromConfig(cfgs []config.ProviderConfig, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry()
	for _, cfg := range cfgs {
		var p domain.ToolCallProvider
		switch cfg.Type {
		case "anthropic":
			p = NewAnthropicProvider(cfg, logger)
		case "openai":
			p = NewOpenAIProvider(cfg, logger)
		default:
			return nil, fmt.Errorf("unsupported provider type %q", cfg.Type)
		}
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a provider. Returns error if name already registered.
func (r *Registry) Register(provider domain.ToolCallProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = provider
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (domain.ToolCallProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrProviderNotFound, name)
	}
	return p, nil
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
