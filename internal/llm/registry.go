package llm

import (
	"context"

	"github.com/sorriso/simplehybridchat/internal/apperr"
)

// Factory constructs a fresh Provider instance. Registered once per
// configured provider name at startup.
type Factory func(ctx context.Context) (Provider, error)

// Registry resolves the configured LLM_PROVIDER name to a Factory and
// mints a new Provider instance per call, grounded in the teacher's
// registry.go shape but simplified: this deployment runs exactly one
// configured provider at a time (spec.md §6's LLM_PROVIDER is a single
// enum value), so Registry holds factories, not live instances — an
// instance is never shared across concurrent streams (spec.md §5).
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a Factory under the given provider name.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// New constructs a fresh Provider instance for the named provider.
func (r *Registry) New(ctx context.Context, name string) (Provider, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, apperr.New(apperr.Internal, "no LLM provider registered for "+name)
	}
	return factory(ctx)
}
