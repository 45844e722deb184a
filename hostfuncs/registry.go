package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// CapabilityRegistry is an immutable collection of named capabilities.
// Once created via NewRegistry, capabilities cannot be added or removed.
// This ensures thread safety and lock-free dispatch during execution.
type CapabilityRegistry struct {
	capabilities map[string]Capability
	names        []string // sorted for consistent iteration
	middleware   []Middleware
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	capabilities map[string]Capability
	middleware   []Middleware
	errors       []error
}

// NewRegistry creates an immutable CapabilityRegistry with the given
// options. Returns an error if any capability name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithBundle(AllBundles()),
//	    WithCapability("beep", beepCapability),
//	)
func NewRegistry(opts ...RegistryOption) (*CapabilityRegistry, error) {
	b := &registryBuilder{
		capabilities: make(map[string]Capability),
		middleware:   nil,
		errors:       nil,
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0] // Return first error
	}

	// Build sorted name list for consistent iteration
	names := make([]string, 0, len(b.capabilities))
	for name := range b.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply middleware chain to all capabilities (FIFO order)
	wrapped := make(map[string]Capability, len(b.capabilities))
	for name, capability := range b.capabilities {
		chained := capability
		// Apply middleware in reverse order so first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			chained = b.middleware[i](chained)
		}
		wrapped[name] = chained
	}

	return &CapabilityRegistry{
		capabilities: wrapped,
		names:        names,
		middleware:   b.middleware,
	}, nil
}

// Invoke dispatches a capability call by name. An unknown name is a
// no-op: the registry's callers only dispatch names they exported, and
// capabilities never signal failure into the guest.
func (r *CapabilityRegistry) Invoke(ctx context.Context, name string, payload []byte) {
	capability, ok := r.capabilities[name]
	if !ok {
		return
	}

	// Record the dispatched name for middleware diagnostics
	ctx = withCapabilityName(ctx, name)
	capability(ctx, payload)
}

// Has returns true if a capability with the given name is registered.
func (r *CapabilityRegistry) Has(name string) bool {
	_, ok := r.capabilities[name]
	return ok
}

// Names returns a sorted list of all registered capability names.
func (r *CapabilityRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// addCapability registers a capability under the given name.
// Returns an error if the name is already registered.
func (b *registryBuilder) addCapability(name string, capability Capability) error {
	if name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if _, exists := b.capabilities[name]; exists {
		return fmt.Errorf("duplicate capability name: %q", name)
	}
	b.capabilities[name] = capability
	return nil
}

// WithCapability registers a raw Capability under the given name.
// Use WithTextCapability for bodies that want decoded text.
func WithCapability(name string, capability Capability) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addCapability(name, capability); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithTextCapability registers a text-typed capability body, wrapped
// with NewTextCapability for lossy UTF-8 decoding.
//
// Example usage:
//
//	WithTextCapability("shout", func(ctx context.Context, text string) {
//	    hostfuncs.PerformWrite(ctx, strings.ToUpper(text))
//	})
func WithTextCapability(name string, fn TextFunc) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addCapability(name, NewTextCapability(fn)); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
