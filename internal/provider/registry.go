package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds named provider factories. Providers register themselves
// explicitly at startup; there is no reflection-based discovery.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	// priority records the priority passed to Register; used only as a
	// scorer tie-break.
	priority map[string]int
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		priority:  make(map[string]int),
	}
}

// Register adds a provider factory under name with the given priority
// (lower value sorts first in fan-out result tie-breaks).
func (r *Registry) Register(name string, priority int, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
	r.priority[name] = priority
}

// Get builds a provider instance for name with apiKey, if registered.
func (r *Registry) Get(name, apiKey string) (Provider, bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	p := factory(apiKey)
	if c, ok := p.(Configurable); ok {
		_ = c.Configure(apiKey)
	}
	return p, true
}

// MustGet panics if name isn't registered; reserved for startup wiring.
func (r *Registry) MustGet(name, apiKey string) Provider {
	p, ok := r.Get(name, apiKey)
	if !ok {
		panic(fmt.Sprintf("provider: %q is not registered", name))
	}
	return p
}

// Priority returns the registered priority for name, or 0 if unknown.
func (r *Registry) Priority(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.priority[name]
}

// List returns registered provider names sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	sort.Strings(out)
	return out
}

// IsRegistered reports whether name has a registered factory.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// DefaultRegistry is the process-wide registry used by providers that
// self-register via an init() func. It is the one deliberate piece of
// process-wide mutable state outside metrics counters; everything that reads
// from it does so through the Registry methods above, never directly.
var DefaultRegistry = NewRegistry()

func RegisterProvider(name string, priority int, factory Factory) {
	DefaultRegistry.Register(name, priority, factory)
}
