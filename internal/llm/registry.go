package llm

import (
	"fmt"
	"strings"
	"sync"

	"letter-backend/internal/shared/telemetry"
)

// Constructor builds a provider bound to an API key.
type Constructor func(apiKey string) (Provider, error)

// Registry maps provider names to constructors and keeps their preference order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	ctors map[string]Constructor
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a provider. Registration order is the default preference order.
func (r *Registry) Register(name string, ctor Constructor) {
	name = normalizeName(name)
	if name == "" || ctor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; !exists {
		r.order = append(r.order, name)
	}
	r.ctors[name] = ctor
}

// Names returns the providers in preference order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Supports reports whether name is a registered provider.
func (r *Registry) Supports(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[normalizeName(name)]
	return ok
}

// New builds the named provider with apiKey.
func (r *Registry) New(name, apiKey string) (Provider, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider %q", name)
	}
	return ctor(apiKey)
}

// ForKeys builds every provider that has a non-empty key in keys, in preference order.
func (r *Registry) ForKeys(keys map[string]string) []Provider {
	return r.ForKeysIn(r.Names(), keys)
}

// ForKeysIn is ForKeys with an explicit order. Unregistered and repeated names
// are skipped.
func (r *Registry) ForKeysIn(order []string, keys map[string]string) []Provider {
	var out []Provider
	seen := make(map[string]bool)
	for _, name := range order {
		name = normalizeName(name)
		if seen[name] || !r.Supports(name) {
			continue
		}
		seen[name] = true
		key := strings.TrimSpace(keys[name])
		if key == "" {
			continue
		}
		p, err := r.New(name, key)
		if err != nil {
			telemetry.Warn("llm.provider.init_failed", map[string]any{"provider": name, "error": err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
