package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

var typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9]+(::[A-Za-z0-9]+){1,2}$`)

// Registry maps resource type names to their schemas. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*ResourceType
}

// Default holds the schemas registered by the typed bindings.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*ResourceType)}
}

// Register adds rt. Registering a name twice is an error.
func (r *Registry) Register(rt *ResourceType) error {
	if rt == nil {
		return fmt.Errorf("schema: nil resource type")
	}
	if !typeNamePattern.MatchString(rt.Name) {
		return fmt.Errorf("schema: invalid resource type name %q", rt.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[rt.Name]; exists {
		return fmt.Errorf("schema: resource type %s already registered", rt.Name)
	}
	r.types[rt.Name] = rt
	return nil
}

// MustRegister is Register that panics on error, for use from init.
func (r *Registry) MustRegister(rt *ResourceType) {
	if err := r.Register(rt); err != nil {
		panic(err)
	}
}

// Put adds or replaces rt.
func (r *Registry) Put(rt *ResourceType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[rt.Name] = rt
}

// Lookup returns the schema registered for name.
func (r *Registry) Lookup(name string) (*ResourceType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[name]
	return rt, ok
}

// Types returns every registered schema ordered by name.
func (r *Registry) Types() []*ResourceType {
	r.mu.RLock()
	out := make([]*ResourceType, 0, len(r.types))
	for _, rt := range r.types {
		out = append(out, rt)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *ResourceType) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Merge copies every schema from other into r, replacing existing names.
func (r *Registry) Merge(other *Registry) {
	for _, rt := range other.Types() {
		r.Put(rt)
	}
}
