package operator

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/jmylchreest/refyne-dataflow/internal/logger"
)

// Module is implemented by packages that contribute operators.
type Module interface {
	Register(r *Registry) error
}

// Registry maps operator names to factories. It is populated once at startup
// and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterModules registers every module into r, stopping at the first error.
func RegisterModules(r *Registry, mods ...Module) error {
	for _, m := range mods {
		if err := m.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("register: empty operator name")
	}
	if f == nil {
		return fmt.Errorf("register %q: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	logger.Debug("registering operator", "name", name)
	r.factories[name] = f
	return nil
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return f, nil
}

// New constructs the operator registered under name.
func (r *Registry) New(name string) (Operator, error) {
	f, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Len returns the number of registered operators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// List returns the registered names in sorted order. The names are
// snapshotted when List is called; the sequence may be ranged over repeatedly.
func (r *Registry) List() iter.Seq[string] {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)

	return slices.Values(names)
}
