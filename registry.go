package blocks

import (
	"fmt"
	"sync"
)

// Registry maps type names to loaded models. It is populated at process
// start and looked up when rows are instantiated or relations are followed.
// Lookups of unknown names fail with a ResolutionError.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register loads and registers the given models.
func (r *Registry) Register(schemas ...Interface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemas {
		m, err := Load(s)
		if err != nil {
			return err
		}
		if _, ok := r.models[m.Name]; ok {
			return fmt.Errorf("blocks: model %q registered twice", m.Name)
		}
		r.models[m.Name] = m
		r.order = append(r.order, m.Name)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...Interface) *Registry {
	if err := r.Register(schemas...); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the model registered under the given type name.
func (r *Registry) Lookup(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return nil, NewResolutionError(name)
	}
	return m, nil
}

// Model returns the registered model of the given schema type.
func (r *Registry) Model(schema Interface) (*Model, error) {
	return r.Lookup(TypeName(schema))
}

// Models returns all registered models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms := make([]*Model, len(r.order))
	for i, name := range r.order {
		ms[i] = r.models[name]
	}
	return ms
}

// Resolve returns the model a row with the given "class" discriminator
// belongs to, as seen from base: the base class prefix and suffix are
// wrapped around the discriminator. An empty discriminator resolves to base.
func (r *Registry) Resolve(base *Model, class string) (*Model, error) {
	if class == "" {
		return base, nil
	}
	name := base.Config.ClassPrefix + class + base.Config.ClassSuffix
	if name == base.Name {
		return base, nil
	}
	return r.Lookup(name)
}
