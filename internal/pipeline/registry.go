package pipeline

import (
	"errors"
	"fmt"

	"flux/internal/pass"
)

// ErrUnknownPass is returned when a registry lookup names a pass that
// was never registered.
var ErrUnknownPass = errors.New("unknown pass")

// Registry maps pass names to factories so manifests and command lines
// can schedule extra passes by name. Factories build a fresh pass per
// lookup.
type Registry struct {
	factories map[string]func() pass.Pass
	names     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() pass.Pass)}
}

// Register binds a name to a factory. Re-registering a name replaces
// the factory.
func (r *Registry) Register(name string, factory func() pass.Pass) {
	if _, ok := r.factories[name]; !ok {
		r.names = append(r.names, name)
	}
	r.factories[name] = factory
}

// Lookup builds the pass registered under name.
func (r *Registry) Lookup(name string) (pass.Pass, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownPass, name, r.names)
	}
	return factory(), nil
}

// LookupAll builds every named pass, keeping order.
func (r *Registry) LookupAll(names []string) ([]pass.Pass, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]pass.Pass, 0, len(names))
	for _, n := range names {
		p, err := r.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Names lists registered pass names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
