// Package registry provides the standard system-type factory: a table of
// named constructors plus their declared parameter schemas, implementing
// statetree.Factory.
package registry

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/statetree"
)

// Constructor builds a fresh instance of a system type.
type Constructor func() statetree.System

// entry binds a constructor to its declared parameter schema.
type entry struct {
	ctor   Constructor
	schema []statetree.ParamSpec
}

// Registry maps type names to constructors. Safe for concurrent use,
// although the expected lifecycle is register-everything-then-read.
type Registry struct {
	mu    sync.RWMutex
	types map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]entry)}
}

// Register adds a system type under a name. A type registered twice is
// overwritten; last registration wins.
func (r *Registry) Register(typeName string, ctor Constructor, schema ...statetree.ParamSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typeName] = entry{ctor: ctor, schema: schema}
}

// Create builds a fresh instance of the named type.
func (r *Registry) Create(typeName string) (statetree.System, error) {
	r.mu.RLock()
	e, ok := r.types[typeName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, typeName)
	}
	return e.ctor(), nil
}

// Schema returns the parameter schema declared for the named type.
func (r *Registry) Schema(typeName string) ([]statetree.ParamSpec, bool) {
	r.mu.RLock()
	e, ok := r.types[typeName]
	r.mu.RUnlock()

	if !ok || len(e.schema) == 0 {
		return nil, false
	}
	return e.schema, true
}

// Types returns the registered type names.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// DecodeOptions decodes a raw options map from a description into a typed
// struct using mapstructure tags. Systems call it from Init to read their
// per-instance configuration.
func DecodeOptions(options map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
	})
	if err != nil {
		return fmt.Errorf("options decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}
