package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider is returned when a provider id has no schema.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry maps provider ids to their schemas. It is built once from the
// static definitions, validated eagerly, and read-only afterwards.
type Registry struct {
	schemas map[string]*SourceSchema
}

// NewRegistry validates every schema and builds the lookup table. Duplicate
// or invalid definitions fail construction.
func NewRegistry(schemas ...*SourceSchema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*SourceSchema, len(schemas))}
	for _, s := range schemas {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.schemas[s.ID]; dup {
			return nil, fmt.Errorf("schema: duplicate provider id %q", s.ID)
		}
		r.schemas[s.ID] = s
	}
	return r, nil
}

// DefaultRegistry builds the registry of all known providers.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(
		Fincaraiz(),
		Metrocuadrado(),
		Ciencuadras(),
		Trovit(),
		Properati(),
	)
}

// Get returns the schema for a provider id.
func (r *Registry) Get(id string) (*SourceSchema, error) {
	s, ok := r.schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
	return s, nil
}

// Providers returns all known provider ids, sorted.
func (r *Registry) Providers() []string {
	ids := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ApplyOverrides patches performance budgets from an external config file.
// Unknown ids error so a typo in the overrides file is caught at startup.
func (r *Registry) ApplyOverrides(overrides map[string]Override) error {
	for id, o := range overrides {
		s, ok := r.schemas[id]
		if !ok {
			return fmt.Errorf("%w: override for %q", ErrUnknownProvider, id)
		}
		s.Performance = s.Performance.applyOverride(o)
	}
	return nil
}
