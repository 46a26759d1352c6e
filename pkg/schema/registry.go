package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the loaded schemas by protocol version. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register adds s, replacing any schema with the same version.
func (r *Registry) Register(s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Version()] = s
}

// Get returns the schema for version.
func (r *Registry) Get(version string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[version]
	if !ok {
		return nil, fmt.Errorf("schema: no schema registered for version '%s'", version)
	}
	return s, nil
}

// Versions lists the registered versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]string, 0, len(r.schemas))
	for v := range r.schemas {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
