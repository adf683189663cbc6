package core

import (
	"sync"

	"github.com/signalsfoundry/pass-planner/tle"
)

// OrbitRegistry caches orbit models by satellite id. An entry is reused
// only while the element set it was built from is unchanged, so updating a
// satellite's TLE transparently rebuilds its model.
type OrbitRegistry struct {
	mu      sync.Mutex
	entries map[string]registryEntry
	build   func(tle.Set) (*OrbitModel, error)
}

type registryEntry struct {
	line1, line2 string
	model        *OrbitModel
}

// NewOrbitRegistry returns an empty registry that builds SGP4 models.
func NewOrbitRegistry() *OrbitRegistry {
	return &OrbitRegistry{
		entries: make(map[string]registryEntry),
		build:   NewOrbitModelFromTLE,
	}
}

// NewOrbitRegistryWith returns an empty registry that builds models with
// build instead of SGP4.
func NewOrbitRegistryWith(build func(tle.Set) (*OrbitModel, error)) *OrbitRegistry {
	return &OrbitRegistry{
		entries: make(map[string]registryEntry),
		build:   build,
	}
}

// Get returns the cached model for id, building it from set on a miss.
func (r *OrbitRegistry) Get(id string, set tle.Set) (*OrbitModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok && e.line1 == set.Line1 && e.line2 == set.Line2 {
		return e.model, nil
	}
	m, err := r.build(set)
	if err != nil {
		delete(r.entries, id)
		return nil, err
	}
	r.entries[id] = registryEntry{line1: set.Line1, line2: set.Line2, model: m}
	return m, nil
}

// Invalidate drops the cached model for id.
func (r *OrbitRegistry) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of cached models.
func (r *OrbitRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
