package internal

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"
)

// DefinitionRegistry resolves a component id to its last encoded definition.
// The engine resolves once per instantiation or resync and keeps nothing.
type DefinitionRegistry interface {
	Lookup(id uuid.UUID) (ComponentDefinition, bool)
}

// MemoryRegistry keeps definitions in memory and hands out deep copies, so a
// graph never shares snapshot memory with the registry.
type MemoryRegistry struct {
	mu      sync.RWMutex
	defs    map[uuid.UUID]ComponentDefinition
	lookups map[uuid.UUID]int
}

// NewMemoryRegistry registers defs into a fresh registry. Definitions that fail
// to copy are left out and reported together.
func NewMemoryRegistry(defs ...ComponentDefinition) (*MemoryRegistry, error) {
	r := newMemoryRegistry()

	var result *multierror.Error
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return r, result.ErrorOrNil()
}

func newMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		defs:    make(map[uuid.UUID]ComponentDefinition),
		lookups: make(map[uuid.UUID]int),
	}
}

// Register stores a copy of def, replacing any definition with the same id.
func (r *MemoryRegistry) Register(def ComponentDefinition) error {
	c, err := copyDefinition(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs[def.ID] = c
	return nil
}

func (r *MemoryRegistry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.defs, id)
}

func (r *MemoryRegistry) Lookup(id uuid.UUID) (ComponentDefinition, bool) {
	r.mu.Lock()
	r.lookups[id]++
	def, ok := r.defs[id]
	r.mu.Unlock()

	if !ok {
		return ComponentDefinition{}, false
	}

	c, err := copyDefinition(def)
	if err != nil {
		return ComponentDefinition{}, false
	}
	return c, true
}

// Lookups counts the resolutions of id so far.
func (r *MemoryRegistry) Lookups(id uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookups[id]
}

// IDs lists the registered definitions, sorted.
func (r *MemoryRegistry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

func copyDefinition(def ComponentDefinition) (ComponentDefinition, error) {
	c, err := copystructure.Copy(def)
	if err != nil {
		return ComponentDefinition{}, fmt.Errorf("copy component %s: %w", def.ID, err)
	}
	return c.(ComponentDefinition), nil
}
