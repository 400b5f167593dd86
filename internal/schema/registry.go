package schema

import (
	"sort"
	"sync"

	ierr "github.com/mewayz/entitystore/internal/errors"
)

// Registry holds the schema for every registered entity kind.
// Kinds are registered once at process startup from configuration;
// lookups are concurrent.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]Schema
}

func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]Schema),
	}
}

// Register adds a kind and its schema. Registering the same kind twice
// fails; a kind's schema is fixed for the process lifetime.
func (r *Registry) Register(kind string, s Schema) error {
	if kind == "" {
		return ierr.NewError("entity kind cannot be empty").
			Mark(ierr.ErrValidation)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind]; exists {
		return ierr.NewError("entity kind already registered").
			WithHintf("kind %q is already registered", kind).
			Mark(ierr.ErrAlreadyExists)
	}

	r.kinds[kind] = s
	return nil
}

// Get returns the schema for a kind
func (r *Registry) Get(kind string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.kinds[kind]
	if !ok {
		return nil, ierr.NewError("unknown entity kind").
			WithHintf("kind %q is not registered", kind).
			Mark(ierr.ErrNotFound)
	}
	return s, nil
}

// Kinds returns the registered kind names in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.kinds))
	for kind := range r.kinds {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
