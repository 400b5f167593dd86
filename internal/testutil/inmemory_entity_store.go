package testutil

import (
	"context"
	"sync"

	"github.com/mewayz/entitystore/internal/domain/entity"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

// defaultMaxPageSize mirrors the configured repository clamp
const defaultMaxPageSize = 100

// InMemoryEntityStore implements entity.Repository
type InMemoryEntityStore struct {
	*InMemoryStore[*entity.Entity]

	mu          sync.Mutex
	failErr     error
	failCount   int
	maxPageSize int
}

// NewInMemoryEntityStore creates a new in-memory entity store
func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{
		InMemoryStore: NewInMemoryStore[*entity.Entity](),
		maxPageSize:   defaultMaxPageSize,
	}
}

// FailWith makes the next n operations fail with err, to exercise the
// retry and escalation paths
func (s *InMemoryEntityStore) FailWith(err error, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
	s.failCount = n
}

func (s *InMemoryEntityStore) nextErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCount > 0 {
		s.failCount--
		return s.failErr
	}
	return nil
}

func storeKey(kind, id string) string {
	return kind + "/" + id
}

// entityFilterFn implements filtering logic for entities
func entityFilterFn(ctx context.Context, e *entity.Entity, filter interface{}) bool {
	if e == nil {
		return false
	}

	f, ok := filter.(*types.EntityFilter)
	if !ok {
		return true
	}

	if e.Kind != f.Kind {
		return false
	}

	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}

	if f.QueryFilter != nil && f.QueryFilter.Status != nil {
		if e.Status != *f.QueryFilter.Status {
			return false
		}
	} else if !f.IncludeDeleted && e.Status == types.StatusDeleted {
		return false
	}

	if f.CreatedAfter != nil && e.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}

	return true
}

// entitySortFn sorts newest first, matching the repository default order
func entitySortFn(i, j *entity.Entity) bool {
	if i == nil || j == nil {
		return false
	}
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryEntityStore) Insert(ctx context.Context, e *entity.Entity) error {
	if err := s.nextErr(); err != nil {
		return err
	}
	if e == nil {
		return ierr.NewError("entity cannot be nil").Mark(ierr.ErrValidation)
	}
	clone := *e
	return s.InMemoryStore.Create(ctx, storeKey(e.Kind, e.ID), &clone)
}

func (s *InMemoryEntityStore) FindByID(ctx context.Context, kind, id string) (*entity.Entity, error) {
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	e, err := s.InMemoryStore.Get(ctx, storeKey(kind, id))
	if err != nil {
		return nil, err
	}
	clone := *e
	return &clone, nil
}

func (s *InMemoryEntityStore) FindMany(ctx context.Context, filter *types.EntityFilter) ([]*entity.Entity, int, error) {
	if err := s.nextErr(); err != nil {
		return nil, 0, err
	}
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	total, err := s.InMemoryStore.Count(ctx, filter, entityFilterFn)
	if err != nil {
		return nil, 0, err
	}

	clamped := *filter
	if clamped.QueryFilter != nil && clamped.GetLimit() > s.maxPageSize {
		qf := *clamped.QueryFilter
		limit := s.maxPageSize
		qf.Limit = &limit
		clamped.QueryFilter = &qf
	}

	items, err := s.InMemoryStore.List(ctx, &clamped, entityFilterFn, entitySortFn)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *InMemoryEntityStore) ReplaceFields(ctx context.Context, kind, id string, patch entity.FieldPatch) (*entity.Entity, error) {
	if err := s.nextErr(); err != nil {
		return nil, err
	}

	current, err := s.InMemoryStore.Get(ctx, storeKey(kind, id))
	if err != nil {
		return nil, err
	}

	updated := *current
	if len(patch.Attributes) > 0 {
		updated.Attributes = current.Attributes.Merge(patch.Attributes)
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	updated.UpdatedAt = patch.UpdatedAt

	if err := s.InMemoryStore.Update(ctx, storeKey(kind, id), &updated); err != nil {
		return nil, err
	}

	clone := updated
	return &clone, nil
}

func (s *InMemoryEntityStore) Remove(ctx context.Context, kind, id string) (bool, error) {
	if err := s.nextErr(); err != nil {
		return false, err
	}

	if err := s.InMemoryStore.Delete(ctx, storeKey(kind, id)); err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *InMemoryEntityStore) Count(ctx context.Context, filter *types.EntityFilter) (int, error) {
	if err := s.nextErr(); err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	return s.InMemoryStore.Count(ctx, filter, entityFilterFn)
}
