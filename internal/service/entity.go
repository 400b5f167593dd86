package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/pool"

	"github.com/mewayz/entitystore/internal/api/dto"
	"github.com/mewayz/entitystore/internal/cache"
	"github.com/mewayz/entitystore/internal/domain/entity"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

// EntityService is the single place where per-kind validation, ownership
// scoping, timestamping and soft-delete policy live. Caller identity comes
// from the context: GetOwnerID for scoping, IsAdminContext for the
// administrative capability that bypasses it.
type EntityService interface {
	Create(ctx context.Context, kind string, req dto.CreateEntityRequest) (*dto.EntityResponse, error)
	Get(ctx context.Context, kind, id string, includeDeleted bool) (*dto.EntityResponse, error)
	List(ctx context.Context, filter *types.EntityFilter) (*dto.ListEntitiesResponse, error)
	Update(ctx context.Context, kind, id string, req dto.UpdateEntityRequest) (*dto.EntityResponse, error)
	Delete(ctx context.Context, kind, id string) error
	Purge(ctx context.Context, kind, id string) (bool, error)
	Stats(ctx context.Context, kind string) (*dto.EntityStatsResponse, error)
}

type entityService struct {
	ServiceParams
}

func NewEntityService(params ServiceParams) EntityService {
	return &entityService{
		ServiceParams: params,
	}
}

func (s *entityService) Create(ctx context.Context, kind string, req dto.CreateEntityRequest) (*dto.EntityResponse, error) {
	if err := types.ValidateOwnerContext(ctx); err != nil {
		return nil, err
	}

	kindSchema, err := s.Registry.Get(kind)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := kindSchema.ValidateAttributes(req.Attributes); err != nil {
		return nil, err
	}

	e := req.ToEntity(ctx, kind)

	if err := s.withStorageRetry(ctx, func() error {
		return s.EntityRepo.Insert(ctx, e)
	}); err != nil {
		return nil, err
	}

	s.Logger.Infow("entity created",
		"kind", kind,
		"entity_id", e.ID,
		"owner_id", e.OwnerID,
	)

	return dto.NewEntityResponse(e), nil
}

func (s *entityService) Get(ctx context.Context, kind, id string, includeDeleted bool) (*dto.EntityResponse, error) {
	e, err := s.fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	// Soft-deleted entities are invisible unless explicitly requested
	if e.IsDeleted() && !includeDeleted {
		return nil, ierr.NewError("entity not found").
			WithHint("Entity not found").
			Mark(ierr.ErrNotFound)
	}

	if err := s.checkOwnership(ctx, e); err != nil {
		return nil, err
	}

	return dto.NewEntityResponse(e), nil
}

func (s *entityService) List(ctx context.Context, filter *types.EntityFilter) (*dto.ListEntitiesResponse, error) {
	if filter == nil {
		return nil, ierr.NewError("filter is required").
			Mark(ierr.ErrInvalidArgument)
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// Scope to the caller unless the context carries the administrative
	// capability
	if !types.IsAdminContext(ctx) {
		if err := types.ValidateOwnerContext(ctx); err != nil {
			return nil, err
		}
		filter.OwnerID = types.GetOwnerID(ctx)
	}

	var entities []*entity.Entity
	var total int
	if err := s.withStorageRetry(ctx, func() error {
		var err error
		entities, total, err = s.EntityRepo.FindMany(ctx, filter)
		return err
	}); err != nil {
		return nil, err
	}

	limit := filter.GetLimit()
	if limit > s.Config.EntityStore.MaxPageSize {
		limit = s.Config.EntityStore.MaxPageSize
	}

	return dto.NewListEntitiesResponse(entities, total, limit, filter.GetOffset()), nil
}

func (s *entityService) Update(ctx context.Context, kind, id string, req dto.UpdateEntityRequest) (*dto.EntityResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	// A deleted entity is gone from the standard contract's perspective
	if current.IsDeleted() {
		return nil, ierr.NewError("entity not found").
			WithHint("Entity not found").
			Mark(ierr.ErrNotFound)
	}

	if err := s.checkOwnership(ctx, current); err != nil {
		return nil, err
	}

	if len(req.Attributes) > 0 {
		kindSchema, err := s.Registry.Get(kind)
		if err != nil {
			return nil, err
		}
		// Validate the merged view so a partial patch cannot strip a
		// required field or sneak in a wrong type
		if err := kindSchema.ValidateAttributes(current.Attributes.Merge(req.Attributes)); err != nil {
			return nil, err
		}
	}

	patch := entity.FieldPatch{
		Attributes: req.Attributes,
		Status:     req.Status,
		UpdatedAt:  nextUpdatedAt(current.UpdatedAt),
	}

	var updated *entity.Entity
	if err := s.withStorageRetry(ctx, func() error {
		var err error
		updated, err = s.EntityRepo.ReplaceFields(ctx, kind, id, patch)
		return err
	}); err != nil {
		return nil, err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntity, kind, id))

	return dto.NewEntityResponse(updated), nil
}

func (s *entityService) Delete(ctx context.Context, kind, id string) error {
	e, err := s.fetch(ctx, kind, id)
	if err != nil {
		return err
	}

	if err := s.checkOwnership(ctx, e); err != nil {
		return err
	}

	// Idempotent: deleting an already-deleted entity succeeds
	if e.IsDeleted() {
		return nil
	}

	deleted := types.StatusDeleted
	patch := entity.FieldPatch{
		Status:    &deleted,
		UpdatedAt: nextUpdatedAt(e.UpdatedAt),
	}

	if err := s.withStorageRetry(ctx, func() error {
		_, err := s.EntityRepo.ReplaceFields(ctx, kind, id, patch)
		return err
	}); err != nil {
		return err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntity, kind, id))

	s.Logger.Infow("entity soft deleted",
		"kind", kind,
		"entity_id", id,
	)

	return nil
}

func (s *entityService) Purge(ctx context.Context, kind, id string) (bool, error) {
	// Physical deletion is administrative only; it is not part of the
	// standard contract
	if !types.IsAdminContext(ctx) {
		return false, ierr.NewError("administrative context required").
			WithHint("Physical deletion requires administrative access").
			Mark(ierr.ErrPermissionDenied)
	}

	var removed bool
	if err := s.withStorageRetry(ctx, func() error {
		var err error
		removed, err = s.EntityRepo.Remove(ctx, kind, id)
		return err
	}); err != nil {
		return false, err
	}

	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntity, kind, id))

	if removed {
		s.Logger.Warnw("entity purged",
			"kind", kind,
			"entity_id", id,
		)
	}

	return removed, nil
}

func (s *entityService) Stats(ctx context.Context, kind string) (*dto.EntityStatsResponse, error) {
	if _, err := s.Registry.Get(kind); err != nil {
		return nil, err
	}

	ownerID := ""
	if !types.IsAdminContext(ctx) {
		if err := types.ValidateOwnerContext(ctx); err != nil {
			return nil, err
		}
		ownerID = types.GetOwnerID(ctx)
	}

	newFilter := func() *types.EntityFilter {
		f := types.NewEntityFilter(kind)
		f.OwnerID = ownerID
		return f
	}

	var total, active, deleted, recent int

	totalFilter := newFilter()
	totalFilter.IncludeDeleted = true

	activeFilter := newFilter()
	activeStatus := types.StatusActive
	activeFilter.QueryFilter.Status = &activeStatus

	deletedFilter := newFilter()
	deletedStatus := types.StatusDeleted
	deletedFilter.QueryFilter.Status = &deletedStatus

	recentFilter := newFilter()
	since := time.Now().UTC().AddDate(0, 0, -30)
	recentFilter.CreatedAfter = &since

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return s.countInto(ctx, totalFilter, &total)
	})
	p.Go(func(ctx context.Context) error {
		return s.countInto(ctx, activeFilter, &active)
	})
	p.Go(func(ctx context.Context) error {
		return s.countInto(ctx, deletedFilter, &deleted)
	})
	p.Go(func(ctx context.Context) error {
		return s.countInto(ctx, recentFilter, &recent)
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return &dto.EntityStatsResponse{
		Kind:      kind,
		Total:     total,
		Active:    active,
		Deleted:   deleted,
		Recent30D: recent,
	}, nil
}

func (s *entityService) countInto(ctx context.Context, filter *types.EntityFilter, dest *int) error {
	return s.withStorageRetry(ctx, func() error {
		count, err := s.EntityRepo.Count(ctx, filter)
		if err != nil {
			return err
		}
		*dest = count
		return nil
	})
}

// fetch loads an entity through the read-through cache. Ownership and
// soft-delete policy are applied by the callers, never here.
func (s *entityService) fetch(ctx context.Context, kind, id string) (*entity.Entity, error) {
	cacheKey := cache.GenerateKey(cache.PrefixEntity, kind, id)
	if cached, found := s.Cache.Get(ctx, cacheKey); found {
		if e, ok := cached.(*entity.Entity); ok {
			return e, nil
		}
	}

	var e *entity.Entity
	if err := s.withStorageRetry(ctx, func() error {
		var err error
		e, err = s.EntityRepo.FindByID(ctx, kind, id)
		return err
	}); err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, cacheKey, e, 0)
	return e, nil
}

func (s *entityService) checkOwnership(ctx context.Context, e *entity.Entity) error {
	if types.IsAdminContext(ctx) {
		return nil
	}

	if !e.IsOwnedBy(types.GetOwnerID(ctx)) {
		return ierr.NewError("entity belongs to a different owner").
			WithHint("Access denied").
			Mark(ierr.ErrPermissionDenied)
	}

	return nil
}

// withStorageRetry runs op and retries it exactly once with a fixed short
// backoff when it fails with a transient storage error. Deterministic
// failures pass through untouched; a second transient failure escalates to
// ErrServiceUnavailable.
func (s *entityService) withStorageRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(s.Config.EntityStore.RetryBackoff), 1),
		ctx,
	)

	err := backoff.Retry(func() error {
		if err := op(); err != nil {
			if ierr.IsStorageUnavailable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, policy)
	if err == nil {
		return nil
	}

	if ierr.IsStorageUnavailable(err) {
		s.Logger.Errorw("storage still unavailable after retry", "error", err)
		return ierr.WithError(err).
			WithHint("Service temporarily unavailable, try again later").
			Mark(ierr.ErrServiceUnavailable)
	}

	return err
}

// nextUpdatedAt returns the refreshed update timestamp, guaranteed to be
// strictly after the previous one even on coarse clocks.
func nextUpdatedAt(previous time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(previous) {
		return previous.Add(time.Microsecond)
	}
	return now
}
