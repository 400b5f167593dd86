package dto

import (
	"context"

	"github.com/samber/lo"

	"github.com/mewayz/entitystore/internal/domain/entity"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

// reservedAttributeKeys are entity fields that can never be set through
// the attribute mapping; they are owned by the store itself.
var reservedAttributeKeys = []string{"id", "owner_id", "created_at", "updated_at", "status", "kind"}

type CreateEntityRequest struct {
	Attributes types.Attributes `json:"attributes"`
}

func (r *CreateEntityRequest) Validate() error {
	for _, key := range reservedAttributeKeys {
		if _, ok := r.Attributes[key]; ok {
			return ierr.NewError("reserved attribute key").
				WithHintf("attribute %q is managed by the store and cannot be set", key).
				WithReportableDetails(map[string]any{
					"field":  key,
					"reason": "reserved",
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

func (r *CreateEntityRequest) ToEntity(ctx context.Context, kind string) *entity.Entity {
	attributes := r.Attributes
	if attributes == nil {
		attributes = make(types.Attributes)
	}

	return &entity.Entity{
		ID:         types.GenerateUUIDWithPrefix(kind),
		DisplayID:  types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_ENTITY),
		Kind:       kind,
		Attributes: attributes,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

type UpdateEntityRequest struct {
	Attributes types.Attributes `json:"attributes,omitempty"`
	Status     *types.Status    `json:"status,omitempty"`
}

func (r *UpdateEntityRequest) Validate() error {
	for _, key := range reservedAttributeKeys {
		if _, ok := r.Attributes[key]; ok {
			return ierr.NewError("reserved attribute key").
				WithHintf("attribute %q is immutable and cannot be updated", key).
				WithReportableDetails(map[string]any{
					"field":  key,
					"reason": "immutable",
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if r.Status != nil {
		if err := r.Status.Validate(); err != nil {
			return err
		}
		// Deletion goes through the delete operation only
		if *r.Status == types.StatusDeleted {
			return ierr.NewError("cannot set status to deleted").
				WithHint("Use the delete operation to delete an entity").
				Mark(ierr.ErrValidation)
		}
	}

	if len(r.Attributes) == 0 && r.Status == nil {
		return ierr.NewError("empty update").
			WithHint("At least one attribute or status change is required").
			Mark(ierr.ErrValidation)
	}

	return nil
}

type EntityResponse struct {
	*entity.Entity
}

func NewEntityResponse(e *entity.Entity) *EntityResponse {
	return &EntityResponse{Entity: e}
}

// ListEntitiesResponse represents a paginated list of entities
type ListEntitiesResponse = types.ListResponse[*EntityResponse]

func NewListEntitiesResponse(entities []*entity.Entity, total, limit, offset int) *ListEntitiesResponse {
	items := lo.Map(entities, func(e *entity.Entity, _ int) *EntityResponse {
		return NewEntityResponse(e)
	})
	resp := types.NewListResponse(items, total, limit, offset)
	return &resp
}

// EntityStatsResponse holds the aggregate counts for one entity kind
// scoped to one owner
type EntityStatsResponse struct {
	Kind      string `json:"kind"`
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	Deleted   int    `json:"deleted"`
	Recent30D int    `json:"recent_30d"`
}
