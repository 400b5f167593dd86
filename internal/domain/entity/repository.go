package entity

import (
	"context"
	"time"

	"github.com/mewayz/entitystore/internal/types"
)

// FieldPatch is a partial update of a single record. Only the provided
// fields change: Attributes are merged over the stored mapping, Status is
// replaced when set. Wholesale record replacement is deliberately not
// expressible here.
type FieldPatch struct {
	Attributes types.Attributes
	Status     *types.Status
	UpdatedAt  time.Time
}

// Repository defines the lowest-level persistence operations for entities,
// with no business rules. Implementations never let raw driver errors
// escape: absence maps to ErrNotFound, connectivity and timeout failures
// map to ErrStorageUnavailable.
type Repository interface {
	// Insert persists a new entity
	Insert(ctx context.Context, e *Entity) error

	// FindByID retrieves an entity by kind and ID regardless of status
	FindByID(ctx context.Context, kind, id string) (*Entity, error)

	// FindMany retrieves entities matching the filter plus the total count
	// for the same filter without pagination
	FindMany(ctx context.Context, filter *types.EntityFilter) ([]*Entity, int, error)

	// ReplaceFields merges only the provided fields into the stored record
	// and returns the updated entity
	ReplaceFields(ctx context.Context, kind, id string, patch FieldPatch) (*Entity, error)

	// Remove physically deletes a record; returns false if not found
	Remove(ctx context.Context, kind, id string) (bool, error)

	// Count counts entities matching the filter
	Count(ctx context.Context, filter *types.EntityFilter) (int, error)
}
