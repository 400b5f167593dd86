package entity

import (
	"github.com/mewayz/entitystore/internal/types"
)

// Entity is a generic persisted business record of some kind. The kind
// determines which schema its attributes are validated against; it is data,
// not a separate code path.
type Entity struct {
	ID         string           `db:"id" json:"id"`
	DisplayID  string           `db:"display_id" json:"display_id"`
	Kind       string           `db:"kind" json:"kind"`
	Attributes types.Attributes `db:"attributes" json:"attributes"`
	types.BaseModel
}

// IsActive returns true if the entity has active status
func (e *Entity) IsActive() bool {
	return e.Status == types.StatusActive
}

// IsDeleted returns true if the entity has been soft deleted
func (e *Entity) IsDeleted() bool {
	return e.Status == types.StatusDeleted
}

// IsOwnedBy checks whether the entity belongs to the given owner
func (e *Entity) IsOwnedBy(ownerID string) bool {
	return e.OwnerID == ownerID
}
