package types

import (
	"context"
	"time"
)

// BaseModel is a base model for all domain models that need to be persisted
// in the database. OwnerID and CreatedAt are immutable after creation;
// UpdatedAt is refreshed on every mutation.
type BaseModel struct {
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		OwnerID:   GetOwnerID(ctx),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
