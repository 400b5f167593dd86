package types

import (
	ierr "github.com/mewayz/entitystore/internal/errors"
)

// Status is a type for the lifecycle state of a persisted record.
// Deleted records are kept in storage (soft delete) and excluded from
// default queries; transitions into deleted only happen through the
// delete operation, never through update.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Validate() error {
	switch s {
	case StatusActive, StatusInactive, StatusDeleted:
		return nil
	default:
		return ierr.NewError("invalid status").
			WithHintf("status must be one of active, inactive, deleted, got %q", s).
			Mark(ierr.ErrValidation)
	}
}
