package types

import (
	"time"

	"github.com/samber/lo"

	ierr "github.com/mewayz/entitystore/internal/errors"
)

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_DEFAULT_ORDER = "desc"

	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// BaseFilter defines common filtering capabilities
type BaseFilter interface {
	GetLimit() int
	GetOffset() int
	GetOrder() string
	Validate() error
}

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Status *Status `json:"status,omitempty" form:"status"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Order:  lo.ToPtr(FILTER_DEFAULT_ORDER),
	}
}

// GetLimit returns the limit value or default if not set
func (f QueryFilter) GetLimit() int {
	if f.Limit == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return *f.Limit
}

// GetOffset returns the offset value or default if not set
func (f QueryFilter) GetOffset() int {
	if f.Offset == nil {
		return 0
	}
	return *f.Offset
}

// GetOrder returns the order value or default if not set
func (f QueryFilter) GetOrder() string {
	if f.Order == nil {
		return FILTER_DEFAULT_ORDER
	}
	return *f.Order
}

// Validate validates the filter fields
func (f QueryFilter) Validate() error {
	if f.Limit != nil && *f.Limit < 1 {
		return ierr.NewError("limit must be at least 1").
			WithHint("limit must be at least 1").
			Mark(ierr.ErrInvalidArgument)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must be non-negative").
			WithHint("offset must be non-negative").
			Mark(ierr.ErrInvalidArgument)
	}
	if f.Order != nil && *f.Order != OrderAsc && *f.Order != OrderDesc {
		return ierr.NewError("invalid order").
			WithHint("order must be either 'asc' or 'desc'").
			Mark(ierr.ErrInvalidArgument)
	}
	if f.Status != nil {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EntityFilter narrows entity queries. Kind and OwnerID are set by the
// service from the route and the caller identity, never bound from the
// request. Deleted entities are excluded unless IncludeDeleted is set.
type EntityFilter struct {
	*QueryFilter
	Kind           string     `json:"-" form:"-"`
	OwnerID        string     `json:"-" form:"-"`
	IncludeDeleted bool       `json:"include_deleted,omitempty" form:"include_deleted"`
	CreatedAfter   *time.Time `json:"-" form:"-"`
}

// NewEntityFilter creates an entity filter with default pagination
func NewEntityFilter(kind string) *EntityFilter {
	return &EntityFilter{
		QueryFilter: NewDefaultQueryFilter(),
		Kind:        kind,
	}
}

func (f *EntityFilter) Validate() error {
	if f.Kind == "" {
		return ierr.NewError("entity kind is required").
			WithHint("entity kind is required").
			Mark(ierr.ErrInvalidArgument)
	}
	if f.QueryFilter == nil {
		return nil
	}
	return f.QueryFilter.Validate()
}

func (f *EntityFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return f.QueryFilter.GetLimit()
}

func (f *EntityFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *EntityFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_ORDER
	}
	return f.QueryFilter.GetOrder()
}
