package types

import (
	"database/sql/driver"
	"encoding/json"

	ierr "github.com/mewayz/entitystore/internal/errors"
)

// Attributes represents a JSONB field holding the open, kind-specific
// fields of an entity. The shape is validated per entity kind, not here.
type Attributes map[string]any

// Scan implements the sql.Scanner interface for Attributes
func (a *Attributes) Scan(value interface{}) error {
	if value == nil {
		*a = make(Attributes)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ierr.NewError("failed to unmarshal JSONB value").
			Mark(ierr.ErrDatabase)
	}

	result := make(Attributes)
	err := json.Unmarshal(bytes, &result)
	*a = result
	return err
}

// Value implements the driver.Valuer interface for Attributes
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(make(Attributes))
	}
	return json.Marshal(a)
}

// Merge returns a copy of a with the fields of other laid over it.
// Neither input is mutated.
func (a Attributes) Merge(other Attributes) Attributes {
	merged := make(Attributes, len(a)+len(other))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
