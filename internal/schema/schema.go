package schema

import (
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

// FieldType is the declared type of a schema field
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeMapping  FieldType = "mapping"
	FieldTypeSequence FieldType = "sequence"
)

func (t FieldType) Validate() error {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeMapping, FieldTypeSequence:
		return nil
	default:
		return ierr.NewError("invalid field type").
			WithHintf("field type must be one of string, number, boolean, mapping, sequence, got %q", t).
			Mark(ierr.ErrValidation)
	}
}

// FieldSpec describes a single attribute of an entity kind
type FieldSpec struct {
	Required bool      `json:"required" mapstructure:"required"`
	Type     FieldType `json:"type" mapstructure:"type" validate:"required"`
}

// Schema is the data-only description of an entity kind's attributes.
// It is the single per-kind customization point; adding a new kind means
// registering a schema, not writing a new service or router file.
type Schema map[string]FieldSpec

// Validate checks the schema definition itself
func (s Schema) Validate() error {
	for name, spec := range s {
		if name == "" {
			return ierr.NewError("schema field name cannot be empty").
				Mark(ierr.ErrValidation)
		}
		if err := spec.Type.Validate(); err != nil {
			return ierr.WithError(err).
				WithHintf("invalid type for field %q", name).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ValidateAttributes checks attributes against the schema: required fields
// must be present and every provided field declared in the schema must match
// its declared type. Fields not declared in the schema pass through, the
// attribute mapping is open.
func (s Schema) ValidateAttributes(attributes types.Attributes) error {
	for name, spec := range s {
		value, ok := attributes[name]
		if !ok || value == nil {
			if spec.Required {
				return ierr.NewError("missing required field").
					WithHintf("field %q is required", name).
					WithReportableDetails(map[string]any{
						"field":  name,
						"reason": "required",
					}).
					Mark(ierr.ErrValidation)
			}
			continue
		}

		if !matchesType(value, spec.Type) {
			return ierr.NewError("field type mismatch").
				WithHintf("field %q must be of type %s", name, spec.Type).
				WithReportableDetails(map[string]any{
					"field":  name,
					"reason": "type_mismatch",
					"want":   string(spec.Type),
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// matchesType checks a decoded JSON value against a declared field type.
// JSON numbers decode to float64; integer-typed values from in-process
// callers are accepted as numbers too.
func matchesType(value any, t FieldType) bool {
	switch t {
	case FieldTypeString:
		_, ok := value.(string)
		return ok
	case FieldTypeNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case FieldTypeBoolean:
		_, ok := value.(bool)
		return ok
	case FieldTypeMapping:
		_, ok := value.(map[string]any)
		return ok
	case FieldTypeSequence:
		_, ok := value.([]any)
		return ok
	}
	return false
}
