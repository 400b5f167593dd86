package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

func testSchema() Schema {
	return Schema{
		"name":      {Required: true, Type: FieldTypeString},
		"employees": {Required: false, Type: FieldTypeNumber},
		"active":    {Required: false, Type: FieldTypeBoolean},
		"address":   {Required: false, Type: FieldTypeMapping},
		"tags":      {Required: false, Type: FieldTypeSequence},
	}
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, testSchema().Validate())

	bad := Schema{"name": {Type: FieldType("text")}}
	err := bad.Validate()
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	empty := Schema{"": {Type: FieldTypeString}}
	assert.Error(t, empty.Validate())
}

func TestValidateAttributes(t *testing.T) {
	s := testSchema()

	t.Run("all fields valid", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{
			"name":      "Acme Co",
			"employees": float64(42),
			"active":    true,
			"address":   map[string]any{"city": "Berlin"},
			"tags":      []any{"saas", "billing"},
		})
		assert.NoError(t, err)
	})

	t.Run("optional fields may be absent", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"name": "Acme Co"})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"employees": float64(42)})
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("nil counts as absent", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"name": nil})
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("type mismatch", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"name": "Acme Co", "employees": "forty"})
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("undeclared fields pass through", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"name": "Acme Co", "nickname": "acme"})
		assert.NoError(t, err)
	})

	t.Run("integer accepted as number", func(t *testing.T) {
		err := s.ValidateAttributes(types.Attributes{"name": "Acme Co", "employees": 42})
		assert.NoError(t, err)
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.NoError(t, r.Register("company", testSchema()))
	assert.NoError(t, r.Register("booking", Schema{
		"duration_minutes": {Required: true, Type: FieldTypeNumber},
	}))

	t.Run("get registered kind", func(t *testing.T) {
		s, err := r.Get("company")
		assert.NoError(t, err)
		assert.True(t, s["name"].Required)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.Get("widget")
		assert.True(t, ierr.IsNotFound(err))
	})

	t.Run("duplicate registration", func(t *testing.T) {
		err := r.Register("company", testSchema())
		assert.True(t, ierr.IsAlreadyExists(err))
	})

	t.Run("empty kind name", func(t *testing.T) {
		err := r.Register("", testSchema())
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("kinds are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"booking", "company"}, r.Kinds())
	})
}
