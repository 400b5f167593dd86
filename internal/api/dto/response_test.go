package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

func TestOutcomeFromErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{"not found", ierr.NewError("x").Mark(ierr.ErrNotFound), OutcomeNotFound},
		{"permission denied", ierr.NewError("x").Mark(ierr.ErrPermissionDenied), OutcomeForbidden},
		{"validation", ierr.NewError("x").Mark(ierr.ErrValidation), OutcomeClientError},
		{"invalid argument", ierr.NewError("x").Mark(ierr.ErrInvalidArgument), OutcomeClientError},
		{"already exists", ierr.NewError("x").Mark(ierr.ErrAlreadyExists), OutcomeClientError},
		{"service unavailable", ierr.NewError("x").Mark(ierr.ErrServiceUnavailable), OutcomeServerError},
		{"storage unavailable", ierr.NewError("x").Mark(ierr.ErrStorageUnavailable), OutcomeServerError},
		{"database", ierr.NewError("x").Mark(ierr.ErrDatabase), OutcomeServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, OutcomeFromErr(tc.err))
		})
	}
}

func TestEnvelopeShape(t *testing.T) {
	success := NewSuccessEnvelope(map[string]any{"id": "company_1"})
	assert.Equal(t, OutcomeSuccess, success.Outcome)
	assert.Nil(t, success.Error)
	assert.NotNil(t, success.Data)

	failure := NewErrorEnvelope(OutcomeNotFound, "Entity not found", nil)
	assert.Equal(t, OutcomeNotFound, failure.Outcome)
	assert.Nil(t, failure.Data)
	assert.Equal(t, "Entity not found", *failure.Error)
}

func TestUpdateEntityRequestValidate(t *testing.T) {
	t.Run("empty update rejected", func(t *testing.T) {
		req := UpdateEntityRequest{}
		assert.True(t, ierr.IsValidation(req.Validate()))
	})

	t.Run("deleted status rejected", func(t *testing.T) {
		deleted := types.StatusDeleted
		req := UpdateEntityRequest{Status: &deleted}
		assert.True(t, ierr.IsValidation(req.Validate()))
	})
}
