package dto

import (
	ierr "github.com/mewayz/entitystore/internal/errors"
)

// Outcome is the stable, machine-checkable result tag carried by every
// response envelope.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeClientError Outcome = "client_error"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeForbidden   Outcome = "forbidden"
	OutcomeServerError Outcome = "server_error"
)

// Envelope is the uniform response wrapper for every operation. Data is the
// entity, list or stats payload on success and null on failure; Error is a
// human-readable message on failure and null on success. Internal exception
// text never leaks into Error.
type Envelope struct {
	Outcome Outcome        `json:"outcome"`
	Data    any            `json:"data"`
	Error   *string        `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// NewSuccessEnvelope wraps a successful result
func NewSuccessEnvelope(data any) Envelope {
	return Envelope{
		Outcome: OutcomeSuccess,
		Data:    data,
	}
}

// NewErrorEnvelope wraps a failure with its outcome tag and display message
func NewErrorEnvelope(outcome Outcome, message string, details map[string]any) Envelope {
	return Envelope{
		Outcome: outcome,
		Error:   &message,
		Details: details,
	}
}

// OutcomeFromErr maps an error kind to its envelope outcome. The adapter
// never re-interprets the underlying meaning, only translates it.
func OutcomeFromErr(err error) Outcome {
	switch {
	case ierr.IsNotFound(err):
		return OutcomeNotFound
	case ierr.IsPermissionDenied(err):
		return OutcomeForbidden
	case ierr.IsValidation(err), ierr.IsInvalidArgument(err), ierr.IsAlreadyExists(err):
		return OutcomeClientError
	default:
		return OutcomeServerError
	}
}
