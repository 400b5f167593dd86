package types

import (
	"context"

	ierr "github.com/mewayz/entitystore/internal/errors"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID    ContextKey = "ctx_request_id"
	CtxOwnerID      ContextKey = "ctx_owner_id"
	CtxAdminContext ContextKey = "ctx_admin_context" // administrative capability, bypasses owner scoping
)

const (
	HeaderRequestID    = "X-Request-ID"
	HeaderOwnerID      = "X-Owner-ID"
	HeaderAdminContext = "X-Admin-Context"
)

func GetOwnerID(ctx context.Context) string {
	if ownerID, ok := ctx.Value(CtxOwnerID).(string); ok {
		return ownerID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// IsAdminContext reports whether the context carries the administrative
// capability flag. The authorization that grants the flag lives outside
// this module.
func IsAdminContext(ctx context.Context) bool {
	if admin, ok := ctx.Value(CtxAdminContext).(bool); ok {
		return admin
	}
	return false
}

// SetOwnerID sets the owner ID in the context
func SetOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, CtxOwnerID, ownerID)
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// SetAdminContext marks the context as administrative
func SetAdminContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, CtxAdminContext, true)
}

// ValidateOwnerContext validates that the owner identity is present.
// Every authenticated path must carry a non-empty owner ID.
func ValidateOwnerContext(ctx context.Context) error {
	if ctx == nil {
		return ierr.NewError("context is nil").Mark(ierr.ErrSystem)
	}

	if GetOwnerID(ctx) == "" && !IsAdminContext(ctx) {
		return ierr.NewError("no owner identity in context").
			WithHint("Owner identity is required").
			Mark(ierr.ErrPermissionDenied)
	}

	return nil
}
