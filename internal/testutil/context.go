package testutil

import (
	"context"

	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/types"
)

const (
	// TestOwnerID is the default owner identity used across tests
	TestOwnerID = "owner_test_1"
	// TestOtherOwnerID is a second owner for ownership isolation tests
	TestOtherOwnerID = "owner_test_2"
	// TestRequestID is the default request ID used in tests
	TestRequestID = "req_test_1"
)

// SetupContext returns a context carrying the default test owner identity
func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetOwnerID(ctx, TestOwnerID)
	ctx = types.SetRequestID(ctx, TestRequestID)
	return ctx
}

// SetupContextForOwner returns a context for a specific owner
func SetupContextForOwner(ownerID string) context.Context {
	ctx := context.Background()
	ctx = types.SetOwnerID(ctx, ownerID)
	ctx = types.SetRequestID(ctx, TestRequestID)
	return ctx
}

// SetupAdminContext returns a context carrying the administrative capability
func SetupAdminContext() context.Context {
	return types.SetAdminContext(SetupContext())
}

// StorageUnavailableError builds the transient storage failure used with
// InMemoryEntityStore.FailWith to exercise retry paths
func StorageUnavailableError() error {
	return ierr.NewError("connection refused").Mark(ierr.ErrStorageUnavailable)
}
