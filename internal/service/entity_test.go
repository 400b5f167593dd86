package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/suite"

	"github.com/mewayz/entitystore/internal/api/dto"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/schema"
	"github.com/mewayz/entitystore/internal/testutil"
	"github.com/mewayz/entitystore/internal/types"
)

const (
	kindCompany = "company"
	kindBooking = "booking"
)

type EntityServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EntityService
}

func TestEntityService(t *testing.T) {
	suite.Run(t, new(EntityServiceSuite))
}

func (s *EntityServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupSchemas()
	s.setupService()
}

func (s *EntityServiceSuite) setupSchemas() {
	s.NoError(s.GetRegistry().Register(kindCompany, schema.Schema{
		"name":      {Required: true, Type: schema.FieldTypeString},
		"employees": {Required: false, Type: schema.FieldTypeNumber},
		"active":    {Required: false, Type: schema.FieldTypeBoolean},
		"address":   {Required: false, Type: schema.FieldTypeMapping},
		"tags":      {Required: false, Type: schema.FieldTypeSequence},
	}))
	s.NoError(s.GetRegistry().Register(kindBooking, schema.Schema{
		"duration_minutes": {Required: true, Type: schema.FieldTypeNumber},
	}))
}

func (s *EntityServiceSuite) setupService() {
	s.service = NewEntityService(NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetCache(),
		s.GetRegistry(),
		s.GetEntityRepo(),
	))
}

func (s *EntityServiceSuite) createCompany(name string) *dto.EntityResponse {
	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": name},
	})
	s.NoError(err)
	s.NotNil(resp)
	return resp
}

func (s *EntityServiceSuite) TestCreate() {
	resp := s.createCompany("Acme Co")

	s.NotEmpty(resp.ID)
	s.NotEmpty(resp.DisplayID)
	s.Equal(kindCompany, resp.Kind)
	s.Equal(testutil.TestOwnerID, resp.OwnerID)
	s.Equal(types.StatusActive, resp.Status)
	s.Equal("Acme Co", resp.Attributes["name"])
	s.False(resp.CreatedAt.IsZero())
	s.True(resp.UpdatedAt.Equal(resp.CreatedAt) || resp.UpdatedAt.After(resp.CreatedAt))
}

func (s *EntityServiceSuite) TestCreateMissingRequiredField() {
	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{},
	})
	s.Nil(resp)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EntityServiceSuite) TestCreateFieldTypeMismatch() {
	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co", "employees": "forty"},
	})
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *EntityServiceSuite) TestCreateReservedAttributeRejected() {
	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co", "owner_id": "someone_else"},
	})
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *EntityServiceSuite) TestCreateUnknownKind() {
	resp, err := s.service.Create(s.GetContext(), "widget", dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "x"},
	})
	s.Nil(resp)
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestCreateWithoutOwnerIdentity() {
	resp, err := s.service.Create(context.Background(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co"},
	})
	s.Nil(resp)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *EntityServiceSuite) TestGet() {
	created := s.createCompany("Acme Co")

	resp, err := s.service.Get(s.GetContext(), kindCompany, created.ID, false)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)
	s.Equal("Acme Co", resp.Attributes["name"])
}

func (s *EntityServiceSuite) TestGetOwnershipIsolation() {
	created := s.createCompany("Acme Co")

	otherCtx := testutil.SetupContextForOwner(testutil.TestOtherOwnerID)
	resp, err := s.service.Get(otherCtx, kindCompany, created.ID, false)
	s.Nil(resp)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *EntityServiceSuite) TestGetCrossOwnerWithAdminContext() {
	created := s.createCompany("Acme Co")

	resp, err := s.service.Get(testutil.SetupAdminContext(), kindCompany, created.ID, false)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)
}

func (s *EntityServiceSuite) TestGetNotFound() {
	resp, err := s.service.Get(s.GetContext(), kindCompany, "company_missing", false)
	s.Nil(resp)
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestGetSoftDeletedHidden() {
	created := s.createCompany("Acme Co")
	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))

	resp, err := s.service.Get(s.GetContext(), kindCompany, created.ID, false)
	s.Nil(resp)
	s.True(ierr.IsNotFound(err))

	// explicitly including deleted makes it visible again
	resp, err = s.service.Get(s.GetContext(), kindCompany, created.ID, true)
	s.NoError(err)
	s.Equal(types.StatusDeleted, resp.Status)
}

func (s *EntityServiceSuite) TestList() {
	for i := 0; i < 25; i++ {
		s.createCompany(gofakeit.Company())
	}
	for i := 0; i < 5; i++ {
		created := s.createCompany(gofakeit.Company())
		s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))
	}

	filter := types.NewEntityFilter(kindCompany)
	limit := 10
	filter.QueryFilter.Limit = &limit

	resp, err := s.service.List(s.GetContext(), filter)
	s.NoError(err)
	s.Len(resp.Items, 10)
	s.Equal(25, resp.Pagination.Total)
	s.True(resp.Pagination.HasMore)
}

func (s *EntityServiceSuite) TestListIncludeDeleted() {
	created := s.createCompany("Acme Co")
	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))
	s.createCompany("Other Co")

	filter := types.NewEntityFilter(kindCompany)
	resp, err := s.service.List(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)

	filter = types.NewEntityFilter(kindCompany)
	filter.IncludeDeleted = true
	resp, err = s.service.List(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)
}

func (s *EntityServiceSuite) TestListPaginationBound() {
	for i := 0; i < 120; i++ {
		s.createCompany(gofakeit.Company())
	}

	filter := types.NewEntityFilter(kindCompany)
	limit := 500
	filter.QueryFilter.Limit = &limit

	resp, err := s.service.List(s.GetContext(), filter)
	s.NoError(err)
	// page size never exceeds the configured maximum
	s.Len(resp.Items, s.GetConfig().EntityStore.MaxPageSize)
	s.Equal(120, resp.Pagination.Total)
}

func (s *EntityServiceSuite) TestListNegativeOffset() {
	filter := types.NewEntityFilter(kindCompany)
	offset := -1
	filter.QueryFilter.Offset = &offset

	resp, err := s.service.List(s.GetContext(), filter)
	s.Nil(resp)
	s.True(ierr.IsInvalidArgument(err))
}

func (s *EntityServiceSuite) TestListScopedToOwner() {
	s.createCompany("Acme Co")

	otherCtx := testutil.SetupContextForOwner(testutil.TestOtherOwnerID)
	_, err := s.service.Create(otherCtx, kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Their Co"},
	})
	s.NoError(err)

	resp, err := s.service.List(s.GetContext(), types.NewEntityFilter(kindCompany))
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal("Acme Co", resp.Items[0].Attributes["name"])

	// administrative context sees across owners
	resp, err = s.service.List(testutil.SetupAdminContext(), types.NewEntityFilter(kindCompany))
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)
}

func (s *EntityServiceSuite) TestUpdate() {
	created := s.createCompany("Acme Co")

	resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Attributes: types.Attributes{"employees": float64(42)},
	})
	s.NoError(err)
	// merge keeps the fields the patch did not mention
	s.Equal("Acme Co", resp.Attributes["name"])
	s.Equal(float64(42), resp.Attributes["employees"])
	s.True(resp.UpdatedAt.After(created.UpdatedAt))
	s.True(resp.UpdatedAt.After(resp.CreatedAt) || resp.UpdatedAt.Equal(resp.CreatedAt))
	s.True(resp.CreatedAt.Equal(created.CreatedAt))
}

func (s *EntityServiceSuite) TestUpdateTimestampMonotonicity() {
	created := s.createCompany("Acme Co")

	previous := created.UpdatedAt
	for i := 0; i < 3; i++ {
		resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
			Attributes: types.Attributes{"employees": float64(i)},
		})
		s.NoError(err)
		s.True(resp.UpdatedAt.After(previous))
		s.False(resp.UpdatedAt.Before(resp.CreatedAt))
		previous = resp.UpdatedAt
	}
}

func (s *EntityServiceSuite) TestUpdateImmutabilityGuard() {
	created := s.createCompany("Acme Co")

	resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Attributes: types.Attributes{"id": "x", "owner_id": "y"},
	})
	s.Nil(resp)
	s.True(ierr.IsValidation(err))

	// entity unchanged
	got, err := s.service.Get(s.GetContext(), kindCompany, created.ID, false)
	s.NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(testutil.TestOwnerID, got.OwnerID)
}

func (s *EntityServiceSuite) TestUpdateCannotSetDeletedStatus() {
	created := s.createCompany("Acme Co")

	deleted := types.StatusDeleted
	resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Status: &deleted,
	})
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *EntityServiceSuite) TestUpdateStatusToggle() {
	created := s.createCompany("Acme Co")

	inactive := types.StatusInactive
	resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Status: &inactive,
	})
	s.NoError(err)
	s.Equal(types.StatusInactive, resp.Status)

	active := types.StatusActive
	resp, err = s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Status: &active,
	})
	s.NoError(err)
	s.Equal(types.StatusActive, resp.Status)
}

func (s *EntityServiceSuite) TestUpdateOwnershipIsolation() {
	created := s.createCompany("Acme Co")

	otherCtx := testutil.SetupContextForOwner(testutil.TestOtherOwnerID)
	resp, err := s.service.Update(otherCtx, kindCompany, created.ID, dto.UpdateEntityRequest{
		Attributes: types.Attributes{"name": "Hijacked"},
	})
	s.Nil(resp)
	s.True(ierr.IsPermissionDenied(err))

	got, err := s.service.Get(s.GetContext(), kindCompany, created.ID, false)
	s.NoError(err)
	s.Equal("Acme Co", got.Attributes["name"])
}

func (s *EntityServiceSuite) TestUpdateDeletedEntity() {
	created := s.createCompany("Acme Co")
	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))

	resp, err := s.service.Update(s.GetContext(), kindCompany, created.ID, dto.UpdateEntityRequest{
		Attributes: types.Attributes{"name": "Back"},
	})
	s.Nil(resp)
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestDeleteIdempotent() {
	created := s.createCompany("Acme Co")

	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))
	// deleting an already-deleted entity succeeds without error
	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))

	got, err := s.service.Get(s.GetContext(), kindCompany, created.ID, true)
	s.NoError(err)
	s.Equal(types.StatusDeleted, got.Status)
}

func (s *EntityServiceSuite) TestDeleteOwnershipIsolation() {
	created := s.createCompany("Acme Co")

	otherCtx := testutil.SetupContextForOwner(testutil.TestOtherOwnerID)
	err := s.service.Delete(otherCtx, kindCompany, created.ID)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *EntityServiceSuite) TestDeleteNotFound() {
	err := s.service.Delete(s.GetContext(), kindCompany, "company_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestPurgeRequiresAdminContext() {
	created := s.createCompany("Acme Co")

	removed, err := s.service.Purge(s.GetContext(), kindCompany, created.ID)
	s.False(removed)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *EntityServiceSuite) TestPurge() {
	created := s.createCompany("Acme Co")

	removed, err := s.service.Purge(testutil.SetupAdminContext(), kindCompany, created.ID)
	s.NoError(err)
	s.True(removed)

	// physically gone, not just hidden
	_, err = s.service.Get(s.GetContext(), kindCompany, created.ID, true)
	s.True(ierr.IsNotFound(err))

	// purging again reports nothing removed, not an error
	removed, err = s.service.Purge(testutil.SetupAdminContext(), kindCompany, created.ID)
	s.NoError(err)
	s.False(removed)
}

func (s *EntityServiceSuite) TestStats() {
	for i := 0; i < 4; i++ {
		s.createCompany(gofakeit.Company())
	}
	created := s.createCompany(gofakeit.Company())
	s.NoError(s.service.Delete(s.GetContext(), kindCompany, created.ID))

	inactive := types.StatusInactive
	other := s.createCompany(gofakeit.Company())
	_, err := s.service.Update(s.GetContext(), kindCompany, other.ID, dto.UpdateEntityRequest{
		Status: &inactive,
	})
	s.NoError(err)

	stats, err := s.service.Stats(s.GetContext(), kindCompany)
	s.NoError(err)
	s.Equal(kindCompany, stats.Kind)
	s.Equal(6, stats.Total)
	s.Equal(4, stats.Active)
	s.Equal(1, stats.Deleted)
	s.Equal(5, stats.Recent30D)
}

func (s *EntityServiceSuite) TestStatsUnknownKind() {
	stats, err := s.service.Stats(s.GetContext(), "widget")
	s.Nil(stats)
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestStorageRetrySucceedsOnSecondAttempt() {
	s.GetEntityRepo().FailWith(testutil.StorageUnavailableError(), 1)

	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co"},
	})
	s.NoError(err)
	s.NotNil(resp)
}

func (s *EntityServiceSuite) TestStorageRetryEscalatesToServiceUnavailable() {
	s.GetEntityRepo().FailWith(testutil.StorageUnavailableError(), 2)

	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co"},
	})
	s.Nil(resp)
	s.True(ierr.IsServiceUnavailable(err))
}

func (s *EntityServiceSuite) TestDeterministicFailureNotRetried() {
	s.GetEntityRepo().FailWith(ierr.NewError("duplicate").Mark(ierr.ErrAlreadyExists), 1)

	resp, err := s.service.Create(s.GetContext(), kindCompany, dto.CreateEntityRequest{
		Attributes: types.Attributes{"name": "Acme Co"},
	})
	s.Nil(resp)
	s.True(ierr.IsAlreadyExists(err))
	s.False(ierr.IsServiceUnavailable(err))
}

func (s *EntityServiceSuite) TestBookingKindIsolatedFromCompanyKind() {
	booking, err := s.service.Create(s.GetContext(), kindBooking, dto.CreateEntityRequest{
		Attributes: types.Attributes{"duration_minutes": float64(30)},
	})
	s.NoError(err)
	s.createCompany("Acme Co")

	resp, err := s.service.List(s.GetContext(), types.NewEntityFilter(kindBooking))
	s.NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal(booking.ID, resp.Items[0].ID)
}
