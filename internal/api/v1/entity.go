package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mewayz/entitystore/internal/api/dto"
	ierr "github.com/mewayz/entitystore/internal/errors"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/schema"
	"github.com/mewayz/entitystore/internal/service"
	"github.com/mewayz/entitystore/internal/types"
	"github.com/mewayz/entitystore/internal/validator"
)

// EntityHandler adapts transport requests onto the entity service for every
// registered kind. One handler serves all kinds; the kind is a route
// parameter, not a code path.
type EntityHandler struct {
	service  service.EntityService
	registry *schema.Registry
	log      *logger.Logger
}

func NewEntityHandler(service service.EntityService, registry *schema.Registry, log *logger.Logger) *EntityHandler {
	return &EntityHandler{service: service, registry: registry, log: log}
}

// CreateEntity handles POST /v1/entities/:kind
func (h *EntityHandler) CreateEntity(c *gin.Context) {
	kind := c.Param("kind")

	var req dto.CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), kind, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSuccessEnvelope(resp))
}

// GetEntity handles GET /v1/entities/:kind/:id
func (h *EntityHandler) GetEntity(c *gin.Context) {
	kind := c.Param("kind")
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("id is required").
			Mark(ierr.ErrInvalidArgument))
		return
	}

	includeDeleted := c.Query("include_deleted") == "true"

	resp, err := h.service.Get(c.Request.Context(), kind, id, includeDeleted)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(resp))
}

// ListEntities handles GET /v1/entities/:kind
func (h *EntityHandler) ListEntities(c *gin.Context) {
	kind := c.Param("kind")
	if _, err := h.registry.Get(kind); err != nil {
		c.Error(err)
		return
	}

	filter := types.NewEntityFilter(kind)
	if err := c.ShouldBindQuery(filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrInvalidArgument))
		return
	}
	filter.Kind = kind
	if err := validator.ValidateRequest(filter); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(resp))
}

// UpdateEntity handles PUT /v1/entities/:kind/:id
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	kind := c.Param("kind")
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("id is required").
			Mark(ierr.ErrInvalidArgument))
		return
	}

	var req dto.UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), kind, id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(resp))
}

// DeleteEntity handles DELETE /v1/entities/:kind/:id
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	kind := c.Param("kind")
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("id is required").
			Mark(ierr.ErrInvalidArgument))
		return
	}

	if err := h.service.Delete(c.Request.Context(), kind, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(gin.H{"deleted": true}))
}

// GetEntityStats handles GET /v1/stats/:kind
func (h *EntityHandler) GetEntityStats(c *gin.Context) {
	kind := c.Param("kind")

	resp, err := h.service.Stats(c.Request.Context(), kind)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(resp))
}

// PurgeEntity handles DELETE /admin/entities/:kind/:id. Physical deletion
// is not part of the standard contract.
func (h *EntityHandler) PurgeEntity(c *gin.Context) {
	kind := c.Param("kind")
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("id is required").
			Mark(ierr.ErrInvalidArgument))
		return
	}

	removed, err := h.service.Purge(c.Request.Context(), kind, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(gin.H{"purged": removed}))
}

// ListKinds handles GET /v1/kinds
func (h *EntityHandler) ListKinds(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessEnvelope(gin.H{"kinds": h.registry.Kinds()}))
}
