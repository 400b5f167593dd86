package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mewayz/entitystore/internal/types"
)

// OwnerContextMiddleware lifts the authenticated caller identity from the
// request headers into the context. Authentication itself happens upstream;
// this layer only carries the already-verified identity. The administrative
// flag bypasses owner scoping and its authorization also lives upstream.
func OwnerContextMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	if ownerID := c.GetHeader(types.HeaderOwnerID); ownerID != "" {
		ctx = types.SetOwnerID(ctx, ownerID)
	}

	if c.GetHeader(types.HeaderAdminContext) == "true" {
		ctx = types.SetAdminContext(ctx)
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
