package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/mewayz/entitystore/internal/api/v1"
	"github.com/mewayz/entitystore/internal/rest/middleware"
)

type Handlers struct {
	Entity *v1.EntityHandler
	Health *v1.HealthHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	// v1 routes carry the caller identity extracted by the owner middleware
	v1Group := router.Group("/v1")
	v1Group.Use(middleware.OwnerContextMiddleware)
	registerV1Routes(v1Group, handlers)

	// administrative surface; the capability check happens in the service
	adminGroup := router.Group("/admin")
	adminGroup.Use(middleware.OwnerContextMiddleware)
	registerAdminRoutes(adminGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/kinds", handlers.Entity.ListKinds)

	// one generic route set serves every registered kind
	entities := router.Group("/entities")
	{
		entities.POST("/:kind", handlers.Entity.CreateEntity)
		entities.GET("/:kind", handlers.Entity.ListEntities)
		entities.GET("/:kind/:id", handlers.Entity.GetEntity)
		entities.PUT("/:kind/:id", handlers.Entity.UpdateEntity)
		entities.DELETE("/:kind/:id", handlers.Entity.DeleteEntity)
	}

	stats := router.Group("/stats")
	{
		stats.GET("/:kind", handlers.Entity.GetEntityStats)
	}
}

func registerAdminRoutes(router *gin.RouterGroup, handlers Handlers) {
	entities := router.Group("/entities")
	{
		entities.DELETE("/:kind/:id", handlers.Entity.PurgeEntity)
	}
}
