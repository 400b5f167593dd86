package service

import (
	"github.com/mewayz/entitystore/internal/cache"
	"github.com/mewayz/entitystore/internal/config"
	"github.com/mewayz/entitystore/internal/domain/entity"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/schema"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger     *logger.Logger
	Config     *config.Configuration
	Cache      cache.Cache
	Registry   *schema.Registry
	EntityRepo entity.Repository
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	cache cache.Cache,
	registry *schema.Registry,
	entityRepo entity.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:     logger,
		Config:     config,
		Cache:      cache,
		Registry:   registry,
		EntityRepo: entityRepo,
	}
}
