package repository

import (
	"github.com/mewayz/entitystore/internal/config"
	"github.com/mewayz/entitystore/internal/domain/entity"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/postgres"
	postgresRepo "github.com/mewayz/entitystore/internal/repository/postgres"
)

func NewEntityRepository(db *postgres.DB, cfg *config.Configuration, logger *logger.Logger) entity.Repository {
	return postgresRepo.NewEntityRepository(db, cfg, logger)
}
