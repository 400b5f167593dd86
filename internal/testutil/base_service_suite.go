package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mewayz/entitystore/internal/cache"
	"github.com/mewayz/entitystore/internal/config"
	"github.com/mewayz/entitystore/internal/logger"
	"github.com/mewayz/entitystore/internal/schema"
	"github.com/mewayz/entitystore/internal/validator"
)

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	entityRepo *InMemoryEntityStore
	registry   *schema.Registry
	cache      cache.Cache
	logger     *logger.Logger
	config     *config.Configuration
	now        time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.entityRepo = NewInMemoryEntityStore()
	s.registry = schema.NewRegistry()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.entityRepo.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetRegistry returns the test schema registry
func (s *BaseServiceTestSuite) GetRegistry() *schema.Registry {
	return s.registry
}

// GetEntityRepo returns the in-memory entity repository
func (s *BaseServiceTestSuite) GetEntityRepo() *InMemoryEntityStore {
	return s.entityRepo
}
