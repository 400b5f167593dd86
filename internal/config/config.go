package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mewayz/entitystore/internal/schema"
	"github.com/mewayz/entitystore/internal/types"
)

type Configuration struct {
	Server      ServerConfig      `validate:"required"`
	Logging     LoggingConfig     `validate:"required"`
	Postgres    PostgresConfig    `validate:"required"`
	Cache       CacheConfig
	EntityStore EntityStoreConfig `validate:"required"`
	Kinds       map[string]schema.Schema
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// EntityStoreConfig bounds the generic entity contract: page size caps,
// per-operation storage timeout and the fixed backoff used for the single
// retry of transient storage failures.
type EntityStoreConfig struct {
	MaxPageSize       int           `validate:"required,min=1"`
	DefaultPageSize   int           `validate:"required,min=1"`
	RepositoryTimeout time.Duration `validate:"required"`
	RetryBackoff      time.Duration `validate:"required"`
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func NewConfig() (*Configuration, error) {
	// Load .env for local development; missing file is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/entitystore")

	v.SetEnvPrefix("ENTITYSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "entitystore")
	v.SetDefault("postgres.dbname", "entitystore")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Minute)
	v.SetDefault("entitystore.maxpagesize", 100)
	v.SetDefault("entitystore.defaultpagesize", 50)
	v.SetDefault("entitystore.repositorytimeout", 5*time.Second)
	v.SetDefault("entitystore.retrybackoff", 250*time.Millisecond)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	for kind, s := range c.Kinds {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid schema for kind %q: %w", kind, err)
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for tests and scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: types.LogLevelInfo},
		Cache:   CacheConfig{Enabled: true, TTL: 30 * time.Minute},
		EntityStore: EntityStoreConfig{
			MaxPageSize:       100,
			DefaultPageSize:   50,
			RepositoryTimeout: 5 * time.Second,
			RetryBackoff:      250 * time.Millisecond,
		},
	}
}
