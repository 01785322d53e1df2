package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Security SecurityConfig
}

type JWTConfig struct {
	// Secret is base64-encoded HMAC key material.
	Secret                 string `env:"JWT_SECRET, required"`
	TokenValidityInSeconds int64  `env:"JWT_TOKEN_VALIDITY_IN_SECONDS, default=86400"`
}

// TokenValidity returns the validity window as a duration.
func (c JWTConfig) TokenValidity() time.Duration {
	return time.Duration(c.TokenValidityInSeconds) * time.Second
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=blog"`
}

type SQLiteConfig struct {
	DSN string `env:"SQLITE_DSN, default=file:blog.db?cache=shared&mode=rwc"`
}

type RedisConfig struct {
	// Addr empty disables the token denylist.
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SecurityConfig struct {
	BcryptCost  int           `env:"BCRYPT_COST,  default=10"`
	HashWorkers int           `env:"HASH_WORKERS, default=4"`
	OpTimeout   time.Duration `env:"OP_TIMEOUT,   default=5s"`
}

// IsDevelopment reports whether the service runs in a local development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.JWT.TokenValidityInSeconds <= 0 {
		return errors.New("config: JWT_TOKEN_VALIDITY_IN_SECONDS must be positive")
	}
	switch c.Storage.Driver {
	case DriverMongo, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Security.OpTimeout <= 0 {
		return errors.New("config: OP_TIMEOUT must be positive")
	}
	return nil
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith processes configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
