package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	UploadsDriverLocal = "local"
	UploadsDriverS3    = "s3"
)

// devSecret signs tokens when the API runs against the in-memory store without JWT_SECRET.
const devSecret = "tally-dev-secret"

type Config struct {
	App struct {
		Name        string     `envconfig:"APP_NAME" default:"Tally"`
		Port        int        `envconfig:"PORT" default:"5000"`
		LogLevel    slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`
		StoreDriver string     `envconfig:"STORE_DRIVER" default:"postgres"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"tally"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		Secret     string        `envconfig:"JWT_SECRET"`
		TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
		BcryptCost int           `envconfig:"BCRYPT_COST" default:"10"`
	}

	Uploads struct {
		Driver string `envconfig:"UPLOADS_DRIVER" default:"local"`
		Dir    string `envconfig:"UPLOADS_DIR" default:"uploads"`
		Prefix string `envconfig:"UPLOADS_PREFIX" default:"/uploads"`
		MaxMB  int64  `envconfig:"UPLOADS_MAX_MB" default:"5"`
	}

	S3 struct {
		Bucket    string `envconfig:"S3_BUCKET"`
		Region    string `envconfig:"S3_REGION" default:"us-east-1"`
		Endpoint  string `envconfig:"S3_ENDPOINT"`
		AccessKey string `envconfig:"S3_ACCESS_KEY"`
		SecretKey string `envconfig:"S3_SECRET_KEY"`
		PublicURL string `envconfig:"S3_PUBLIC_URL"`
	}

	CORS struct {
		Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// MaxUploadBytes is the largest picture accepted by the sales endpoints.
func (c *Config) MaxUploadBytes() int64 {
	return c.Uploads.MaxMB << 20
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.App.StoreDriver {
	case StoreDriverPostgres:
		if c.Auth.Secret == "" {
			return errors.New("JWT_SECRET is required with the postgres store")
		}
	case StoreDriverMemory:
		if c.Auth.Secret == "" {
			c.Auth.Secret = devSecret
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.App.StoreDriver)
	}

	switch c.Uploads.Driver {
	case UploadsDriverLocal:
	case UploadsDriverS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required with the s3 uploads driver")
		}
	default:
		return fmt.Errorf("unknown UPLOADS_DRIVER %q", c.Uploads.Driver)
	}

	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	return nil
}
