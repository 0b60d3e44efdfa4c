package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration, read from the environment (a
// local .env file is honored when present).
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	UpstreamBaseURL string        `envconfig:"UPSTREAM_BASE_URL" required:"true"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// DatabaseURL is optional; when empty, merge reports are not persisted.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"zing-auth"`

	GuestCartTTL      time.Duration `envconfig:"GUEST_CART_TTL" default:"720h"`
	AttributeCacheTTL time.Duration `envconfig:"ATTRIBUTE_CACHE_TTL" default:"60s"`
	EventsChannel     string        `envconfig:"EVENTS_CHANNEL" default:"cart:events"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
