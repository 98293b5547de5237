package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	DatabaseURL         string `env:"DATABASE_URL,required"`
	RedisURL            string `env:"REDIS_URL,required"`
	ImpersonationSecret string `env:"IMPERSONATION_SECRET"`
	IdentitySecret      string `env:"IDENTITY_SECRET"`
	IdentityIssuer      string `env:"IDENTITY_ISSUER" envDefault:"opsdesk"`
	ImpersonationTTLMin int    `env:"IMPERSONATION_TTL_MINUTES" envDefault:"480"`
	StartLimitPerMin    int    `env:"IMPERSONATION_START_LIMIT_PER_MINUTE" envDefault:"10"`
	ExitDefaultPath     string `env:"EXIT_DEFAULT_PATH" envDefault:"/admin/users"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ImpersonationTTL() time.Duration {
	return time.Duration(c.ImpersonationTTLMin) * time.Minute
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IdentityConfigured reports whether the built-in identity provider can be
// wired at all. When false the impersonation endpoints answer 501.
func (c *Config) IdentityConfigured() bool {
	return c.IdentitySecret != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.ImpersonationSecret == "" {
		return fmt.Errorf("IMPERSONATION_SECRET is required (generate with: openssl rand -base64 32)")
	}

	if c.ImpersonationTTLMin <= 0 || c.ImpersonationTTLMin > 24*60 {
		return fmt.Errorf("IMPERSONATION_TTL_MINUTES must be between 1 and 1440")
	}

	if isProduction {
		if err := validateSecret("IMPERSONATION_SECRET", c.ImpersonationSecret); err != nil {
			return err
		}
		if c.IdentitySecret != "" {
			if err := validateSecret("IDENTITY_SECRET", c.IdentitySecret); err != nil {
				return err
			}
		}

		if c.IdentitySecret == "" {
			log.Warn().Msg("IDENTITY_SECRET is empty in production: impersonation endpoints will answer 501")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
