// Package config loads server startup configuration from the
// environment using struct tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the server's startup configuration: host, port, worker
// count, optional TLS material, log verbosity, and the session-signing
// secret.
type Config struct {
	Host       string `env:"READLY_HOST" envDefault:"localhost"`
	Port       int    `env:"READLY_PORT" envDefault:"8000"`
	NWorkers   int    `env:"READLY_N_WORKERS" envDefault:"2"`
	CertFile   string `env:"READLY_CERT_FILE"`
	KeyFile    string `env:"READLY_KEY_FILE"`
	LogLevel   string `env:"READLY_LOG_LEVEL" envDefault:"INFO"`
	CookieName string `env:"READLY_COOKIE_NAME" envDefault:"session"`
	// SessionSecret has no default: the server must be given one explicitly
	// before session middleware can be registered.
	SessionSecret string `env:"READLY_SESSION_SECRET"`
}

// Load reads Config from the environment, applying envDefault tags for any
// variable left unset.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// TLSEnabled reports whether both halves of the certificate pair are present.
func (c Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}
