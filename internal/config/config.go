// Package config reads the handful of environment variables the table
// server needs at startup via plain os.Getenv calls with literal
// defaults, rather than a config library.
package config

import (
	"os"
	"strings"
)

// Config is the process-wide configuration, read once in main.
type Config struct {
	Port           string
	AllowedOrigins []string
	Production     bool
}

// Load reads Config from the environment, applying defaults for any
// variable left unset.
func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Config{
		Port:           port,
		AllowedOrigins: origins,
		Production:     strings.EqualFold(os.Getenv("ENV"), "production"),
	}
}

// AllowOrigin reports whether origin is permitted to open a WebSocket
// connection. With no ALLOWED_ORIGINS configured, every origin is allowed.
func (c Config) AllowOrigin(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}
