package config

import (
	"fmt"
	"strings"
)

// Config holds everything read from flags/env at startup. It is passed
// explicitly to the pieces that need it; there are no package-level globals.
type Config struct {
	// GameServerURL is the base URL of the upstream guessing-game server.
	// May be empty, in which case game routes render a "not configured" error.
	GameServerURL string

	// SessionSecret signs the moderator token cookie.
	SessionSecret string

	// DatabaseURL is the Postgres connection string for the moderator panel.
	// May be empty, in which case the panel is unavailable.
	DatabaseURL string

	// RedisAddr is the host:port of the Redis instance backing sessions.
	RedisAddr string

	Port    int
	Verbose bool
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("session secret must be set")
	}
	if c.GameServerURL != "" && !strings.HasPrefix(c.GameServerURL, "http") {
		return fmt.Errorf("game server URL must be http(s): %q", c.GameServerURL)
	}
	return nil
}
