// Package config loads service settings from the environment and game rule
// sets from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds process-level settings, parsed from the environment.
type Server struct {
	Addr           string        `env:"ADDR" envDefault:":8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	IdleTimeout    time.Duration `env:"ROOM_IDLE_TIMEOUT" envDefault:"30m"` // 0 = rooms never reaped
	RulesPath      string        `env:"RULES_PATH"` // empty = builtin rule sets only
	NATSURL        string        `env:"NATS_URL"`   // empty = in-memory event relay
	DisableDB      bool          `env:"DISABLE_DB" envDefault:"false"`
	OutboxMode     string        `env:"OUTBOX_MODE" envDefault:"listen"` // listen | poll
}

// Load parses the server configuration from environment variables.
func Load() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse server config: %w", err)
	}
	return cfg, nil
}
