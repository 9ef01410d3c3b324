// Package logger builds the service-wide zerolog logger.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level       string
	Environment string
	ServiceName string
	Version     string
}

// New returns a logger tagged with service identity. Development
// environments get human-readable console output; everything else logs JSON.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	ctx := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment)

	log := ctx.Logger()
	if cfg.Environment == "development" || cfg.Environment == "local" {
		log = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return log
}
