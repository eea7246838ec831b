// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the configured global logger. It is the zerolog default until Init runs.
var Logger = log.Logger

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or pretty
}

// ConfigFromEnv reads LOG_LEVEL and LOG_FORMAT.
func ConfigFromEnv() Config {
	return Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	}
}

// Init builds the logger described by config, writing to stdout, and installs it as
// both Logger and the zerolog global.
func Init(config Config) zerolog.Logger {
	Logger = New(config, os.Stdout)
	log.Logger = Logger
	return Logger
}

// New builds a logger writing to out. Unknown levels fall back to info.
func New(config Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if config.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}
