package logging

import (
	"log/slog"
	"os"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name

	// level is the minimum level that will be logged.
	level slog.Level
}

// NewConfig creates a new logger configuration for the named application.
func NewConfig(name Name) *Config {
	level := slog.LevelInfo
	if os.Getenv(`LOG_DEBUG`) != "" {
		level = slog.LevelDebug
	}

	return &Config{
		name:  name,
		level: level,
	}
}

// CommonLogger creates the common logger for the application. The logger writes
// JSON to stdout and carries the application name on every record.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String("app", string(c.name)))

	// Make the logger available to packages that use the default logger.
	slog.SetDefault(l)

	return l, nil
}
