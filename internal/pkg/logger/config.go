package logger

import (
	"io"
	"log/slog"

	. "github.com/go-ozzo/ozzo-validation"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type Config struct {
	Level     string
	Format    string
	AddSource bool

	// Output defaults to stdout.
	Output io.Writer
}

func (c *Config) Validate() error {
	return ValidateStruct(c,
		Field(&c.Level, Required, In("debug", "info", "warn", "error")),
		Field(&c.Format, Required, In("json", "text")),
	)
}

// SlogLevel falls back to info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	if lvl, ok := levels[c.Level]; ok {
		return lvl
	}
	return slog.LevelInfo
}
