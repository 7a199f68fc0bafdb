package logging

import (
	"os"

	"github.com/rs/zerolog"
)

type Logger = zerolog.Logger

// New builds the process logger. Unknown levels fall back to info; pretty
// switches from JSON to the human console writer.
func New(level string, pretty bool) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(parsed).With().Timestamp().Logger()
}
