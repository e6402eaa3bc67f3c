// Package log constructs the process logger.
package log

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a leveled console logger. Unknown level strings fall back to
// info.
func New(level string) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	return &logger
}
