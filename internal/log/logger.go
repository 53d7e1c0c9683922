package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes JSON lines at info level;
// other environments get colored console output at debug level.
func New(environment, component string) zerolog.Logger {
	return newLogger(os.Stdout, environment, component)
}

func newLogger(out io.Writer, environment, component string) zerolog.Logger {
	level := zerolog.DebugLevel
	if environment == "production" {
		level = zerolog.InfoLevel
	} else {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("env", environment).
		Str("component", component).
		Logger()
}
