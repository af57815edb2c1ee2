package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog logger. Production emits JSON on
// stdout at info level; development switches to the console writer at debug
// so dispatch and queue tracing stays readable while iterating on the model
// catalog.
func NewLogger(appEnv string) zerolog.Logger {
	var out io.Writer = os.Stdout
	level := zerolog.InfoLevel
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Logger aliases zerolog.Logger so the dispatch client, generation service,
// and stores can carry a logger field without importing the third-party
// module directly.
type Logger = zerolog.Logger
