package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLogLevel names the environment variable holding the log level.
const EnvLogLevel = "GIFMAKER_LOG_LEVEL"

// Init initializes the global logger with configuration from environment variables.
// GIFMAKER_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init() {
	InitWriter(os.Stderr)
}

// InitWriter is Init with an explicit destination for the console writer.
func InitWriter(out io.Writer) {
	zerolog.SetGlobalLevel(levelFromEnv())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stderr})
}

// InitFile sends logs to a file instead of the terminal. The interactive UI
// owns the screen, so it logs here. The caller closes the returned file.
func InitFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	InitWriter(f)
	return f, nil
}

func levelFromEnv() zerolog.Level {
	switch os.Getenv(EnvLogLevel) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
