package logging

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects version, service and configuration details, then
// emits a single structured zerolog event summarising how the client was
// started. This makes it easy to tell from a log file which server and
// settings a session ran against.
type StartupLogger struct {
	name         string
	version      string
	commitHash   string
	initDuration time.Duration

	features map[string]bool
	config   map[string]string
	lists    map[string][]string
}

// NewStartupLogger creates a StartupLogger for the given command name
// (e.g. "gif-maker", "gif-maker make").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		features: make(map[string]bool),
		config:   make(map[string]string),
		lists:    make(map[string][]string),
	}
}

// Version sets the release version baked into the binary at build time.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// CommitHash sets the git commit hash baked into the binary at build time.
func (s *StartupLogger) CommitHash(hash string) *StartupLogger {
	s.commitHash = hash
	return s
}

// Feature registers a boolean feature flag (e.g. "nativePicker").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// List registers a list-valued setting such as the animation vocabulary.
func (s *StartupLogger) List(key string, values []string) *StartupLogger {
	s.lists[key] = values
	return s
}

// InitDuration records how long startup took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	app := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv(EnvLogLevel))

	if s.version != "" {
		app = app.Str("version", s.version)
	}
	if s.commitHash != "" {
		app = app.Str("commitHash", s.commitHash)
	}
	evt = evt.Dict("app", app)

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 || len(s.lists) > 0 {
		d := dictFromMap(s.config)
		for k, v := range s.lists {
			d = d.Str(k, strings.Join(v, ", "))
		}
		evt = evt.Dict("config", d)
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
