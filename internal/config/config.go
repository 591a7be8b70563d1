// Package config loads gif-maker settings from TOML.
//
// Values are layered: the embedded defaults, then an optional file given on
// the command line or through GIFMAKER_CONFIG, then GIFMAKER_SERVER_URL.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

//go:embed default.toml
var defaultTOML []byte

// Environment variables consulted by Load.
const (
	EnvConfigPath = "GIFMAKER_CONFIG"
	EnvServerURL  = "GIFMAKER_SERVER_URL"
)

// Config is the complete gif-maker configuration.
type Config struct {
	Server     Server   `toml:"server"`
	Animations []string `toml:"animations"`
	GIF        GIF      `toml:"gif"`
	Output     Output   `toml:"output"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Server locates the composition service.
type Server struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// GIF holds the default encoding parameters shown in the UI.
type GIF struct {
	Duration         int `toml:"duration"`
	Loop             int `toml:"loop"`
	TransitionFrames int `toml:"transition_frames"`
}

// Output controls where downloaded GIFs are written.
type Output struct {
	Dir string `toml:"dir"`
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := toml.Unmarshal(defaultTOML, &cfg); err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// Load builds the configuration. path may be empty, in which case
// GIFMAKER_CONFIG is consulted; a missing file named only by the environment
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeInto(&cfg, data); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.Path = path
			log.Debug().Str("path", path).Msg("Loaded config file")
		case errors.Is(err, os.ErrNotExist) && !explicit:
			log.Warn().Str("path", path).Msg("Config file not found, using defaults")
		default:
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.Server.URL = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig mirrors Config with optional fields so a file only overrides
// the keys it sets.
type fileConfig struct {
	Server *struct {
		URL     *string   `toml:"url"`
		Timeout *Duration `toml:"timeout"`
	} `toml:"server"`
	Animations []string `toml:"animations"`
	GIF        *struct {
		Duration         *int `toml:"duration"`
		Loop             *int `toml:"loop"`
		TransitionFrames *int `toml:"transition_frames"`
	} `toml:"gif"`
	Output *struct {
		Dir *string `toml:"dir"`
	} `toml:"output"`
}

// decodeInto overlays the TOML document on cfg. Unknown keys are rejected so
// typos surface instead of being silently ignored.
func decodeInto(cfg *Config, data []byte) error {
	var fc fileConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return err
	}

	if s := fc.Server; s != nil {
		setIf(&cfg.Server.URL, s.URL)
		setIf(&cfg.Server.Timeout, s.Timeout)
	}
	if fc.Animations != nil {
		cfg.Animations = fc.Animations
	}
	if g := fc.GIF; g != nil {
		setIf(&cfg.GIF.Duration, g.Duration)
		setIf(&cfg.GIF.Loop, g.Loop)
		setIf(&cfg.GIF.TransitionFrames, g.TransitionFrames)
	}
	if o := fc.Output; o != nil {
		setIf(&cfg.Output.Dir, o.Dir)
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks the invariants the rest of the program relies on.
func (c Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url must be set")
	}
	if len(c.Animations) == 0 {
		return errors.New("animations must list at least one effect")
	}
	if !slices.Contains(c.Animations, "None") {
		return errors.New(`animations must include "None"`)
	}
	if c.GIF.Duration <= 0 {
		return errors.New("gif.duration must be greater than 0")
	}
	if c.GIF.Loop < 0 {
		return errors.New("gif.loop must be 0 or greater")
	}
	if c.GIF.TransitionFrames < 0 {
		return errors.New("gif.transition_frames must be 0 or greater")
	}
	return nil
}

// TimeoutDuration returns the HTTP timeout as a time.Duration.
func (s Server) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout)
}

// Encode renders cfg as TOML, used by "gif-maker config".
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
