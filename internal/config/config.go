// Package config assembles the immutable runtime configuration.
//
// The configuration is built exactly once in the main package, from
// defaults, then an optional YAML file, then environment variables, then
// command line flags, in that order of precedence. No other package
// reads ambient environment state.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
)

// ErrInvalidDuration reports a duration value that is neither a Go
// duration string nor a bare integer.
var ErrInvalidDuration = errors.New("invalid duration")

// Duration is a time.Duration that also accepts bare integers, read as
// milliseconds, in YAML and environment values.
type Duration time.Duration

func ParseDuration(raw string) (Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return Duration(d), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Config is the full configuration surface of pingsvc.
// It is immutable after Build in the main package returns.
type Config struct {
	// Targets is the ordered endpoint list.
	Targets []string `yaml:"targets"`

	// Timeout is the per-request hard ceiling.
	Timeout Duration `yaml:"timeout"`

	// Delay is the pause between requests within a cycle.
	Delay Duration `yaml:"delay"`

	// Privacy controls how targets render in every reporting surface.
	Privacy privacy.Mode `yaml:"privacy"`

	// Schedule is the cadence expression for the daemon.
	Schedule string `yaml:"schedule"`

	// Port is the self-status listen port. 0 disables the listener.
	Port int `yaml:"port"`
}

// Default returns the built-in defaults.
// Oneshot mode allows a longer request timeout because there is no next
// cycle that a slow endpoint could delay into.
func Default(oneshot bool) Config {
	timeout := 30 * time.Second
	if oneshot {
		timeout = 60 * time.Second
	}

	return Config{
		Timeout:  Duration(timeout),
		Delay:    Duration(time.Second),
		Privacy:  privacy.ModeNone,
		Schedule: "15m",
		Port:     3000,
	}
}

// LoadFile overlays the YAML file at path onto c.
// Keys absent from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

// LoadEnv overlays environment values onto c.
// lookup is os.LookupEnv in production; tests pass their own.
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	if raw, ok := lookup("PINGSVC_TARGETS"); ok {
		var targets []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, t)
			}
		}
		c.Targets = targets
	}

	if raw, ok := lookup("PINGSVC_TIMEOUT"); ok {
		d, err := ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("PINGSVC_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}

	if raw, ok := lookup("PINGSVC_DELAY"); ok {
		d, err := ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("PINGSVC_DELAY: %w", err)
		}
		c.Delay = d
	}

	if raw, ok := lookup("PINGSVC_PRIVACY"); ok {
		m, err := privacy.ParseMode(raw)
		if err != nil {
			return fmt.Errorf("PINGSVC_PRIVACY: %w", err)
		}
		c.Privacy = m
	}

	if raw, ok := lookup("PINGSVC_SCHEDULE"); ok {
		c.Schedule = raw
	}

	rawPort, ok := lookup("PINGSVC_PORT")
	if !ok {
		// PORT is what most container platforms inject.
		rawPort, ok = lookup("PORT")
	}
	if ok {
		port, err := strconv.Atoi(rawPort)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid port number: %q", rawPort)
		}
		c.Port = port
	}

	return nil
}

// Validate checks the value ranges that the overlays cannot.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive but is %s", c.Timeout)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative but is %s", c.Delay)
	}
	return nil
}
