// Package privacy renders probe targets into display-safe strings.
//
// Every reporting surface of pingsvc shows targets through this package,
// so a single privacy mode setting controls how much of a URL an operator
// exposes in logs or over the status endpoint.
package privacy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// ModeNone shows the target as configured.
	ModeNone Mode = iota

	// ModePartial keeps the first and last 3 bytes of the host and hides
	// the rest.
	ModePartial

	// ModeFull hides the target completely and shows its position in the
	// configured list instead.
	ModeFull
)

// ErrUnknownMode is the error that ParseMode returns for a mode name it
// does not know. Unknown names are never treated as a weaker mode.
var ErrUnknownMode = errors.New("unknown privacy mode")

// Mode is the privacy level applied to target display strings.
type Mode int8

// ParseMode parses a privacy mode name.
//
// The empty string parses as ModeNone so that an absent configuration key
// keeps the default.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(raw) {
	case "", "none":
		return ModeNone, nil
	case "partial":
		return ModePartial, nil
	case "full":
		return ModeFull, nil
	default:
		return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}

// String is make Mode a string.
func (m Mode) String() string {
	switch m {
	case ModePartial:
		return "partial"
	case ModeFull:
		return "full"
	default:
		return "none"
	}
}

// MarshalText is marshal Mode as text.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText is unmarshal text as a Mode.
// Unlike ParseMode of most enums, this keeps the parse error so that a
// typo in a config file cannot silently weaken the privacy level.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

const redacted = "https://***"

// Mask renders one target under the given mode.
//
// index is the target's 0-based position in the configured list; it is
// only used by ModeFull, which numbers endpoints from 1.
//
// ModePartial keeps at most the first 3 and last 3 bytes of the host and
// appends the original path under a fixed https:// prefix, whatever the
// original scheme was. Hosts of 6 bytes or shorter, and targets that do
// not parse, render fully redacted.
func Mask(target string, mode Mode, index int) string {
	switch mode {
	case ModeFull:
		return fmt.Sprintf("Endpoint %d", index+1)
	case ModePartial:
		u, err := url.Parse(target)
		if err != nil {
			return redacted
		}

		host := u.Hostname()
		if len(host) <= 6 {
			return redacted
		}

		return "https://" + host[:3] + "***" + host[len(host)-3:] + u.Path
	default:
		return target
	}
}
