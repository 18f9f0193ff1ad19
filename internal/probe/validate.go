package probe

import (
	"errors"
	"net/url"
	"strings"

	"github.com/kamilcollu/universal-http-ping-service/internal/pingerr"
)

var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrMissingScheme     = errors.New("missing scheme in URL")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrMissingHost       = errors.New("missing target host")

	// ErrInvalidTargets is the heading of the pingerr.List that
	// ValidTargets returns when it drops entries.
	ErrInvalidTargets = errors.New("invalid targets")
)

// ValidateTarget checks that one target is something Probe can dispatch:
// a URL with an http or https scheme and a host.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return pingerr.New(ErrInvalidURL, err, "%s", ErrInvalidURL)
	}

	if u.Scheme == "" {
		return pingerr.New(ErrMissingScheme, nil, "%s: %s", ErrMissingScheme, target)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return pingerr.New(ErrUnsupportedScheme, nil, "%s: %s: %s", ErrUnsupportedScheme, target, u.Scheme)
	}

	if u.Hostname() == "" {
		return pingerr.New(ErrMissingHost, nil, "%s: %s", ErrMissingHost, target)
	}

	return nil
}

// ValidTargets filters the configured target list down to probeable
// entries, preserving order.
//
// When entries are dropped, the returned error is a pingerr.List under
// ErrInvalidTargets with one child per dropped entry, so the caller can
// report each drop before deciding whether the remainder is enough to
// proceed.
func ValidTargets(targets []string) ([]string, error) {
	valid := make([]string, 0, len(targets))

	dropped := &pingerr.ListBuilder{What: ErrInvalidTargets}

	for _, t := range targets {
		if err := ValidateTarget(t); err != nil {
			dropped.Push(err)
		} else {
			valid = append(valid, t)
		}
	}

	return valid, dropped.Build()
}
