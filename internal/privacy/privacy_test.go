package privacy_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Input string
		Mode  privacy.Mode
		Error bool
	}{
		{"none", privacy.ModeNone, false},
		{"", privacy.ModeNone, false},
		{"partial", privacy.ModePartial, false},
		{"Partial", privacy.ModePartial, false},
		{"full", privacy.ModeFull, false},
		{"FULL", privacy.ModeFull, false},
		{"ultra", privacy.ModeNone, true},
		{"nope", privacy.ModeNone, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.Input), func(t *testing.T) {
			m, err := privacy.ParseMode(tt.Input)
			if (err != nil) != tt.Error {
				t.Fatalf("unexpected error: %v", err)
			}
			if err == nil && m != tt.Mode {
				t.Errorf("expected %s but got %s", tt.Mode, m)
			}
		})
	}
}

func TestMode_UnmarshalText(t *testing.T) {
	t.Parallel()

	var m privacy.Mode

	if err := m.UnmarshalText([]byte("full")); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if m != privacy.ModeFull {
		t.Errorf("expected full but got %s", m)
	}

	if err := m.UnmarshalText([]byte("loud")); err == nil {
		t.Error("expected error for unknown mode but got nil")
	}
	if m != privacy.ModeFull {
		t.Errorf("failed unmarshal should not change the value but got %s", m)
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name   string
		Target string
		Mode   privacy.Mode
		Index  int
		Want   string
	}{
		{"none", "https://example.com/path", privacy.ModeNone, 0, "https://example.com/path"},
		{"none-keeps-query", "http://example.com/p?q=1", privacy.ModeNone, 3, "http://example.com/p?q=1"},
		{"partial", "https://example.com/path", privacy.ModePartial, 0, "https://exa***com/path"},
		{"partial-no-path", "https://my-service.onrender.com", privacy.ModePartial, 0, "https://my-***com"},
		{"partial-http-scheme", "http://insecure.example.org/x", privacy.ModePartial, 0, "https://ins***org/x"},
		{"partial-short-host", "https://ab.cd/path", privacy.ModePartial, 0, "https://***"},
		{"partial-6-byte-host", "https://six.is/", privacy.ModePartial, 0, "https://***"},
		{"partial-7-byte-host", "https://abcdefg/", privacy.ModePartial, 0, "https://abc***efg/"},
		{"partial-unparsable", "http://bad\x7f{url", privacy.ModePartial, 0, "https://***"},
		{"full", "https://example.com/path", privacy.ModeFull, 0, "Endpoint 1"},
		{"full-index", "https://example.com/path", privacy.ModeFull, 4, "Endpoint 5"},
		{"full-garbage", "not a url at all", privacy.ModeFull, 1, "Endpoint 2"},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			got := privacy.Mask(tt.Target, tt.Mode, tt.Index)
			if got != tt.Want {
				t.Errorf("expected %q but got %q", tt.Want, got)
			}
		})
	}
}

// The middle of the host must never survive partial masking, whatever the
// host looks like.
func TestMask_partialNeverLeaksMiddle(t *testing.T) {
	t.Parallel()

	hosts := []string{
		"example.com",
		"my-secret-internal-name.example.internal",
		"0123456",
		"aaaaaaaaaaaaaaaaaaaaaa",
	}

	for _, host := range hosts {
		t.Run(host, func(t *testing.T) {
			got := privacy.Mask("https://"+host+"/p", privacy.ModePartial, 0)

			if len(host) <= 6 {
				if got != "https://***" {
					t.Fatalf("short host should be fully redacted but got %q", got)
				}
				return
			}

			middle := host[3 : len(host)-3]
			for l := 4; l <= len(middle); l++ {
				for i := 0; i+l <= len(middle); i++ {
					if strings.Contains(got, middle[i:i+l]) {
						t.Fatalf("masked %q leaks %q of host middle", got, middle[i:i+l])
					}
				}
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	if privacy.ModeNone.String() != "none" {
		t.Errorf("unexpected name: %s", privacy.ModeNone)
	}
	if privacy.ModePartial.String() != "partial" {
		t.Errorf("unexpected name: %s", privacy.ModePartial)
	}
	if privacy.ModeFull.String() != "full" {
		t.Errorf("unexpected name: %s", privacy.ModeFull)
	}
}
