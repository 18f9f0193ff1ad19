// Package report writes probe outcomes and cycle summaries to the
// operator. It is the logging boundary: the cycle runner hands outcomes
// here and retains nothing.
//
// Every writer renders targets through their Display field only, so the
// configured privacy mode holds across all output forms.
package report

import (
	"io"
	"time"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
)

// millis renders a duration as milliseconds with microsecond precision,
// the way latencies appear in every output form.
func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

// New returns the reporter for the chosen output form, writing to w.
func New(w io.Writer, jsonLines bool) cycle.Reporter {
	if jsonLines {
		return NewJSONReporter(w)
	}
	return NewTextReporter(w)
}

var _ = []cycle.Reporter{(*TextReporter)(nil), (*JSONReporter)(nil)}
