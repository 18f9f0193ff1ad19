// Package status serves the daemon's small self-status surface over
// plain HTTP, so that a pingsvc instance can itself be the target of a
// sibling keep-alive pinger.
//
// The surface never exposes probe outcomes or latencies; targets are
// rendered through the configured privacy mask.
package status

import (
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/kamilcollu/universal-http-ping-service/internal/meta"
	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
)

// Source is what the daemon exposes to this package.
// The values behind it must be safe for concurrent reads.
type Source interface {
	// Targets returns the validated target list in configuration order.
	Targets() []string

	// Schedule returns the cadence expression in effect.
	Schedule() string

	// CyclesCompleted returns how many cycles have finished so far.
	CyclesCompleted() uint64

	// StartedAt returns when the daemon started.
	StartedAt() time.Time

	// LastTick returns when the last cycle started, or the zero time if
	// none has yet.
	LastTick() time.Time
}

// New builds the handler. Targets render through mode everywhere.
func New(s Source, mode privacy.Mode) http.Handler {
	m := http.NewServeMux()

	m.HandleFunc("/healthz", HealthzEndpoint())

	m.Handle("/targets", http.RedirectHandler("/targets.txt", http.StatusMovedPermanently))
	m.HandleFunc("/targets.txt", TargetsTextEndpoint(s, mode))
	m.HandleFunc("/targets.json", TargetsJSONEndpoint(s, mode))

	m.Handle("/status", http.RedirectHandler("/status.txt", http.StatusMovedPermanently))
	m.HandleFunc("/status.txt", StatusTextEndpoint(s))

	m.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return gziphandler.GzipHandler(m)
}

// HealthzEndpoint is the http.HandlerFunc for the /healthz page.
// The daemon is healthy as long as it can answer at all, so the reply is
// unconditional.
func HealthzEndpoint() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		fmt.Fprintln(w, "ok")
	}
}

func maskedTargets(s Source, mode privacy.Mode) []string {
	targets := s.Targets()

	masked := make([]string, len(targets))
	for i, t := range targets {
		masked[i] = privacy.Mask(t, mode, i)
	}
	return masked
}

// TargetsTextEndpoint replies the masked target list, one per line.
func TargetsTextEndpoint(s Source, mode privacy.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")

		for _, t := range maskedTargets(s, mode) {
			fmt.Fprintln(w, t)
		}
	}
}

// TargetsJSONEndpoint replies the masked target list as a JSON array.
func TargetsJSONEndpoint(s Source, mode privacy.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)
		enc.EncodeContext(r.Context(), maskedTargets(s, mode))
	}
}

var statusTextTemplate = template.Must(template.New("status.txt").Parse(
	`pingsvc {{.Version}} ({{.Commit}})

schedule:  {{.Schedule}}
targets:   {{.TargetCount}}
cycles:    {{.Cycles}}
started:   {{.Started}}
last tick: {{.LastTick}}
`))

// StatusTextEndpoint replies a short plain text instance summary.
func StatusTextEndpoint(s Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")

		lastTick := "never"
		if t := s.LastTick(); !t.IsZero() {
			lastTick = humanize.Time(t)
		}

		statusTextTemplate.Execute(w, map[string]any{
			"Version":     meta.Version,
			"Commit":      meta.Commit,
			"Schedule":    s.Schedule(),
			"TargetCount": len(s.Targets()),
			"Cycles":      s.CyclesCompleted(),
			"Started":     humanize.Time(s.StartedAt()),
			"LastTick":    lastTick,
		})
	}
}
