package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
)

// TextReporter writes one line per outcome and one summary line per
// cycle. On a terminal the status column is decorated; on a pipe it is
// a plain word so the stream stays grep friendly.
type TextReporter struct {
	w        io.Writer
	decorate bool
}

func NewTextReporter(w io.Writer) *TextReporter {
	decorate := false
	if f, ok := w.(*os.File); ok {
		decorate = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return &TextReporter{
		w:        w,
		decorate: decorate,
	}
}

func (r *TextReporter) marker(succeeded bool) string {
	if r.decorate {
		if succeeded {
			return "✅"
		}
		return "❌"
	}
	if succeeded {
		return "OK  "
	}
	return "FAIL"
}

// ReportOutcome implements cycle.Reporter.
func (r *TextReporter) ReportOutcome(o probe.Outcome) {
	status := "---"
	if o.StatusCode != 0 {
		status = fmt.Sprintf("%d", o.StatusCode)
	}

	line := fmt.Sprintf(
		"%s\t%s\t%s\t%.3fms\t%s",
		o.Time.Format(time.RFC3339),
		r.marker(o.Succeeded),
		status,
		millis(o.Latency),
		o.Display,
	)
	if o.Reason != "" {
		line += "\t" + o.Reason
	}

	fmt.Fprintln(r.w, line)
}

// ReportSummary implements cycle.Reporter.
func (r *TextReporter) ReportSummary(rep cycle.Report) {
	fmt.Fprintf(
		r.w,
		"cycle %s: %d succeeded, %d failed, average latency %.3fms, took %.3fms\n",
		rep.ID,
		rep.SuccessCount,
		rep.FailureCount,
		millis(rep.AverageLatency),
		millis(rep.Took),
	)
}
