// Package cycle runs one sequential ping cycle over the configured
// targets and aggregates the outcomes.
package cycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
)

// Prober is the consumer-side interface the Runner drives.
// *probe.Prober satisfies it; tests substitute their own.
type Prober interface {
	Probe(ctx context.Context, target string) probe.Outcome
}

// Reporter receives outcomes as they are determined, and the aggregate
// once per cycle. The Runner retains nothing after ReportSummary returns.
type Reporter interface {
	ReportOutcome(probe.Outcome)
	ReportSummary(Report)
}

// NopReporter is a Reporter that discards everything.
type NopReporter struct{}

func (NopReporter) ReportOutcome(probe.Outcome) {}
func (NopReporter) ReportSummary(Report)        {}

// Report is the aggregate over one full pass of all targets.
type Report struct {
	// ID identifies the cycle in logs.
	ID string

	StartedAt time.Time
	Took      time.Duration

	// Outcomes are in target configuration order, always.
	Outcomes []probe.Outcome

	SuccessCount int
	FailureCount int

	// AverageLatency is the mean latency over all outcomes, failed ones
	// included. It is 0 for an empty cycle.
	AverageLatency time.Duration
}

// Runner drives the Prober over a target list, one target at a time.
type Runner struct {
	Prober Prober

	// Privacy is the mode applied to every outcome's display string.
	Privacy privacy.Mode

	// Delay is the pause between requests. It also runs after the last
	// target, spacing the end of one cycle from the start of the next.
	Delay time.Duration

	Reporter Reporter
}

// Run executes one cycle and returns its report.
//
// A failed probe never stops the pass; every target is probed in order.
// The inter-request delay honors ctx so shutdown does not hang a cycle,
// and a complete report is returned even then.
func (r *Runner) Run(ctx context.Context, targets []string) Report {
	rep := Report{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Outcomes:  make([]probe.Outcome, 0, len(targets)),
	}

	reporter := r.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	for i, target := range targets {
		o := r.Prober.Probe(ctx, target)
		o.Display = privacy.Mask(target, r.Privacy, i)

		rep.Outcomes = append(rep.Outcomes, o)
		reporter.ReportOutcome(o)

		if o.Succeeded {
			rep.SuccessCount++
		} else {
			rep.FailureCount++
		}

		if r.Delay > 0 {
			sleepContext(ctx, r.Delay)
		}
	}

	if len(rep.Outcomes) > 0 {
		var total time.Duration
		for _, o := range rep.Outcomes {
			total += o.Latency
		}
		rep.AverageLatency = total / time.Duration(len(rep.Outcomes))
	}

	rep.Took = time.Since(rep.StartedAt)

	reporter.ReportSummary(rep)

	return rep
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
