package cycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
)

// fakeProber classifies targets by a fixed table and records call order.
type fakeProber struct {
	Outcomes map[string]probe.Outcome
	Calls    []string
}

func (p *fakeProber) Probe(_ context.Context, target string) probe.Outcome {
	p.Calls = append(p.Calls, target)

	o, ok := p.Outcomes[target]
	if !ok {
		o = probe.Outcome{Succeeded: false, Reason: "no such fixture"}
	}
	o.Target = target
	return o
}

type recordReporter struct {
	Outcomes  []probe.Outcome
	Summaries []cycle.Report
}

func (r *recordReporter) ReportOutcome(o probe.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *recordReporter) ReportSummary(rep cycle.Report) {
	r.Summaries = append(r.Summaries, rep)
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	prober := &fakeProber{Outcomes: map[string]probe.Outcome{
		"https://ok.example.com":       {Succeeded: true, StatusCode: 200, Latency: 10 * time.Millisecond},
		"https://notfound.example.com": {Succeeded: false, StatusCode: 404, Latency: 20 * time.Millisecond},
		"https://dead.example.com":     {Succeeded: false, Reason: "Request timeout", Latency: 60 * time.Millisecond},
	}}

	targets := []string{
		"https://ok.example.com",
		"https://notfound.example.com",
		"https://dead.example.com",
	}

	reporter := &recordReporter{}
	runner := &cycle.Runner{Prober: prober, Reporter: reporter}

	rep := runner.Run(context.Background(), targets)

	if diff := cmp.Diff(targets, prober.Calls); diff != "" {
		t.Errorf("probes did not run in configuration order:\n%s", diff)
	}

	if len(rep.Outcomes) != len(targets) {
		t.Fatalf("expected %d outcomes but got %d", len(targets), len(rep.Outcomes))
	}
	for i, target := range targets {
		if rep.Outcomes[i].Target != target {
			t.Errorf("outcome %d should be for %s but was for %s", i, target, rep.Outcomes[i].Target)
		}
	}

	if rep.SuccessCount != 1 || rep.FailureCount != 2 {
		t.Errorf("expected counts 1/2 but got %d/%d", rep.SuccessCount, rep.FailureCount)
	}
	if rep.SuccessCount+rep.FailureCount != len(rep.Outcomes) {
		t.Error("success and failure counts should partition the outcomes")
	}

	if expect := 30 * time.Millisecond; rep.AverageLatency != expect {
		t.Errorf("expected average latency %s but got %s", expect, rep.AverageLatency)
	}

	if rep.ID == "" {
		t.Error("report should have an ID")
	}

	if len(reporter.Outcomes) != len(targets) {
		t.Errorf("reporter should receive every outcome but got %d", len(reporter.Outcomes))
	}
	if len(reporter.Summaries) != 1 {
		t.Fatalf("reporter should receive exactly one summary but got %d", len(reporter.Summaries))
	}
	if diff := cmp.Diff(rep, reporter.Summaries[0]); diff != "" {
		t.Errorf("reported summary differs from the returned report:\n%s", diff)
	}
}

func TestRunner_Run_empty(t *testing.T) {
	t.Parallel()

	runner := &cycle.Runner{Prober: &fakeProber{}}

	rep := runner.Run(context.Background(), nil)

	if len(rep.Outcomes) != 0 {
		t.Errorf("expected no outcomes but got %d", len(rep.Outcomes))
	}
	if rep.AverageLatency != 0 {
		t.Errorf("average latency of an empty cycle should be 0 but got %s", rep.AverageLatency)
	}
	if rep.SuccessCount != 0 || rep.FailureCount != 0 {
		t.Errorf("expected counts 0/0 but got %d/%d", rep.SuccessCount, rep.FailureCount)
	}
}

func TestRunner_Run_display(t *testing.T) {
	t.Parallel()

	targets := []string{
		"https://secret-alpha.example.com/a",
		"https://secret-beta.example.com/b",
	}

	prober := &fakeProber{Outcomes: map[string]probe.Outcome{}}
	runner := &cycle.Runner{Prober: prober, Privacy: privacy.ModeFull}

	rep := runner.Run(context.Background(), targets)

	expect := []string{"Endpoint 1", "Endpoint 2"}
	for i, o := range rep.Outcomes {
		if o.Display != expect[i] {
			t.Errorf("expected display %q but got %q", expect[i], o.Display)
		}
	}
}

func TestRunner_Run_delay(t *testing.T) {
	t.Parallel()

	targets := []string{"https://a.example.com", "https://b.example.com"}

	delay := 50 * time.Millisecond
	runner := &cycle.Runner{
		Prober: &fakeProber{Outcomes: map[string]probe.Outcome{}},
		Delay:  delay,
	}

	st := time.Now()
	runner.Run(context.Background(), targets)
	took := time.Since(st)

	// The delay runs after every target, the last one included.
	if expect := 2 * delay; took < expect {
		t.Errorf("cycle should take at least %s but took %s", expect, took)
	}
}

func TestRunner_Run_delayCancel(t *testing.T) {
	t.Parallel()

	targets := []string{"https://a.example.com", "https://b.example.com"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &cycle.Runner{
		Prober: &fakeProber{Outcomes: map[string]probe.Outcome{}},
		Delay:  time.Hour,
	}

	done := make(chan cycle.Report)
	go func() {
		done <- runner.Run(ctx, targets)
	}()

	select {
	case rep := <-done:
		if len(rep.Outcomes) != len(targets) {
			t.Errorf("a cancelled cycle should still report every target but got %d outcomes", len(rep.Outcomes))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled delay should not hang the cycle")
	}
}
