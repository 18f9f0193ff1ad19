package report

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
)

type jsonOutcome struct {
	Type       string  `json:"type,omitempty"`
	Time       string  `json:"time"`
	Display    string  `json:"target"`
	Succeeded  bool    `json:"succeeded"`
	StatusCode int     `json:"status_code,omitempty"`
	LatencyMS  float64 `json:"latency_ms"`
	Reason     string  `json:"reason,omitempty"`
}

type jsonSummary struct {
	Type             string        `json:"type"`
	ID               string        `json:"id"`
	StartedAt        string        `json:"started_at"`
	TookMS           float64       `json:"took_ms"`
	SuccessCount     int           `json:"success_count"`
	FailureCount     int           `json:"failure_count"`
	AverageLatencyMS float64       `json:"average_latency_ms"`
	Outcomes         []jsonOutcome `json:"outcomes"`
}

func outcomeObject(o probe.Outcome) jsonOutcome {
	return jsonOutcome{
		Type:       "outcome",
		Time:       o.Time.Format(time.RFC3339),
		Display:    o.Display,
		Succeeded:  o.Succeeded,
		StatusCode: o.StatusCode,
		LatencyMS:  millis(o.Latency),
		Reason:     o.Reason,
	}
}

func summaryObject(rep cycle.Report) jsonSummary {
	outcomes := make([]jsonOutcome, len(rep.Outcomes))
	for i, o := range rep.Outcomes {
		outcomes[i] = outcomeObject(o)
		outcomes[i].Type = ""
	}

	return jsonSummary{
		Type:             "summary",
		ID:               rep.ID,
		StartedAt:        rep.StartedAt.Format(time.RFC3339),
		TookMS:           millis(rep.Took),
		SuccessCount:     rep.SuccessCount,
		FailureCount:     rep.FailureCount,
		AverageLatencyMS: millis(rep.AverageLatency),
		Outcomes:         outcomes,
	}
}

// JSONReporter writes one JSON object per line: one per outcome as it is
// determined, then one summary per cycle.
type JSONReporter struct {
	enc *json.Encoder
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// ReportOutcome implements cycle.Reporter.
func (r *JSONReporter) ReportOutcome(o probe.Outcome) {
	r.enc.Encode(outcomeObject(o))
}

// ReportSummary implements cycle.Reporter.
// The summary object embeds the cycle's outcomes so one line carries the
// whole cycle for consumers that only read summaries.
func (r *JSONReporter) ReportSummary(rep cycle.Report) {
	r.enc.Encode(summaryObject(rep))
}

// ReportValue converts a cycle report into plain maps and slices, the
// shape jq style queries operate on.
func ReportValue(rep cycle.Report) (any, error) {
	raw, err := json.Marshal(summaryObject(rep))
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
