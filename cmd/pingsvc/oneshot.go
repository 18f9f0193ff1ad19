package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/itchyny/gojq"
	"go.uber.org/zap"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
	"github.com/kamilcollu/universal-http-ping-service/internal/report"
)

// RunOneshot runs exactly one cycle and exits 0 only if every target
// succeeded.
func (cmd *PingCommand) RunOneshot(ctx context.Context, logger *zap.Logger, targets []string) (exitCode int) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reporter cycle.Reporter
	if cmd.Query != "" {
		// The query consumes the final report; streaming would pollute it.
		reporter = cycle.NopReporter{}
	} else {
		reporter = report.New(cmd.OutStream, cmd.JSONLines)
	}

	runner := &cycle.Runner{
		Prober:   probe.New(cmd.Config.Timeout.Duration()),
		Privacy:  cmd.Config.Privacy,
		Delay:    cmd.Config.Delay.Duration(),
		Reporter: reporter,
	}

	rep := runner.Run(ctx, targets)

	if cmd.Query != "" {
		if err := cmd.printQuery(rep); err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
			return 1
		}
	}

	logger.Debug("cycle finished",
		zap.String("id", rep.ID),
		zap.Int("success", rep.SuccessCount),
		zap.Int("failure", rep.FailureCount),
	)

	if rep.FailureCount > 0 {
		return 1
	}
	return 0
}

// printQuery applies the jq query to the final cycle report and prints
// each result on its own line.
func (cmd *PingCommand) printQuery(rep cycle.Report) error {
	q, err := gojq.Parse(cmd.Query)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	value, err := report.ReportValue(rep)
	if err != nil {
		return fmt.Errorf("failed to prepare report: %w", err)
	}

	enc := json.NewEncoder(cmd.OutStream)

	iter := q.Run(value)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("query failed: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}

	return nil
}
