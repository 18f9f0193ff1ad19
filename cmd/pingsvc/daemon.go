package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kamilcollu/universal-http-ping-service/internal/cycle"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
	"github.com/kamilcollu/universal-http-ping-service/internal/report"
	"github.com/kamilcollu/universal-http-ping-service/internal/status"
)

// daemonState is the status.Source for the self-status surface.
// Cycle counters are the only values shared across cycles; they carry no
// probe results.
type daemonState struct {
	targets   []string
	schedule  string
	startedAt time.Time

	cycles   atomic.Uint64
	lastTick atomic.Int64
}

func (s *daemonState) Targets() []string       { return s.targets }
func (s *daemonState) Schedule() string        { return s.schedule }
func (s *daemonState) CyclesCompleted() uint64 { return s.cycles.Load() }
func (s *daemonState) StartedAt() time.Time    { return s.startedAt }

func (s *daemonState) LastTick() time.Time {
	nano := s.lastTick.Load()
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}

// cronLogger adapts zap to the cron.Logger interface so the recover and
// skip-if-still-running wrappers report through the same diagnostics
// stream as everything else.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// RunDaemon runs the first cycle immediately, then one per schedule
// tick, until the process is interrupted.
func (cmd *PingCommand) RunDaemon(ctx context.Context, logger *zap.Logger, targets []string) (exitCode int) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state := &daemonState{
		targets:   targets,
		schedule:  cmd.Schedule.String(),
		startedAt: time.Now(),
	}

	runner := &cycle.Runner{
		Prober:   probe.New(cmd.Config.Timeout.Duration()),
		Privacy:  cmd.Config.Privacy,
		Delay:    cmd.Config.Delay.Duration(),
		Reporter: report.New(cmd.OutStream, cmd.JSONLines),
	}

	logger.Info("starting daemon",
		zap.String("schedule", state.schedule),
		zap.Int("targets", len(targets)),
		zap.Int("port", cmd.Config.Port),
	)

	cronLog := cronLogger{logger.Sugar()}

	// SkipIfStillRunning keeps cycles single flight even when a cycle
	// overruns its tick; Recover keeps a panicking cycle from killing
	// the schedule.
	job := cron.NewChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	).Then(cron.FuncJob(func() {
		state.lastTick.Store(time.Now().UnixNano())

		rep := runner.Run(ctx, targets)

		state.cycles.Add(1)
		logger.Debug("cycle finished",
			zap.String("id", rep.ID),
			zap.Int("success", rep.SuccessCount),
			zap.Int("failure", rep.FailureCount),
		)
	}))

	scheduler := cron.New()
	scheduler.Schedule(cmd.Schedule, job)

	wg := &sync.WaitGroup{}

	// the immediate first cycle
	wg.Add(1)
	go func() {
		job.Run()
		wg.Done()
	}()

	scheduler.Start()

	var srv *http.Server
	errCh := make(chan error, 1)
	if cmd.Config.Port > 0 {
		srv = &http.Server{
			Addr:    fmt.Sprintf("0.0.0.0:%d", cmd.Config.Port),
			Handler: status.New(state, cmd.Config.Privacy),
		}
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("self-status listener failed", zap.Error(err))
		exitCode = 1
		stop()
	}

	logger.Info("shutting down")

	<-scheduler.Stop().Done()
	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shut down self-status listener", zap.Error(err))
		}
	}
	wg.Wait()

	return exitCode
}
