package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kamilcollu/universal-http-ping-service/internal/config"
	"github.com/kamilcollu/universal-http-ping-service/internal/meta"
	"github.com/kamilcollu/universal-http-ping-service/internal/pingerr"
	"github.com/kamilcollu/universal-http-ping-service/internal/privacy"
	"github.com/kamilcollu/universal-http-ping-service/internal/probe"
	"github.com/kamilcollu/universal-http-ping-service/internal/schedule"
)

func init() {
	probe.UserAgent = fmt.Sprintf("pingsvc/%s keep-alive ping", meta.Version)
}

// PingCommand holds everything one invocation of pingsvc needs.
type PingCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	// LookupEnv is os.LookupEnv in production; tests substitute a map.
	LookupEnv func(string) (string, bool)

	ConfigPath   string
	Timeout      time.Duration
	Delay        time.Duration
	PrivacyName  string
	ScheduleSpec string
	Port         int
	OneshotMode  bool
	JSONLines    bool
	Query        string
	Debug        bool
	ShowVersion  bool
	ShowHelp     bool

	// Config is the merged, final configuration. Immutable after
	// ParseArgs returns 0.
	Config   config.Config
	Schedule schedule.Schedule
}

var defaultPingCommand = &PingCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
	LookupEnv: os.LookupEnv,
}

//go:embed help.txt
var helpText string

func (cmd *PingCommand) PrintUsage(detail bool) {
	tmpl := template.Must(template.New("help.txt").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Version":     meta.Version,
		"RedirectMax": probe.RedirectMax,
		"Short":       !detail,
	})
}

func (cmd *PingCommand) PrintVersion() {
	fmt.Fprintf(cmd.OutStream, "Pingsvc version %s (%s)\n", meta.Version, meta.Commit)
}

// ParseArgs parses flags and assembles the final configuration from
// defaults, the optional YAML file, the environment, and the flags, in
// that order of precedence.
func (cmd *PingCommand) ParseArgs(args []string) (exitCode int) {
	flags := pflag.NewFlagSet("pingsvc", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to YAML configuration file")
	flags.DurationVarP(&cmd.Timeout, "timeout", "t", 30*time.Second, "Request timeout")
	flags.DurationVarP(&cmd.Delay, "delay", "d", time.Second, "Delay between requests")
	flags.StringVar(&cmd.PrivacyName, "privacy", "none", "Privacy mode for target display")
	flags.StringVarP(&cmd.ScheduleSpec, "schedule", "s", "15m", "Cycle cadence")
	flags.IntVarP(&cmd.Port, "port", "p", 3000, "Self-status listen port")
	flags.BoolVarP(&cmd.OneshotMode, "oneshot", "1", false, "Run one cycle and exit")
	flags.BoolVar(&cmd.JSONLines, "json", false, "Write output as JSON lines")
	flags.StringVarP(&cmd.Query, "query", "q", "", "jq query over the final cycle report")
	flags.BoolVar(&cmd.Debug, "debug", false, "Verbose diagnostics logging")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp {
		return 0
	}

	if cmd.OneshotMode {
		if flags.Changed("port") {
			fmt.Fprintln(cmd.ErrStream, "warning: port option will be ignored in the oneshot mode.")
		}
		if flags.Changed("schedule") {
			fmt.Fprintln(cmd.ErrStream, "warning: schedule option will be ignored in the oneshot mode.")
		}
	} else if flags.Changed("query") {
		fmt.Fprintln(cmd.ErrStream, "warning: query option will be ignored outside the oneshot mode.")
	}

	cfg := config.Default(cmd.OneshotMode)

	if cmd.ConfigPath != "" {
		if err := cfg.LoadFile(cmd.ConfigPath); err != nil {
			fmt.Fprintf(cmd.ErrStream, "invalid configuration: %s\n", err)
			return 2
		}
	}

	lookup := cmd.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.LoadEnv(lookup); err != nil {
		fmt.Fprintf(cmd.ErrStream, "invalid configuration: %s\n", err)
		return 2
	}

	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(cmd.Timeout)
	}
	if flags.Changed("delay") {
		cfg.Delay = config.Duration(cmd.Delay)
	}
	if flags.Changed("privacy") {
		mode, err := privacy.ParseMode(cmd.PrivacyName)
		if err != nil {
			fmt.Fprintf(cmd.ErrStream, "invalid configuration: %s\n", err)
			return 2
		}
		cfg.Privacy = mode
	}
	if flags.Changed("schedule") {
		cfg.Schedule = cmd.ScheduleSpec
	}
	if flags.Changed("port") {
		cfg.Port = cmd.Port
	}

	if targets := flags.Args(); len(targets) > 0 {
		cfg.Targets = targets
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrStream, "invalid configuration: %s\n", err)
		return 2
	}

	sched, err := schedule.Parse(cfg.Schedule)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "invalid configuration: invalid schedule %q: %s\n", cfg.Schedule, err)
		return 2
	}

	if len(cfg.Targets) == 0 {
		cmd.PrintUsage(false)
		return 2
	}

	cmd.Config = cfg
	cmd.Schedule = sched

	return 0
}

func (cmd *PingCommand) buildLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cmd.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	// stdout carries outcomes only; diagnostics stay on stderr.
	zcfg.OutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// Run executes the command and returns the process exit code.
func (cmd *PingCommand) Run(args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	logger, err := cmd.buildLogger()
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to set up logging: %s\n", err)
		return 1
	}
	defer logger.Sync()

	targets, err := probe.ValidTargets(cmd.Config.Targets)
	if err != nil {
		var list pingerr.List
		if errors.As(err, &list) {
			for _, child := range list.Children {
				logger.Warn("dropping invalid target", zap.String("cause", child.Error()))
			}
		} else {
			logger.Warn("dropping invalid targets", zap.Error(err))
		}
	}

	if len(targets) == 0 {
		fmt.Fprintln(cmd.ErrStream, "error: no valid targets configured.")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cmd.OneshotMode {
		return cmd.RunOneshot(ctx, logger, targets)
	}
	return cmd.RunDaemon(ctx, logger, targets)
}

func main() {
	os.Exit(defaultPingCommand.Run(os.Args))
}
