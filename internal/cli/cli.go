package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/eqasmc/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("eqasmc", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
eqasmc - compiles quantum kernels into eQASM for a configured platform.

Usage:
  eqasmc [options] PROGRAM

Arguments:
  PROGRAM
    Path to the .hcl file holding the program block.

Targets: %s

Options:
`, strings.Join(app.TargetNames(), ", "))
		flagSet.PrintDefaults()
	}

	platformFlag := flagSet.String("platform", "", "Path to the platform .hcl file.")
	pFlag := flagSet.String("p", "", "Path to the platform .hcl file (shorthand).")
	targetFlag := flagSet.String("target", "cc_light", "Backend to emit for.")
	schedulerFlag := flagSet.String("scheduler", "asap", "Scheduling policy. Options: 'asap', 'alap', 'rc'.")
	outputFlag := flagSet.String("output", "", "Write the program to this file instead of stdout.")
	oFlag := flagSet.String("o", "", "Write the program to this file (shorthand).")
	scheduleFlag := flagSet.String("schedule-out", "", "Write an HCL snapshot of the schedule to this file.")
	workersFlag := flagSet.Int("workers", 4, "Number of kernels scheduled concurrently.")
	reportFlag := flagSet.Bool("report", false, "Print a per-kernel summary table.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No program provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "exactly one program file expected"}
	}

	platform := firstSet(*platformFlag, *pFlag)
	if platform == "" {
		return nil, false, &ExitError{Code: 2, Message: "a platform file is required (--platform)"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		ProgramPath:  flagSet.Arg(0),
		PlatformPath: platform,
		Target:       strings.ToLower(*targetFlag),
		Scheduler:    strings.ToLower(*schedulerFlag),
		OutputPath:   firstSet(*outputFlag, *oFlag),
		ScheduleOut:  *scheduleFlag,
		Report:       *reportFlag,
		WorkerCount:  *workersFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
