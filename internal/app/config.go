package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/eqasmc/internal/scheduler"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProgramPath  string
	PlatformPath string
	Target       string
	Scheduler    string

	// OutputPath receives the program text; empty means the app's writer.
	OutputPath string
	// ScheduleOut, when set, receives an HCL snapshot of the schedule.
	ScheduleOut string
	Report      bool
	WorkerCount int

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProgramPath == "" {
		return nil, errors.New("ProgramPath is a required configuration field and cannot be empty")
	}
	if cfg.PlatformPath == "" {
		return nil, errors.New("PlatformPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	if _, ok := coreTargets[cfg.Target]; !ok {
		return nil, fmt.Errorf("unknown target '%s', expected one of %v", cfg.Target, TargetNames())
	}
	if _, err := scheduler.ParsePolicy(cfg.Scheduler); err != nil {
		return nil, err
	}
	return &cfg, nil
}
