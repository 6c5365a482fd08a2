package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/eqasmc/internal/compiler"
	"github.com/specialistvlad/eqasmc/internal/ctxlog"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/report"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/snapshot"
	"github.com/specialistvlad/eqasmc/internal/target"
)

// Run compiles the configured program. Nothing is written unless the whole
// program compiled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	cfg := a.config
	a.logger.Debug("App.Run method started.", "program", cfg.ProgramPath, "platform", cfg.PlatformPath)

	res, err := a.compile(ctx)
	if err != nil {
		if kind := qerr.Kind(err); kind != nil {
			a.logger.Debug("Compilation rejected.", "kind", kind.Error(), "error", err)
		}
		return err
	}

	if err := a.writeOutput(res.Text); err != nil {
		return err
	}
	if cfg.ScheduleOut != "" {
		if err := writeSnapshot(cfg.ScheduleOut, res); err != nil {
			return fmt.Errorf("writing schedule snapshot: %w", err)
		}
		a.logger.Debug("Schedule snapshot written.", "path", cfg.ScheduleOut)
	}
	if cfg.Report {
		if err := report.Write(a.outW, res); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) compile(ctx context.Context) (*compiler.Result, error) {
	cfg := a.config
	policy, err := scheduler.ParsePolicy(cfg.Scheduler)
	if err != nil {
		return nil, err
	}

	pcfg, err := a.loader.LoadPlatform(ctx, cfg.PlatformPath)
	if err != nil {
		return nil, err
	}
	m, err := platform.New(pcfg)
	if err != nil {
		return nil, err
	}
	prog, err := a.loader.LoadProgram(ctx, cfg.ProgramPath)
	if err != nil {
		return nil, err
	}

	settings, err := target.Resolve(m, cfg.Target)
	if err != nil {
		return nil, err
	}
	kernels, err := compiler.BuildKernels(prog, m, settings.ClassicalCycles)
	if err != nil {
		return nil, err
	}
	tgt, err := NewTarget(cfg.Target, m)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(ctx, kernels, m, tgt, compiler.Options{Policy: policy, Workers: cfg.WorkerCount})
}

func (a *App) writeOutput(text string) error {
	if a.config.OutputPath == "" {
		_, err := io.WriteString(a.outW, text)
		return err
	}
	if err := os.WriteFile(a.config.OutputPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	a.logger.Info("Program written.", "path", a.config.OutputPath, "bytes", len(text))
	return nil
}

func writeSnapshot(path string, res *compiler.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
