// Package compiler drives a program through the backend pipeline: lower,
// build the dependency graph, schedule, bundle, merge and emit. Kernels are
// scheduled in parallel and emitted in program order.
//
// Any error aborts the whole compilation. Compile returns either the
// complete program text or nothing.
package compiler

import (
	"context"

	"github.com/specialistvlad/eqasmc/internal/bundle"
	"github.com/specialistvlad/eqasmc/internal/ctxlog"
	"github.com/specialistvlad/eqasmc/internal/depgraph"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/qerr"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/target"
)

// KernelResult describes how one kernel was scheduled.
type KernelResult struct {
	Name         string
	Instructions int
	Schedule     *ir.ScheduledCircuit
	// Bundles are the merged bundles that were emitted.
	Bundles []bundle.Bundle
}

// Cycles is the length of the kernel's schedule.
func (k KernelResult) Cycles() int {
	if k.Schedule == nil {
		return 0
	}
	return k.Schedule.Length
}

// Result is a compiled program.
type Result struct {
	Program string
	Target  string
	Policy  scheduler.Policy
	Text    string
	Kernels []KernelResult
}

// Options tunes a compilation.
type Options struct {
	Policy scheduler.Policy
	// Workers is the number of kernels scheduled at once; below one means one.
	Workers int
}

// Compile schedules and emits every kernel of prog for tgt. tgt must be a
// fresh instance; it accumulates the program's state.
//
// Kernels are scheduled by a pool of workers and emitted one by one in
// program order, so the output and the reported error do not depend on
// opts.Workers.
func Compile(ctx context.Context, prog *ir.Program, m *platform.Model, tgt target.Target, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	sched, err := scheduler.New(opts.Policy, m)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prepared := prepareAll(ctx, prog.Kernels, m, tgt, sched, opts.Workers)

	res := &Result{Program: prog.Name, Target: tgt.Name(), Policy: opts.Policy}
	for i, k := range prog.Kernels {
		p := prepared[i]
		if p.err != nil {
			return nil, qerr.InKernel(p.err, k.Name)
		}
		if err := tgt.EmitKernel(k, p.result.Bundles); err != nil {
			return nil, qerr.InKernel(err, k.Name)
		}
		res.Kernels = append(res.Kernels, p.result)
	}

	text, err := tgt.Program(prog.Name)
	if err != nil {
		return nil, err
	}
	res.Text = text
	logger.Info("Program compiled.", "program", prog.Name, "target", tgt.Name(), "scheduler", string(opts.Policy), "kernels", len(res.Kernels))
	return res, nil
}

// prepareKernel runs everything up to emission: lower, build the graph,
// schedule, bundle, finalize and merge.
func prepareKernel(ctx context.Context, k *ir.Kernel, m *platform.Model, tgt target.Target, sched scheduler.Scheduler) (KernelResult, error) {
	ctx = ctxlog.With(ctx, "kernel", k.Name)
	logger := ctxlog.FromContext(ctx)

	if err := tgt.Lower(k); err != nil {
		return KernelResult{}, err
	}
	g, err := depgraph.Build(k.Circuit, m)
	if err != nil {
		return KernelResult{}, err
	}
	logger.Debug("Dependency graph built.", "nodes", g.Len(), "edges", len(g.Edges()))

	sc, err := sched.Schedule(g)
	if err != nil {
		return KernelResult{}, err
	}
	if err := k.Circuit.Annotate(sc); err != nil {
		return KernelResult{}, err
	}

	bundles, err := tgt.Finalize(k, bundle.Build(sc))
	if err != nil {
		return KernelResult{}, err
	}
	bundles, err = bundle.Merge(bundles, m)
	if err != nil {
		return KernelResult{}, err
	}
	logger.Debug("Kernel scheduled.", "instructions", k.Circuit.Len(), "bundles", len(bundles), "cycles", sc.Length)

	return KernelResult{
		Name:         k.Name,
		Instructions: k.Circuit.Len(),
		Schedule:     sc,
		Bundles:      bundles,
	}, nil
}
