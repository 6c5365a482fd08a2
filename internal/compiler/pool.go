package compiler

import (
	"context"
	"sync"

	"github.com/specialistvlad/eqasmc/internal/ctxlog"
	"github.com/specialistvlad/eqasmc/internal/ir"
	"github.com/specialistvlad/eqasmc/internal/platform"
	"github.com/specialistvlad/eqasmc/internal/scheduler"
	"github.com/specialistvlad/eqasmc/internal/target"
)

type prepared struct {
	result KernelResult
	err    error
}

// pool hands kernel indices to workers. Once a kernel failed, kernels after
// it are skipped; the ones before it still run so the first error in
// program order is the one reported.
type pool struct {
	mu     sync.Mutex
	failed int
}

func (p *pool) skip(i int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return i > p.failed
}

func (p *pool) fail(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = min(p.failed, i)
}

func prepareAll(ctx context.Context, kernels []*ir.Kernel, m *platform.Model, tgt target.Target, sched scheduler.Scheduler, workers int) []prepared {
	out := make([]prepared, len(kernels))
	workers = max(1, min(workers, len(kernels)))
	p := &pool{failed: len(kernels)}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := ctxlog.With(ctx, "workerID", id)
			logger := ctxlog.FromContext(ctx)
			logger.Debug("Worker started.")
			for i := range jobs {
				if p.skip(i) {
					continue
				}
				if err := ctx.Err(); err != nil {
					out[i].err = err
					p.fail(i)
					continue
				}
				res, err := prepareKernel(ctx, kernels[i], m, tgt, sched)
				out[i] = prepared{result: res, err: err}
				if err != nil {
					logger.Debug("Kernel failed.", "kernel", kernels[i].Name, "error", err)
					p.fail(i)
				}
			}
		}()
	}
	for i := range kernels {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
