package workflow

import (
	"context"
	"runtime"
	"sync"

	"github.com/lucianlature/cero/chain"
	"github.com/lucianlature/cero/config"
	"github.com/lucianlature/cero/flowcontext"
	"github.com/lucianlature/cero/result"
	"github.com/lucianlature/cero/task"
)

// mergeFromContext binds raw step attributes over whatever the shared
// Context already holds for the same attribute names: a step doesn't have
// to re-specify every value an earlier step already produced, only the
// ones it wants to override.
func mergeFromContext(d *task.Descriptor, raw map[string]any, ctx *flowcontext.Context) map[string]any {
	merged := make(map[string]any, len(d.Attributes())+len(raw))
	for _, attr := range d.Attributes() {
		if v, ok := ctx.Get(attr.Name); ok {
			merged[attr.Name] = v
		}
	}
	for k, v := range raw {
		merged[k] = v
	}
	return merged
}

// handleRecord remembers the Handle and Instance a task ran with, so a
// later rollback pass can invoke Handle.Rollback with the same state Work
// saw.
type handleRecord struct {
	descriptor *task.Descriptor
	handle     task.Handle
	instance   *task.Instance
}

// Runner executes a Step tree against a single Chain, tracking enough state
// to roll the chain back if a later step's policy demands it.
type Runner struct {
	c       *chain.Chain
	handles map[string]handleRecord
	index   int
	halted  bool
}

// Run builds a fresh Chain and executes steps against it top to bottom,
// applying breakpoint and rollback policy from config.Default() after every
// task. It returns the Chain (populated regardless of outcome, for
// inspection) and an error that is nil on every current path: task
// failures are recorded as Results, and a failing rollback hook is reported
// to the configured exception handler rather than returned.
func Run(ctx context.Context, steps []Step) (*chain.Chain, error) {
	r := &Runner{c: chain.New(), handles: make(map[string]handleRecord)}
	return r.c, r.runSequential(ctx, steps)
}

func (r *Runner) runSequential(ctx context.Context, steps []Step) error {
	cfg := config.Default()

	for _, step := range steps {
		if r.halted {
			break
		}

		status, err := r.runStep(ctx, step)
		if err != nil {
			return err
		}

		if cfg.IsBreakpoint(status) {
			r.halted = true
			if cfg.ShouldRollback(status) {
				return r.rollbackAll(ctx)
			}
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (result.Status, error) {
	switch s := step.(type) {
	case TaskStep:
		return r.runTask(ctx, s)
	case Group:
		if s.Strategy == Parallel {
			return r.runParallel(ctx, s.Steps)
		}
		if err := r.runSequential(ctx, s.Steps); err != nil {
			return result.StatusFailed, err
		}
		return r.c.AggregateStatus(), nil
	default:
		return result.StatusPending, nil
	}
}

func (r *Runner) runTask(ctx context.Context, s TaskStep) (result.Status, error) {
	idx := r.index
	r.index++

	merged := mergeFromContext(s.Descriptor, s.Raw, r.c.Context())
	res, handle, instance, err := task.Execute(ctx, r.c.ID(), idx, s.Descriptor, merged, r.c.Context())
	if err != nil {
		return result.StatusFailed, err
	}

	r.c.Append(res)
	r.handles[res.TaskID()] = handleRecord{descriptor: s.Descriptor, handle: handle, instance: instance}
	return res.Status(), nil
}

// runParallel runs every step in steps concurrently, bounded by a worker
// pool sized to the smaller of the group size and the available CPUs, and
// preserves both the original declaration order (by index) and the actual
// completion order for rollback.
func (r *Runner) runParallel(ctx context.Context, steps []Step) (result.Status, error) {
	n := len(steps)
	if n == 0 {
		return result.StatusPending, nil
	}

	workers := calculateWorkerCount(n)
	jobs := make(chan int, n)
	declared := make([]*result.Result, n)

	type completion struct {
		index int
		res   *result.Result
	}
	completions := make(chan completion, n)

	baseIndex := r.index
	r.index += n

	var wg sync.WaitGroup
	var mu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ts, ok := steps[i].(TaskStep)
				if !ok {
					// nested groups inside a parallel group run
					// sequentially on their own goroutine slot.
					sub := &Runner{c: r.c, handles: make(map[string]handleRecord), index: baseIndex + i}
					_ = sub.runSequential(ctx, []Step{steps[i]})
					mu.Lock()
					for k, v := range sub.handles {
						r.handles[k] = v
					}
					mu.Unlock()
					continue
				}

				merged := mergeFromContext(ts.Descriptor, ts.Raw, r.c.Context())
				res, handle, instance, err := task.Execute(ctx, r.c.ID(), baseIndex+i, ts.Descriptor, merged, r.c.Context())
				if err != nil {
					continue
				}

				mu.Lock()
				r.handles[res.TaskID()] = handleRecord{descriptor: ts.Descriptor, handle: handle, instance: instance}
				mu.Unlock()

				completions <- completion{index: i, res: res}
			}
		}()
	}

	for i := range steps {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(completions)

	completed := make([]*result.Result, 0, n)
	for c := range completions {
		declared[c.index] = c.res
		completed = append(completed, c.res)
	}

	out := make([]*result.Result, 0, n)
	for _, res := range declared {
		if res != nil {
			out = append(out, res)
		}
	}

	r.c.AppendGroup(out, completed)
	return aggregateStatus(out), nil
}

// calculateWorkerCount bounds a parallel group's concurrency to the number
// of items and the host's available CPUs, so small groups don't spin up
// goroutines nobody needs and large groups don't oversubscribe.
func calculateWorkerCount(items int) int {
	workers := runtime.NumCPU()
	if items < workers {
		workers = items
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// aggregateStatus applies "failed dominates" across a set of Results: any
// failure makes the whole set failed, otherwise any skip makes it skipped,
// otherwise success.
func aggregateStatus(results []*result.Result) result.Status {
	if len(results) == 0 {
		return result.StatusPending
	}
	sawSkipped := false
	for _, res := range results {
		switch res.Status() {
		case result.StatusFailed:
			return result.StatusFailed
		case result.StatusSkipped:
			sawSkipped = true
		}
	}
	if sawSkipped {
		return result.StatusSkipped
	}
	return result.StatusSuccess
}

// rollbackAll undoes every successful task's work, in reverse completion
// order, per the resolved rollback-ordering decision: undo what finished
// last, first. Skipped and failed tasks are not rolled back.
func (r *Runner) rollbackAll(ctx context.Context) error {
	for _, res := range r.c.ReverseCompletionOrder() {
		rec, ok := r.handles[res.TaskID()]
		if !ok || res.RolledBack() || !res.Success() {
			continue
		}
		updated := task.Rollback(ctx, rec.descriptor, rec.handle, rec.instance, res)
		r.c.ReplaceLast(res.TaskID(), updated)
	}
	return nil
}
