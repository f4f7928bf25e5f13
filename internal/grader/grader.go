package grader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/codelab-edu/grader/internal/comparator"
	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/internal/sandbox"
	"github.com/codelab-edu/grader/internal/scorer"
	"github.com/codelab-edu/grader/pkg/constants"
	customErr "github.com/codelab-edu/grader/pkg/errors"
	"github.com/codelab-edu/grader/pkg/grading"
)

// Options bound the engine's worker pool and per-test-case limits.
type Options struct {
	MaxWorkers int
	QueueWait  time.Duration
	Limits     sandbox.Limits
}

// PoolStatus is a snapshot of worker pool occupancy for the status endpoint.
type PoolStatus struct {
	MaxWorkers int   `json:"max_workers"`
	Busy       int64 `json:"busy"`
}

// Engine grades one submission at a time per call: it syntax-checks the code
// once, fans the test cases out across a size-bounded worker pool, and
// assembles the ordered summary. The pool is shared across concurrent
// requests; a request that cannot get a slot within QueueWait at admission
// fails fast with ErrEngineBusy instead of queueing unboundedly. Once
// admitted, a request's own test cases queue on the pool freely: backpressure
// rejects new work, never work already accepted.
type Engine struct {
	sandbox    sandbox.Sandbox
	cmp        *comparator.Comparator
	sem        *semaphore.Weighted
	maxWorkers int
	queueWait  time.Duration
	limits     sandbox.Limits
	busy       atomic.Int64
	logger     *zap.SugaredLogger
}

func NewEngine(sb sandbox.Sandbox, opts Options) *Engine {
	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = constants.DefaultMaxWorkers
	}
	if opts.QueueWait <= 0 {
		opts.QueueWait = constants.DefaultQueueWaitMs * time.Millisecond
	}
	if opts.Limits.Timeout <= 0 {
		opts.Limits.Timeout = constants.DefaultTestTimeoutMs * time.Millisecond
	}
	if opts.Limits.MemoryMB <= 0 {
		opts.Limits.MemoryMB = constants.DefaultMemoryLimitMB
	}
	if opts.Limits.MaxOutputKB <= 0 {
		opts.Limits.MaxOutputKB = constants.DefaultMaxOutputKB
	}
	return &Engine{
		sandbox:    sb,
		cmp:        comparator.NewComparator(),
		sem:        semaphore.NewWeighted(int64(maxWorkers)),
		maxWorkers: maxWorkers,
		queueWait:  opts.QueueWait,
		limits:     opts.Limits,
		logger:     logger.NewNamedLogger("grader"),
	}
}

// Grade runs the full pipeline for one validated submission.
//
// The returned error is reserved for engine failures (sandbox infrastructure
// down, pool saturated, request cancelled); everything the student's code did
// wrong lands inside the Summary.
func (e *Engine) Grade(ctx context.Context, sub *grading.Submission) (*grading.Summary, error) {
	results := make([]grading.TestResult, len(sub.TestCases))

	if len(sub.TestCases) == 0 {
		return e.assemble(results), nil
	}

	if err := e.admit(ctx); err != nil {
		return nil, err
	}

	if err := e.sandbox.Check(ctx, sub.Code); err != nil {
		var compileErr *sandbox.CompileError
		if errors.As(err, &compileErr) {
			// The submission is known broken: report every test case failed
			// with the identical error, without touching the pool.
			for i, tc := range sub.TestCases {
				results[i] = grading.TestResult{
					Expected: tc.ExpectedOutput,
					Error:    compileErr.Error(),
					Input:    tc.Input,
				}
			}
			return e.assemble(results), nil
		}
		return nil, err
	}

	program := sandbox.Program{Source: sub.Code}

	g, gctx := errgroup.WithContext(ctx)
	for i, tc := range sub.TestCases {
		i, tc := i, tc
		g.Go(func() error {
			// The request was already admitted; its test cases queue on the
			// pool without a deadline, so a slow sibling case never turns
			// into a busy rejection. Each held slot is bounded by the
			// execution timeout.
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return gctx.Err()
			}
			defer e.sem.Release(1)

			e.busy.Add(1)
			defer e.busy.Add(-1)

			res, err := e.runTestCase(gctx, program, tc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return e.assemble(results), nil
}

// admit decides whether the pool has room for another request. It waits at
// most queueWait for a free slot and releases it immediately: admission is a
// load probe, not a reservation, so a request with more test cases than
// workers is still graded in full.
func (e *Engine) admit(ctx context.Context) error {
	admitCtx, cancel := context.WithTimeout(ctx, e.queueWait)
	defer cancel()

	if err := e.sem.Acquire(admitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return customErr.ErrEngineBusy
	}
	e.sem.Release(1)
	return nil
}

// runTestCase executes one test case and judges the outcome. Failures of the
// student code are folded into the TestResult; only infrastructure failures
// surface as errors.
func (e *Engine) runTestCase(ctx context.Context, program sandbox.Program, tc grading.TestCase) (grading.TestResult, error) {
	res := grading.TestResult{
		Expected: tc.ExpectedOutput,
		Input:    tc.Input,
	}

	out, err := e.sandbox.Execute(ctx, program, tc.Input, e.limits)
	if err != nil {
		return res, err
	}

	switch {
	case out.TimedOut:
		res.Error = fmt.Sprintf(constants.TestMessageTimeout, e.limits.Timeout.Milliseconds())
	case out.ResourceExceeded:
		res.Error = fmt.Sprintf(constants.TestMessageMemoryExceeded, e.limits.MemoryMB)
	case out.Error != "":
		res.Error = out.Error
	default:
		res.Actual = out.Value
		res.Passed = e.cmp.Matches(out.Value, tc.ExpectedOutput)
	}
	return res, nil
}

func (e *Engine) assemble(results []grading.TestResult) *grading.Summary {
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return &grading.Summary{
		Results:     results,
		TotalTests:  len(results),
		PassedTests: passed,
		Score:       scorer.Score(passed, len(results)),
	}
}

// Status reports pool occupancy. It never blocks, so the status endpoint
// stays responsive while the pool is saturated.
func (e *Engine) Status() PoolStatus {
	return PoolStatus{
		MaxWorkers: e.maxWorkers,
		Busy:       e.busy.Load(),
	}
}
