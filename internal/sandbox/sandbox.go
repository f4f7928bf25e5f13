package sandbox

import (
	"context"
	"time"
)

// Limits bound one execution. Enforcement is host-side: the deadline kills
// the execution unit, it never waits for natural completion.
type Limits struct {
	Timeout     time.Duration
	MemoryMB    int
	MaxOutputKB int
}

// Program is a submission that already passed the syntax check.
type Program struct {
	Source string
}

// Outcome is owned by exactly one sandbox invocation and never shared
// between test cases.
type Outcome struct {
	Value            string
	HasValue         bool
	Error            string
	TimedOut         bool
	ResourceExceeded bool
	Duration         time.Duration
}

// Sandbox executes one (program, input) pair in a freshly created execution
// context. Contexts are never reused across test cases or submissions:
// student code may mutate module-level state, and a reused context would let
// an earlier test case bias a later one.
type Sandbox interface {
	// Check verifies the submission parses. It runs once per submission,
	// before any test case; a failure is reported as *CompileError.
	Check(ctx context.Context, source string) error

	// Execute runs the program against one input and captures the returned
	// value or the thrown error. Infrastructure failures (as opposed to
	// failures of the student code) are reported via the error return.
	Execute(ctx context.Context, program Program, input string, limits Limits) (Outcome, error)
}

// CompileError reports that a submission failed to parse. Every test case of
// the submission is failed with this same error, without executing any of
// them.
type CompileError struct {
	Output string
}

func (e *CompileError) Error() string {
	return e.Output
}
