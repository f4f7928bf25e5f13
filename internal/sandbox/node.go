package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/pkg/constants"
	customErr "github.com/codelab-edu/grader/pkg/errors"
)

// NodeSandbox executes submissions in a fresh node process per test case.
// The process runs in a throwaway directory with a cleared environment; the
// wall-clock deadline and the V8 heap cap are enforced by the host.
type NodeSandbox struct {
	bin     string
	runRoot string
	logger  *zap.SugaredLogger
}

func NewNodeSandbox(bin, runRoot string) (*NodeSandbox, error) {
	if err := os.MkdirAll(runRoot, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", customErr.ErrRunRootUnavailable, err)
	}
	return &NodeSandbox{
		bin:     bin,
		runRoot: runRoot,
		logger:  logger.NewNamedLogger("node-sandbox"),
	}, nil
}

// Check runs node --check against the raw submission. Syntax errors come back
// as *CompileError carrying the parser output.
func (s *NodeSandbox) Check(ctx context.Context, source string) error {
	runDir, cleanup, err := s.setupRunDir()
	if err != nil {
		return err
	}
	defer cleanup()

	srcPath := filepath.Join(runDir, constants.SourceFileName)
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, constants.DefaultCheckTimeoutMs*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(checkCtx, s.bin, "--check", srcPath)
	cmd.Dir = runDir
	stderr := newLimitedBuffer(constants.DefaultMaxOutputKB * 1024)
	cmd.Stderr = stderr

	if runErr := cmd.Run(); runErr != nil {
		if checkCtx.Err() != nil {
			return fmt.Errorf("%w: syntax check timed out", customErr.ErrSandboxUnavailable)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return &CompileError{Output: compileMessage(stderr.String(), srcPath)}
		}
		// node itself failed to start.
		return fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, runErr)
	}
	return nil
}

func (s *NodeSandbox) Execute(ctx context.Context, program Program, input string, limits Limits) (Outcome, error) {
	runDir, cleanup, err := s.setupRunDir()
	if err != nil {
		return Outcome{}, err
	}
	defer cleanup()

	harnessPath := filepath.Join(runDir, constants.HarnessFileName)
	resultPath := filepath.Join(runDir, constants.ResultFileName)
	if err := os.WriteFile(harnessPath, []byte(renderHarness(program.Source, input)), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	heapArg := fmt.Sprintf("--max-old-space-size=%d", limits.MemoryMB)
	cmd := exec.CommandContext(execCtx, s.bin, heapArg, harnessPath, resultPath)
	cmd.Dir = runDir
	// The harness clears process.env for the submission; starting from an
	// empty environment keeps host variables out of the node bootstrap too.
	cmd.Env = []string{}

	stdout := newLimitedBuffer(int64(limits.MaxOutputKB) * 1024)
	stderr := newLimitedBuffer(int64(limits.MaxOutputKB) * 1024)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return Outcome{TimedOut: true, Duration: duration}, nil
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}

	if res, ok := readResult(resultPath); ok {
		out := Outcome{Duration: duration}
		if res.Ok {
			out.Value = res.Value
			out.HasValue = true
		} else {
			out.Error = res.Error
		}
		return out, nil
	}

	// No result file: the process died before the harness could report.
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if looksLikeOOM(stderr.String(), exitCode) {
		return Outcome{ResourceExceeded: true, Duration: duration}, nil
	}
	if runErr != nil {
		return Outcome{
			Error:    crashMessage(stderr.String(), exitCode),
			Duration: duration,
		}, nil
	}
	return Outcome{}, fmt.Errorf("%w: harness produced no result", customErr.ErrSandboxUnavailable)
}

// setupRunDir creates a uniquely named directory for one execution.
func (s *NodeSandbox) setupRunDir() (string, func(), error) {
	runDir := filepath.Join(s.runRoot, uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("%w: %w", customErr.ErrRunRootUnavailable, err)
	}
	cleanup := func() {
		if err := os.RemoveAll(runDir); err != nil {
			s.logger.Errorf("Failed to remove run directory %s: %s", runDir, err)
		}
	}
	return runDir, cleanup, nil
}

func readResult(path string) (harnessResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return harnessResult{}, false
	}
	var res harnessResult
	if err := json.Unmarshal(data, &res); err != nil {
		return harnessResult{}, false
	}
	return res, true
}

func looksLikeOOM(stderr string, exitCode int) bool {
	if strings.Contains(stderr, "JavaScript heap out of memory") {
		return true
	}
	return exitCode == constants.ExitCodeAbort || exitCode == constants.ExitCodeKilled
}

// compileMessage strips the run directory prefix out of the parser output so
// the student sees their own code referenced, not a host path.
func compileMessage(stderr, srcPath string) string {
	msg := strings.TrimSpace(strings.ReplaceAll(stderr, srcPath, constants.SourceFileName))
	if msg == "" {
		msg = "submission failed to parse"
	}
	return msg
}

func crashMessage(stderr string, exitCode int) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "at ") {
			return line
		}
	}
	return fmt.Sprintf(constants.TestMessageNoResult, exitCode)
}
