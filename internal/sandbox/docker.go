package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codelab-edu/grader/internal/logger"
	"github.com/codelab-edu/grader/pkg/constants"
	customErr "github.com/codelab-edu/grader/pkg/errors"
)

var containerNameRegex = regexp.MustCompile("[^a-zA-Z0-9_.-]")

// DockerSandbox executes each test case in a fresh container: no network,
// capped memory and pids, non-root user, with the run directory bind-mounted
// as the only shared surface. It is the stronger-isolation alternative to
// NodeSandbox for multi-tenant deployments.
type DockerSandbox struct {
	cli     DockerClient
	image   string
	runRoot string
	logger  *zap.SugaredLogger
}

func NewDockerSandbox(cli DockerClient, image, runRoot string) (*DockerSandbox, error) {
	if err := os.MkdirAll(runRoot, 0o777); err != nil {
		return nil, fmt.Errorf("%w: %w", customErr.ErrRunRootUnavailable, err)
	}
	return &DockerSandbox{
		cli:     cli,
		image:   image,
		runRoot: runRoot,
		logger:  logger.NewNamedLogger("docker-sandbox"),
	}, nil
}

func (s *DockerSandbox) Check(ctx context.Context, source string) error {
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

	cmd := []string{"node", "--check", containerPath(constants.SourceFileName)}
	exitCode, _, stderr, err := s.runContainer(checkCtx, runDir, cmd, constants.DefaultMemoryLimitMB)
	if err != nil {
		if errors.Is(checkCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: syntax check timed out", customErr.ErrSandboxUnavailable)
		}
		return fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, err)
	}
	if exitCode != constants.ExitCodeSuccess {
		return &CompileError{Output: compileMessage(stderr, containerPath(constants.SourceFileName))}
	}
	return nil
}

func (s *DockerSandbox) Execute(ctx context.Context, program Program, input string, limits Limits) (Outcome, error) {
	runDir, cleanup, err := s.setupRunDir()
	if err != nil {
		return Outcome{}, err
	}
	defer cleanup()

	harnessPath := filepath.Join(runDir, constants.HarnessFileName)
	if err := os.WriteFile(harnessPath, []byte(renderHarness(program.Source, input)), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	cmd := []string{
		"node",
		fmt.Sprintf("--max-old-space-size=%d", limits.MemoryMB),
		containerPath(constants.HarnessFileName),
		containerPath(constants.ResultFileName),
	}

	start := time.Now()
	exitCode, _, stderr, runErr := s.runContainer(execCtx, runDir, cmd, limits.MemoryMB)
	duration := time.Since(start)

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return Outcome{TimedOut: true, Duration: duration}, nil
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	if runErr != nil {
		return Outcome{}, fmt.Errorf("%w: %w", customErr.ErrSandboxUnavailable, runErr)
	}

	if res, ok := readResult(filepath.Join(runDir, constants.ResultFileName)); ok {
		out := Outcome{Duration: duration}
		if res.Ok {
			out.Value = res.Value
			out.HasValue = true
		} else {
			out.Error = res.Error
		}
		return out, nil
	}

	if looksLikeOOM(stderr, int(exitCode)) {
		return Outcome{ResourceExceeded: true, Duration: duration}, nil
	}
	return Outcome{
		Error:    crashMessage(stderr, int(exitCode)),
		Duration: duration,
	}, nil
}

// runContainer creates, runs to completion and removes one container, killing
// it when ctx expires.
func (s *DockerSandbox) runContainer(
	ctx context.Context,
	runDir string,
	cmd []string,
	memoryMB int,
) (int64, string, string, error) {
	if err := s.cli.EnsureImage(ctx, s.image); err != nil {
		return -1, "", "", err
	}

	if memoryMB < constants.MinContainerMemoryMB {
		memoryMB = constants.MinContainerMemoryMB
	}

	containerCfg := &container.Config{
		Image:           s.image,
		Cmd:             cmd,
		WorkingDir:      constants.ContainerWorkDir,
		User:            constants.ContainerRunnerUser,
		NetworkDisabled: true,
		Env:             []string{},
	}
	pidsLimit := int64(constants.ContainerPidsLimit)
	hostCfg := &container.HostConfig{
		Binds: []string{runDir + ":" + constants.ContainerWorkDir},
		Resources: container.Resources{
			Memory:    int64(memoryMB) * 1024 * 1024,
			PidsLimit: &pidsLimit,
		},
	}

	name := sanitizeContainerName("grader-" + filepath.Base(runDir))
	containerID, err := s.cli.CreateAndStartContainer(ctx, containerCfg, hostCfg, name)
	if err != nil {
		return -1, "", "", err
	}
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		if err := s.cli.ContainerRemove(cleanupCtx, containerID); err != nil {
			s.logger.Errorf("Failed to remove container %s: %s", containerID, err)
		}
	}()

	exitCode, waitErr := s.cli.WaitContainer(ctx, containerID)
	if waitErr != nil {
		if ctx.Err() != nil {
			killCtx, killCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer killCancel()
			if err := s.cli.ContainerKill(killCtx, containerID, "SIGKILL"); err != nil {
				s.logger.Errorf("Failed to kill container %s: %s", containerID, err)
			}
			return -1, "", "", ctx.Err()
		}
		return -1, "", "", waitErr
	}

	logsCtx, logsCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer logsCancel()
	stdout, stderr, err := s.cli.ContainerLogs(logsCtx, containerID)
	if err != nil {
		s.logger.Errorf("Failed to fetch logs for container %s: %s", containerID, err)
	}

	return exitCode, stdout, stderr, nil
}

func (s *DockerSandbox) setupRunDir() (string, func(), error) {
	runDir := filepath.Join(s.runRoot, uuid.NewString())
	// The container runs as an unprivileged user writing through the bind
	// mount, so the directory must be world-writable.
	if err := os.MkdirAll(runDir, 0o777); err != nil {
		return "", nil, fmt.Errorf("%w: %w", customErr.ErrRunRootUnavailable, err)
	}
	cleanup := func() {
		if err := os.RemoveAll(runDir); err != nil {
			s.logger.Errorf("Failed to remove run directory %s: %s", runDir, err)
		}
	}
	return runDir, cleanup, nil
}

func containerPath(name string) string {
	return constants.ContainerWorkDir + "/" + name
}

func sanitizeContainerName(name string) string {
	return containerNameRegex.ReplaceAllString(name, "-")
}
