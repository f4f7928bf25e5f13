package sandbox_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"

	. "github.com/codelab-edu/grader/internal/sandbox"
	customErr "github.com/codelab-edu/grader/pkg/errors"
)

// fakeDockerClient simulates one container run. runFn receives the command
// and the bind-mounted run directory and returns the exit code and stderr.
type fakeDockerClient struct {
	runFn func(cmd []string, runDir string) (int64, string)

	lastConfig *container.Config
	lastHost   *container.HostConfig

	exitCode int64
	stderr   string
	removed  bool
}

func (f *fakeDockerClient) EnsureImage(_ context.Context, _ string) error { return nil }

func (f *fakeDockerClient) CreateAndStartContainer(
	_ context.Context,
	containerCfg *container.Config,
	hostCfg *container.HostConfig,
	_ string,
) (string, error) {
	f.lastConfig = containerCfg
	f.lastHost = hostCfg

	runDir := strings.SplitN(hostCfg.Binds[0], ":", 2)[0]
	f.exitCode, f.stderr = f.runFn(containerCfg.Cmd, runDir)
	return "container-1", nil
}

func (f *fakeDockerClient) WaitContainer(_ context.Context, _ string) (int64, error) {
	return f.exitCode, nil
}

func (f *fakeDockerClient) ContainerKill(_ context.Context, _, _ string) error { return nil }

func (f *fakeDockerClient) ContainerRemove(_ context.Context, _ string) error {
	f.removed = true
	return nil
}

func (f *fakeDockerClient) ContainerLogs(_ context.Context, _ string) (string, string, error) {
	return "", f.stderr, nil
}

func TestDockerExecute_Success(t *testing.T) {
	cli := &fakeDockerClient{
		runFn: func(_ []string, runDir string) (int64, string) {
			resultPath := filepath.Join(runDir, "result.json")
			if err := os.WriteFile(resultPath, []byte(`{"ok":true,"value":"5"}`), 0o644); err != nil {
				t.Fatalf("failed to write result file: %v", err)
			}
			return 0, ""
		},
	}
	sb, err := NewDockerSandbox(cli, "node:20-alpine", t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	out, err := sb.Execute(context.Background(), Program{Source: "function f() {}"}, "2, 3", Limits{
		Timeout:     time.Second,
		MemoryMB:    64,
		MaxOutputKB: 16,
	})
	if err != nil {
		t.Fatalf("expected execution to succeed, got: %v", err)
	}
	if !out.HasValue || out.Value != "5" {
		t.Fatalf("expected value 5, got %+v", out)
	}
	if !cli.removed {
		t.Fatalf("expected container removed after execution")
	}
}

func TestDockerExecute_ContainerHardening(t *testing.T) {
	cli := &fakeDockerClient{
		runFn: func(_ []string, runDir string) (int64, string) {
			_ = os.WriteFile(filepath.Join(runDir, "result.json"), []byte(`{"ok":true,"value":"1"}`), 0o644)
			return 0, ""
		},
	}
	sb, err := NewDockerSandbox(cli, "node:20-alpine", t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	_, err = sb.Execute(context.Background(), Program{Source: "function f() {}"}, "", Limits{
		Timeout:     time.Second,
		MemoryMB:    64,
		MaxOutputKB: 16,
	})
	if err != nil {
		t.Fatalf("expected execution to succeed, got: %v", err)
	}

	if !cli.lastConfig.NetworkDisabled {
		t.Fatalf("expected networking disabled")
	}
	if cli.lastConfig.User != "1000:1000" {
		t.Fatalf("expected non-root user, got %q", cli.lastConfig.User)
	}
	if cli.lastHost.Resources.Memory != 64*1024*1024 {
		t.Fatalf("expected 64 MB memory cap, got %d", cli.lastHost.Resources.Memory)
	}
	if cli.lastHost.Resources.PidsLimit == nil || *cli.lastHost.Resources.PidsLimit <= 0 {
		t.Fatalf("expected a pids limit")
	}
}

func TestDockerExecute_OOMKilled(t *testing.T) {
	cli := &fakeDockerClient{
		runFn: func(_ []string, _ string) (int64, string) {
			return 137, ""
		},
	}
	sb, err := NewDockerSandbox(cli, "node:20-alpine", t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	out, err := sb.Execute(context.Background(), Program{Source: "function f() {}"}, "", Limits{
		Timeout:     time.Second,
		MemoryMB:    64,
		MaxOutputKB: 16,
	})
	if err != nil {
		t.Fatalf("expected OOM folded into outcome, got: %v", err)
	}
	if !out.ResourceExceeded {
		t.Fatalf("expected resource exceeded outcome, got %+v", out)
	}
}

func TestDockerCheck_SyntaxError(t *testing.T) {
	cli := &fakeDockerClient{
		runFn: func(cmd []string, _ string) (int64, string) {
			if len(cmd) < 2 || cmd[1] != "--check" {
				return 0, ""
			}
			return 1, "/work/solution.js:1\nSyntaxError: Unexpected token '('"
		},
	}
	sb, err := NewDockerSandbox(cli, "node:20-alpine", t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	checkErr := sb.Check(context.Background(), "function ( {")
	var compileErr *CompileError
	if !errors.As(checkErr, &compileErr) {
		t.Fatalf("expected *CompileError, got: %v", checkErr)
	}
	if strings.Contains(compileErr.Output, "/work/") {
		t.Fatalf("expected container path stripped, got %q", compileErr.Output)
	}
}

func TestDockerCheck_ClientFailure(t *testing.T) {
	cli := &failingDockerClient{}
	sb, err := NewDockerSandbox(cli, "node:20-alpine", t.TempDir())
	if err != nil {
		t.Fatalf("failed to create sandbox: %v", err)
	}

	checkErr := sb.Check(context.Background(), "function f() {}")
	if !errors.Is(checkErr, customErr.ErrSandboxUnavailable) {
		t.Fatalf("expected ErrSandboxUnavailable, got: %v", checkErr)
	}
}

// failingDockerClient refuses every operation, standing in for an unreachable
// docker daemon.
type failingDockerClient struct{}

var errDaemonDown = errors.New("docker daemon unreachable")

func (f *failingDockerClient) EnsureImage(_ context.Context, _ string) error { return errDaemonDown }

func (f *failingDockerClient) CreateAndStartContainer(
	_ context.Context,
	_ *container.Config,
	_ *container.HostConfig,
	_ string,
) (string, error) {
	return "", errDaemonDown
}

func (f *failingDockerClient) WaitContainer(_ context.Context, _ string) (int64, error) {
	return -1, errDaemonDown
}

func (f *failingDockerClient) ContainerKill(_ context.Context, _, _ string) error {
	return errDaemonDown
}

func (f *failingDockerClient) ContainerRemove(_ context.Context, _ string) error {
	return errDaemonDown
}

func (f *failingDockerClient) ContainerLogs(_ context.Context, _ string) (string, string, error) {
	return "", "", errDaemonDown
}
