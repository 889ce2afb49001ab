package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandResult captures one external command invocation.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// CommandRunner abstracts process execution so encoder stages can be tested
// without ffmpeg installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

// ExecRunner executes commands via os/exec and blocks until the process
// exits. Cancelling ctx kills the process.
type ExecRunner struct{}

// Run executes one command and captures stdout, stderr and the exit code.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

const stderrTailLimit = 512

// describeFailure condenses a failed run into one line for error messages.
func describeFailure(result CommandResult, err error) string {
	tail := strings.TrimSpace(result.Stderr)
	if len(tail) > stderrTailLimit {
		tail = "..." + tail[len(tail)-stderrTailLimit:]
	}
	if tail == "" {
		return fmt.Sprintf("exit=%d: %v", result.ExitCode, err)
	}
	return fmt.Sprintf("exit=%d: %v: %s", result.ExitCode, err, tail)
}
