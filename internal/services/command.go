package services

import (
	"context"
	"os/exec"
	"strings"
)

// CommandRunner executes an external tool and returns its combined output.
// Adapters accept a runner so tests can intercept subprocess invocations.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// RunCommand is the default CommandRunner. A non-zero exit is reported as
// ErrCommandFailed carrying the tool's captured output.
func RunCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, Wrap(ErrCommandFailed, "", name, strings.TrimSpace(string(output)), err)
	}
	return output, nil
}
