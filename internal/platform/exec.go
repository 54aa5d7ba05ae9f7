package platform

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ExecResult is the raw outcome of a spawned command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// runCommand is the process-spawning primitive shared by the tool layers.
// A non-zero exit is not an error — the exit code conveys it; only a failure
// to spawn at all is.
func runCommand(name string, args ...string) (ExecResult, error) {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		return res, fmt.Errorf("running %s: %w", name, err)
	}
	return res, nil
}
