package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external command when the caller's context
// carries no earlier deadline.
const DefaultTimeout = 10 * time.Second

// Runner abstracts command execution so packages can be unit-tested without
// touching real system networking (nmcli/wg-quick/systemctl).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExitError is returned when a command ran but did not succeed.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with status %d: %s", e.Name, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct {
	Timeout time.Duration
}

func NewOSRunner(timeout time.Duration) *OSRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OSRunner{Timeout: timeout}
}

func (r *OSRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := r.exec(ctx, name, args...)
	return err
}

func (r *OSRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := r.exec(ctx, name, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *OSRunner) exec(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%s: %w", name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &ExitError{
			Name:   name,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	return "", fmt.Errorf("%s: %w", name, err)
}
