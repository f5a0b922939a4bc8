package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CompilerRunnerAdapter abstracts running the compiler that produces the
// syntax tree of a translation unit.
type CompilerRunnerAdapter interface {
	// Run executes compiler with args in workDir and returns its standard
	// output. A non-zero exit status is an error carrying the diagnostics.
	Run(ctx context.Context, workDir, compiler string, args []string) ([]byte, error)
}

// LocalCompilerRunnerAdapter provides a concrete implementation using os/exec.
type LocalCompilerRunnerAdapter struct {
	timeout time.Duration
}

// NewLocalCompilerRunnerAdapter constructs a LocalCompilerRunnerAdapter with default 2m timeout.
func NewLocalCompilerRunnerAdapter() *LocalCompilerRunnerAdapter {
	return &LocalCompilerRunnerAdapter{
		timeout: 2 * time.Minute,
	}
}

// Run starts compiler and collects its output.
func (a *LocalCompilerRunnerAdapter) Run(ctx context.Context, workDir, compiler string, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// #nosec G204 - the compiler and its flags come from the user's configuration
	cmd := exec.CommandContext(ctx, compiler, args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w\n%s", compiler, err, msg)
		}

		return nil, fmt.Errorf("%s: %w", compiler, err)
	}

	return stdout.Bytes(), nil
}
