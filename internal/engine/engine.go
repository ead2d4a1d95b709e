// Package engine invokes the external traffic assignment engine. The engine
// is an opaque collaborator: it reads its input tables (node.csv, link.csv,
// ...) from a working directory and writes its result tables
// (link_performance.csv, od_performance.csv) back into the same directory.
//
// The working directory is an explicit argument on every invocation rather
// than process-wide state, so two runs against different directories cannot
// interfere and tests can substitute a fake Runner.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner runs one simulation against a directory.
type Runner interface {
	Run(ctx context.Context, dir string) error
}

// EngineError reports a failed simulation run.
type EngineError struct {
	Dir    string
	Output string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("simulation failed in %s: %v", e.Dir, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// DTALite runs the DTALite assignment executable as a subprocess with its
// working directory pointed at the simulation folder.
type DTALite struct {
	Command string
	Args    []string

	logger *zap.Logger
}

// NewDTALite builds a runner for the given engine command.
func NewDTALite(logger *zap.Logger, command string, args ...string) *DTALite {
	return &DTALite{Command: command, Args: args, logger: logger}
}

// Run executes the engine in dir, creating the directory first if needed.
// The engine's combined output is captured and attached to any failure.
func (d *DTALite) Run(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create simulation directory: %w", err)
	}

	d.logger.Info("running traffic assignment",
		zap.String("dir", dir),
		zap.String("command", d.Command))

	cmd := exec.CommandContext(ctx, d.Command, d.Args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &EngineError{Dir: dir, Output: strings.TrimSpace(string(out)), Err: err}
	}

	d.logger.Info("traffic assignment finished", zap.String("dir", dir))
	return nil
}
