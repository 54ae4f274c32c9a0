// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/juju/errors"
)

// Runner executes one scenario action at a time, each in a freshly spawned
// worker process. A process boundary, not a goroutine, because the action
// under test may legitimately die from a fatal fault and that fault must not
// take the harness with it.
type Runner struct {
	// Exe is the worker binary. Empty means re-execute the current binary.
	Exe string
	// Args is the argv prefix placed before the encoded action arguments,
	// normally just the hidden worker subcommand name.
	Args []string
	// Env is extra environment appended to the worker's inherited
	// environment. The action itself never travels through it; this is an
	// override hook for tests.
	Env []string
	// MountDir and PageSize locate the domain the worker allocates from.
	MountDir string
	PageSize int64
	// Timeout bounds one worker run. Zero waits forever.
	Timeout time.Duration

	Log *slog.Logger
}

// Run spawns the worker for one scenario, blocks until it terminates and
// classifies the termination. A timeout is reported as an error, never as an
// Outcome, so it can never satisfy a scenario's expectation by accident.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Outcome, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	exe := r.Exe
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return 0, errors.Annotate(err, "locating worker binary")
		}
		exe = self
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	action := Action{
		MountDir:   r.MountDir,
		PageSize:   r.PageSize,
		Pages:      sc.Pages,
		Visibility: sc.Visibility,
		Flags:      sc.Flags,
	}
	args := append(append([]string(nil), r.Args...), action.Args()...)

	cmd := exec.CommandContext(ctx, exe, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	log.Debug("spawning worker", "scenario", sc.Index, "args", args)

	err := cmd.Run()
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return 0, errors.Errorf("worker for scenario %d (%s) timed out after %s",
			sc.Index, sc.Name, r.Timeout)
	case context.Canceled:
		return 0, errors.New("run aborted")
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return 0, errors.Annotate(err, "spawning worker")
		}
	}
	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, errors.New("no wait status from worker")
	}
	outcome := Classify(ws)
	log.Debug("worker terminated", "scenario", sc.Index, "status", ws, "outcome", outcome)
	return outcome, nil
}
