// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"flag"
	"io"
	"log/slog"
	"runtime/debug"
	"strconv"

	"github.com/juju/errors"
)

// Action describes one isolated allocation action, fully self-contained: the
// worker learns the domain and page geometry from these fields alone, never
// from inherited environment state.
type Action struct {
	MountDir   string
	PageSize   int64
	Pages      int64
	Visibility Visibility
	Flags      ActionFlags
}

// Args renders the action as worker command-line arguments, the inverse of
// ParseActionArgs.
func (a Action) Args() []string {
	args := []string{
		"--mount", a.MountDir,
		"--page-size", strconv.FormatInt(a.PageSize, 10),
		"--pages", strconv.FormatInt(a.Pages, 10),
	}
	if a.Visibility == Shared {
		args = append(args, "--shared")
	}
	if a.Flags&ActionTouch != 0 {
		args = append(args, "--touch")
	}
	if a.Flags&ActionCow != 0 {
		args = append(args, "--cow")
	}
	return args
}

// ParseActionArgs decodes worker command-line arguments produced by
// Action.Args.
func ParseActionArgs(args []string) (Action, error) {
	var a Action
	var shared, touch, cow bool
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&a.MountDir, "mount", "", "domain mountpoint")
	fs.Int64Var(&a.PageSize, "page-size", 0, "page size in bytes")
	fs.Int64Var(&a.Pages, "pages", 0, "mapping size in pages")
	fs.BoolVar(&shared, "shared", false, "use a shared mapping")
	fs.BoolVar(&touch, "touch", false, "instantiate every page")
	fs.BoolVar(&cow, "cow", false, "exercise copy-on-write")
	if err := fs.Parse(args); err != nil {
		return Action{}, errors.Trace(err)
	}
	if a.MountDir == "" || a.PageSize <= 0 || a.Pages <= 0 {
		return Action{}, errors.Errorf("incomplete worker action: mount=%q page-size=%d pages=%d",
			a.MountDir, a.PageSize, a.Pages)
	}
	if shared {
		a.Visibility = Shared
	}
	if touch {
		a.Flags |= ActionTouch
	}
	if cow {
		a.Flags |= ActionCow
	}
	return a, nil
}

// ExecAction performs one allocation action inside the current process. It is
// meant to run in a disposable worker: a quota enforcement fault is allowed
// to kill the process, and a logical failure is returned as an error for the
// worker to exit nonzero on.
func ExecAction(a Action, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	armFaultCrash()

	store := NewPageStore(a.MountDir, a.PageSize)
	m, err := store.Allocate(a.Pages*a.PageSize, a.Visibility)
	if err != nil {
		log.Debug("allocation refused", "err", err)
		return errors.Annotate(err, "allocate")
	}
	if a.Flags&ActionTouch != 0 {
		m.Touch()
	}
	if a.Flags&ActionCow != 0 {
		view, err := m.CowView()
		if err != nil {
			return errors.Annotate(err, "cow view")
		}
		if v := view.Data()[0]; v != 1 {
			return errors.Errorf("copy-on-write view read %d, want 1", v)
		}
		view.Data()[0] = 0
		if err := view.Release(); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(m.Release())
}

// armFaultCrash switches the runtime's traceback mode to "crash". The
// runtime keeps its own SIGBUS/SIGSEGV handler installed no matter what
// os/signal is told, and in the default mode it absorbs a fault in mapped
// memory into a normal nonzero exit; in crash mode it re-raises the faulting
// signal with its default disposition instead. The harness must see a denied
// page fault kill the worker by signal, the same way the kernel kills an
// unprepared process.
func armFaultCrash() {
	debug.SetTraceback("crash")
}
