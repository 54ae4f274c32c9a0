// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import "fmt"

// Visibility selects the sharing semantics of a page mapping.
type Visibility int

const (
	// Private mappings are process-local; writes go to copy-on-write pages.
	Private Visibility = iota
	// Shared mappings are backed by file pages visible to all mappers.
	Shared
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case Shared:
		return "shared"
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// ActionFlags selects optional steps of a worker's allocation action.
type ActionFlags uint32

const (
	// ActionTouch instantiates backing storage for every page of the
	// mapping by writing at page-size strides.
	ActionTouch ActionFlags = 1 << iota
	// ActionCow creates a private copy-on-write view over the mapping and
	// writes through it after the touch phase.
	ActionCow
)

// Counters is a snapshot of a quota domain's accounting state, in pages.
// It mirrors the f_blocks / f_bfree / f_bavail counters the filesystem
// uses to implement its quota.
type Counters struct {
	Total int64
	Free  int64
	Avail int64
}

func (c Counters) String() string {
	return fmt.Sprintf("total: %d free: %d avail: %d", c.Total, c.Free, c.Avail)
}

// StatSource yields a fresh counters snapshot on every call. Implementations
// must query the underlying domain rather than cache, since every scenario
// mutates the counters.
type StatSource interface {
	Stat() (Counters, error)
}
