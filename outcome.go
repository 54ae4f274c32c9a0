// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"fmt"
	"syscall"
)

// Outcome is the classified result of one isolated worker run. The three-way
// split is load-bearing: a quota refusal surfacing as a clean nonzero exit
// (Failed) and one surfacing as a fatal fault (Killed) are both legitimate
// enforcement behaviors, and each scenario declares which one it expects.
type Outcome int

const (
	// Success - the worker exited normally with code 0.
	Success Outcome = iota
	// Killed - the worker was terminated by a signal.
	Killed
	// Failed - the worker exited normally with a nonzero code.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "pass"
	case Killed:
		return "killed"
	case Failed:
		return "fail"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Classify maps a worker's raw wait status onto an Outcome. There are no
// other outcomes: every possible termination falls into exactly one case.
func Classify(ws syscall.WaitStatus) Outcome {
	if ws.Signaled() {
		return Killed
	}
	if ws.ExitStatus() == 0 {
		return Success
	}
	return Failed
}
