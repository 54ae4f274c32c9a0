// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import "fmt"

// EnvironmentError reports a setup failure detected before any scenario ran:
// missing privileges, no hugepage support, insufficient global capacity, or a
// failed domain mount. It always aborts the run.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment: %v", e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// MismatchError reports a scenario whose classified outcome differs from its
// declared expectation.
type MismatchError struct {
	Index    int
	Name     string
	Expected Outcome
	Actual   Outcome
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("unexpected result for scenario %d (%s): expected %s, actual %s",
		e.Index, e.Name, e.Expected, e.Actual)
}

// CounterMismatchError reports quota counters that differ from the expected
// triple at a verification point. Equality is strict: one page of drift is a
// defect in the accounting under test.
type CounterMismatchError struct {
	Step     string
	Expected Counters
	Actual   Counters
}

func (e *CounterMismatchError) Error() string {
	return fmt.Sprintf("bad quota counters after %s: expected %s, actual %s",
		e.Step, e.Expected, e.Actual)
}
