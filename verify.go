// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import "github.com/juju/errors"

// Verifier checks a domain's quota counters against exact expected values.
type Verifier struct {
	Source StatSource
}

// Verify takes a fresh counters snapshot and compares it field by field with
// want. Any difference fails with a CounterMismatchError naming the step that
// produced it; this is strict equality, not a bound.
func (v *Verifier) Verify(step string, want Counters) error {
	got, err := v.Source.Stat()
	if err != nil {
		return errors.Annotate(err, "querying quota counters")
	}
	if got != want {
		return &CounterMismatchError{Step: step, Expected: want, Actual: got}
	}
	return nil
}
