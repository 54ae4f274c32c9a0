// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package goquota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/errors"
)

// Scenario is one immutable step of the regression sequence: an allocation
// action, the outcome it must produce, and optionally the quota counters the
// domain must show immediately afterwards.
type Scenario struct {
	Index      int
	Name       string
	Pages      int64
	Visibility Visibility
	Flags      ActionFlags
	Expect     Outcome
	// Counters, when non-nil, is verified right after the scenario.
	Counters *Counters
}

// DefaultSequence encodes the quota regression history for a domain of the
// given capacity. privateResv is the result of probing the kernel's private
// reservation accounting: with it, an over-quota private mapping is refused
// up front like a shared one; without it, the overcommit is only discovered
// at fault time and the worker dies by signal.
func DefaultSequence(capacity int64, privateResv bool) []Scenario {
	full := &Counters{Total: capacity, Free: capacity, Avail: capacity}
	overPrivate := Killed
	if privateResv {
		overPrivate = Failed
	}
	scs := []Scenario{
		// Unused quota must be cleared when untouched mappings are cleaned up.
		{Name: "untouched private reclaims quota", Pages: capacity,
			Visibility: Private, Expect: Success, Counters: full},
		{Name: "untouched shared reclaims quota", Pages: capacity,
			Visibility: Shared, Expect: Success, Counters: full},

		// Simple instantiation within the quota.
		{Name: "private touch within quota", Pages: capacity,
			Visibility: Private, Flags: ActionTouch, Expect: Success},
		{Name: "shared touch within quota", Pages: capacity,
			Visibility: Shared, Flags: ActionTouch, Expect: Success},

		// Instantiation past the quota must be refused.
		{Name: "shared touch over quota", Pages: 2 * capacity,
			Visibility: Shared, Flags: ActionTouch, Expect: Failed},
		{Name: "private touch over quota", Pages: 2 * capacity,
			Visibility: Private, Flags: ActionTouch, Expect: overPrivate},

		// Copy-on-write past the quota: the touch fills the quota, so
		// establishing the private copy must fault.
		{Name: "shared cow over quota", Pages: capacity,
			Visibility: Shared, Flags: ActionTouch | ActionCow, Expect: Killed},
		{Name: "private cow over quota", Pages: capacity,
			Visibility: Private, Flags: ActionTouch | ActionCow, Expect: Killed},

		// The quota must be fully usable again after the failures above.
		{Name: "shared touch after failures", Pages: capacity,
			Visibility: Shared, Flags: ActionTouch, Expect: Success},
		{Name: "private touch after failures", Pages: capacity,
			Visibility: Private, Flags: ActionTouch, Expect: Success},
	}
	for i := range scs {
		scs[i].Index = i + 1
	}
	return scs
}

// Harness drives the scenario sequence against one provisioned domain,
// strictly sequentially: every scenario's expected counters depend on the
// exact state left by all prior ones.
type Harness struct {
	Domain    *Domain
	Runner    *Runner
	Scenarios []Scenario
	Log       *slog.Logger
}

// NewHarness wires a harness over a provisioned domain. privateResv must
// come from Domain.ProbePrivateReservations, queried exactly once beforehand.
func NewHarness(d *Domain, cfg *Config, privateResv bool, log *slog.Logger) *Harness {
	if log == nil {
		log = slog.Default()
	}
	return &Harness{
		Domain: d,
		Runner: &Runner{
			Args:     []string{"worker"},
			MountDir: d.Dir(),
			PageSize: d.PageSize(),
			Timeout:  time.Duration(cfg.WorkerTimeout),
			Log:      log,
		},
		Scenarios: DefaultSequence(d.Capacity(), privateResv),
		Log:       log,
	}
}

// Run executes the sequence, failing fast: the first outcome mismatch,
// counter mismatch or runner error aborts the whole run. There are no
// retries; any deviation is a defect in the accounting under test, not a
// transient condition.
func (h *Harness) Run(ctx context.Context) error {
	verifier := &Verifier{Source: h.Domain}
	for _, sc := range h.Scenarios {
		h.Log.Info("running scenario",
			"index", sc.Index, "name", sc.Name, "expect", sc.Expect)
		actual, err := h.Runner.Run(ctx, sc)
		if err != nil {
			return errors.Annotatef(err, "scenario %d (%s)", sc.Index, sc.Name)
		}
		if actual != sc.Expect {
			return &MismatchError{
				Index:    sc.Index,
				Name:     sc.Name,
				Expected: sc.Expect,
				Actual:   actual,
			}
		}
		if sc.Counters != nil {
			step := fmt.Sprintf("scenario %d (%s)", sc.Index, sc.Name)
			if err := verifier.Verify(step, *sc.Counters); err != nil {
				return err
			}
		}
	}
	return nil
}
