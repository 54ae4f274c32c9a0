// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package itest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hugetlb/goquota"
)

// quotaTestSuite runs the full regression sequence against a real hugetlbfs
// mount. It needs root and free hugepages in the global pool; otherwise it
// skips.
type quotaTestSuite struct {
	suite.Suite
	pageSize int64
}

func (ts *quotaTestSuite) SetupSuite() {
	if os.Geteuid() != 0 {
		ts.T().Skip("requires root")
	}
	mi, err := goquota.ReadMemInfo(goquota.MemInfoPath)
	if err != nil {
		ts.T().Skipf("no hugepage support: %v", err)
	}
	if mi.FreePages < 1 {
		ts.T().Skip("no free hugepages in the global pool")
	}
	ts.pageSize = mi.HugePageSize
}

// workerize points the harness's runner at this test binary; TestWorkerMain
// below turns a re-executed copy into the worker process.
func workerize(h *goquota.Harness) {
	h.Runner.Exe = os.Args[0]
	h.Runner.Args = []string{"-test.run=TestWorkerMain", "--"}
	h.Runner.Env = []string{"GOQUOTA_WORKER=1"}
}

func (ts *quotaTestSuite) TestQuotaSequence() {
	cfg := goquota.DefaultConfig()
	cfg.PageSize = ts.pageSize

	dom, err := goquota.ProvisionDomain(cfg, nil)
	ts.Require().NoError(err)
	defer func() {
		ts.NoError(dom.Teardown())
	}()

	// A freshly provisioned single-page domain reports a full pool.
	c, err := dom.Stat()
	ts.Require().NoError(err)
	ts.Equal(goquota.Counters{Total: 1, Free: 1, Avail: 1}, c)

	resv, err := dom.ProbePrivateReservations()
	ts.Require().NoError(err)

	// The probe must leave the counters untouched.
	c, err = dom.Stat()
	ts.Require().NoError(err)
	ts.Equal(goquota.Counters{Total: 1, Free: 1, Avail: 1}, c)

	h := goquota.NewHarness(dom, cfg, resv, nil)
	workerize(h)
	ts.NoError(h.Run(context.Background()))
}

func (ts *quotaTestSuite) TestTeardownIsIdempotent() {
	cfg := goquota.DefaultConfig()
	cfg.PageSize = ts.pageSize

	dom, err := goquota.ProvisionDomain(cfg, nil)
	ts.Require().NoError(err)
	ts.NoError(dom.Teardown())
	ts.NoError(dom.Teardown())
	ts.NoDirExists(dom.Dir())
}

func TestQuotaSuite(t *testing.T) {
	suite.Run(t, &quotaTestSuite{})
}

// TestWorkerMain is the worker entry point for the suite: the runner
// re-executes this binary with GOQUOTA_WORKER=1 and the encoded action after
// "--". It never runs as part of a normal test pass.
func TestWorkerMain(t *testing.T) {
	if os.Getenv("GOQUOTA_WORKER") != "1" {
		return
	}
	action, err := goquota.ParseActionArgs(workerArgs())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := goquota.ExecAction(action, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

// workerArgs strips the test-framework arguments, returning what follows the
// "--" separator.
func workerArgs() []string {
	for i, arg := range os.Args {
		if arg == "--" {
			return os.Args[i+1:]
		}
	}
	return nil
}
