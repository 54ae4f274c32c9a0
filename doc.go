// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

/*
Package goquota replays hugetlbfs quota-accounting regressions.

Overview

The number of hugepages available to a mounted hugetlbfs filesystem can be
limited with the size= mount option, which is enforced through the
filesystem's block quota counters. Older kernels mishandled that accounting
in several ways, for example around MAP_PRIVATE instantiation and MAP_SHARED
reservations. This package provisions a privately mounted, quota-limited
hugetlbfs instance and replays a fixed sequence of allocation scenarios
against it, checking after each step that the kernel's counters and failure
behavior still match the historical record.

Each scenario runs in its own worker process, because a quota violation can
legitimately kill the violator with SIGBUS and that must not take the
harness down with it. The worker's termination is classified three ways:

	pass    exited normally with code 0
	fail    exited normally with a nonzero code (controlled refusal)
	killed  terminated by a signal (enforcement at fault time)

Both fail and killed mean "the quota was enforced"; which one a scenario
expects depends on whether the kernel accounts private reservations up
front, so the harness probes that once before running anything.

Typical use via the library:

	cfg := goquota.DefaultConfig()
	cfg.PageSize = pageSize // from goquota.ReadMemInfo
	dom, err := goquota.ProvisionDomain(cfg, nil)
	defer dom.Teardown()

	resv, err := dom.ProbePrivateReservations()
	h := goquota.NewHarness(dom, cfg, resv, nil)
	err = h.Run(ctx)

The cmd/goquota binary wraps the same flow behind a CLI and doubles as the
worker executable for the isolated scenario runs. Running requires root and
at least one free hugepage in the global pool.
*/
package goquota
