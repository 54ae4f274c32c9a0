// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/hugetlb/goquota"
)

// runOptions holds flags for the run command.
type runOptions struct {
	*rootOptions
	ConfigFile    string
	CapacityPages int64
	PageSize      int64
	MountBase     string
	Timeout       time.Duration
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the quota regression sequence",
		Long: `Provision a quota-limited hugetlbfs mount, probe the kernel's private
reservation accounting, and replay the regression scenario sequence.

Requires root and at least as many free hugepages as the configured
capacity. The mount is torn down on every exit path.

Example:
  goquota run
  goquota run --capacity-pages 2 --timeout 30s -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSequence(opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	cmd.Flags().Int64Var(&opts.CapacityPages, "capacity-pages", 0, "domain quota in pages")
	cmd.Flags().Int64Var(&opts.PageSize, "page-size", 0, "hugepage size in bytes (default: discover)")
	cmd.Flags().StringVar(&opts.MountBase, "mount-base", "", "directory for the domain mountpoint")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-worker timeout (0 waits forever)")

	return cmd
}

func runSequence(opts *runOptions) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := buildConfig(opts)
	if err != nil {
		return errors.Trace(err)
	}

	if os.Geteuid() != 0 {
		return &goquota.EnvironmentError{Err: errors.New("must run as root")}
	}
	mi, err := goquota.ReadMemInfo(goquota.MemInfoPath)
	if err != nil {
		return &goquota.EnvironmentError{Err: errors.Trace(err)}
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = mi.HugePageSize
	}
	if mi.FreePages < cfg.CapacityPages {
		return &goquota.EnvironmentError{Err: errors.Errorf(
			"%d free hugepages in the global pool, need %d", mi.FreePages, cfg.CapacityPages)}
	}

	// A signal abort must still unmount the domain, so teardown hangs off a
	// defer and the run itself is cancelled through the context.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dom, err := goquota.ProvisionDomain(cfg, log)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := dom.Teardown(); err != nil {
			log.Error("domain teardown", "err", err)
		}
	}()

	resv, err := dom.ProbePrivateReservations()
	if err != nil {
		return &goquota.EnvironmentError{Err: errors.Trace(err)}
	}
	log.Info("private reservation accounting", "enabled", resv)

	h := goquota.NewHarness(dom, cfg, resv, log)
	if err := h.Run(ctx); err != nil {
		return errors.Trace(err)
	}
	log.Info("PASS")
	return nil
}

func buildConfig(opts *runOptions) (*goquota.Config, error) {
	cfg := goquota.DefaultConfig()
	if opts.ConfigFile != "" {
		loaded, err := goquota.LoadConfig(opts.ConfigFile)
		if err != nil {
			return nil, errors.Trace(err)
		}
		cfg = loaded
	}
	// Flags override the file.
	if opts.CapacityPages > 0 {
		cfg.CapacityPages = opts.CapacityPages
	}
	if opts.PageSize > 0 {
		cfg.PageSize = opts.PageSize
	}
	if opts.MountBase != "" {
		cfg.MountBase = opts.MountBase
	}
	if opts.Timeout > 0 {
		cfg.WorkerTimeout = goquota.Duration(opts.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}
