// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package main

import (
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/hugetlb/goquota"
)

// newWorkerCommand is the hidden entry point the scenario runner re-executes
// this binary with. One invocation performs exactly one allocation action and
// reports through its termination: exit 0 on success, exit 1 on a controlled
// refusal, death by signal when the kernel enforces the quota at fault time.
func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "worker",
		Short:              "Execute one allocation action (internal)",
		Hidden:             true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := goquota.ParseActionArgs(args)
			if err != nil {
				return errors.Trace(err)
			}
			return goquota.ExecAction(action, nil)
		},
	}
}
