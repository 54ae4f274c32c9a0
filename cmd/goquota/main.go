// Copyright (c) 2026 goquota authors.
// Full license can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds global flags shared by all commands.
type rootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "goquota",
		Short:         "hugetlbfs quota-accounting regression harness",
		Long:          "Replays hugepage allocation scenarios against a quota-limited hugetlbfs mount\nand verifies the kernel's quota counters and failure behavior.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newWorkerCommand())

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "FAIL:", err)
		os.Exit(1)
	}
}
