package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pycc/internal/prof"
)

// setupProfiling starts the runtime profilers named by the persistent flags
// and chains their shutdown onto the session cleanup.
func setupProfiling(cmd *cobra.Command, s *session) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpu-profile")
	opts.Mem, _ = flags.GetString("mem-profile")
	opts.Trace, _ = flags.GetString("runtime-trace")
	if !opts.Enabled() {
		return nil
	}
	p, err := prof.Start(opts)
	if err != nil {
		return err
	}
	next := s.cleanup
	s.cleanup = func() {
		if err := p.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "pycc: %v\n", err)
		}
		next()
	}
	return nil
}
