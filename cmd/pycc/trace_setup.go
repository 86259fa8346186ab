package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pycc/internal/trace"
)

// setupTracing builds the tracer from the merged [trace] settings and puts
// it into the command context. A failed command dumps any ring buffers.
func setupTracing(cmd *cobra.Command, s *session) error {
	cfg, err := s.cfg.TraceConfig()
	if err != nil {
		return fmt.Errorf("invalid trace settings: %w", err)
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}
	cfg.Heartbeat, _ = cmd.Root().PersistentFlags().GetDuration("trace-heartbeat")

	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	heartbeat := trace.StartHeartbeat(tracer, cfg.Heartbeat)
	if heartbeat != nil {
		tracer = heartbeat
	}
	s.tracer = tracer
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	s.cleanup = func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return nil
}

// dumpRings writes the recorded events after a failure.
func dumpRings(s *session) {
	for _, ring := range trace.Rings(s.tracer) {
		if err := ring.Dump(os.Stderr, trace.FormatText); err != nil {
			fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
		}
	}
}
