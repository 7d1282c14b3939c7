package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kasync/internal/trace"
)

var activeTracer trace.Tracer = trace.Nop

func addTraceFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("trace", "", "trace output file (\"-\" for stderr, .ndjson for JSON lines)")
	flags.String("trace-level", "off", "trace level (off|error|info|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", trace.DefaultRingSize, "events kept in ring mode")
}

// setupTracing builds the tracer from the trace flags over the [trace] table
// of the config and attaches it to the command context.
func setupTracing(cmd *cobra.Command) error {
	flags := cmd.Flags()
	var opts trace.Options
	var err error
	if opts.Output, err = flags.GetString("trace"); err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	if flags.Changed("trace-level") {
		if opts.Level, err = flags.GetString("trace-level"); err != nil {
			return fmt.Errorf("failed to get trace-level flag: %w", err)
		}
	}
	if flags.Changed("trace-mode") {
		if opts.Mode, err = flags.GetString("trace-mode"); err != nil {
			return fmt.Errorf("failed to get trace-mode flag: %w", err)
		}
	}
	if flags.Changed("trace-ring-size") {
		if opts.RingSize, err = flags.GetInt("trace-ring-size"); err != nil {
			return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
	}
	opts = opts.Merge(trace.Options{
		Level:    appConfig.Trace.Level,
		Mode:     appConfig.Trace.Mode,
		RingSize: appConfig.Trace.RingSize,
	})

	cfg, err := opts.Resolve()
	if err != nil {
		return fmt.Errorf("invalid trace settings: %w", err)
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTracer = tracer
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))
	return nil
}

// finishTracing flushes and closes the tracer. After a failed command the
// in-memory ring, if any, is dumped to errOut.
func finishTracing(errOut io.Writer, failed bool) {
	tracer := activeTracer
	activeTracer = trace.Nop
	if failed {
		if ring := ringOf(tracer); ring != nil {
			fmt.Fprintln(errOut, "trace: last events")
			if err := ring.Dump(errOut, trace.FormatText); err != nil {
				fmt.Fprintf(errOut, "trace: dump error: %v\n", err)
			}
		}
	}
	if err := tracer.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	if err := tracer.Close(); err != nil {
		fmt.Fprintf(errOut, "trace: close error: %v\n", err)
	}
}

func ringOf(t trace.Tracer) *trace.RingTracer {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t
	case *trace.MultiTracer:
		return t.Ring()
	}
	return nil
}
