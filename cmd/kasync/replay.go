package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kasync/internal/console"
	"kasync/internal/device"
	"kasync/internal/kernel"
	"kasync/internal/observ"
	"kasync/internal/recording"
)

var replayCmd = &cobra.Command{
	Use:   "replay IN.kbd",
	Short: "Boot the kernel and inject a scancode recording",
	Args:  cobra.ExactArgs(1),
	RunE:  replayRecording,
}

func init() {
	replayCmd.Flags().Float64("speed", 1, "replay speed factor (2 is twice as fast)")
	addKernelFlags(replayCmd)
}

func replayRecording(cmd *cobra.Command, args []string) error {
	timings := observ.NewTimer()
	speed, err := cmd.Flags().GetFloat64("speed")
	if err != nil {
		return err
	}
	if speed <= 0 {
		return fmt.Errorf("--speed must be positive, got %g", speed)
	}

	var rec *recording.Recording
	err = timings.Track("load", func() error {
		var loadErr error
		rec, loadErr = recording.ReadFile(args[0])
		return loadErr
	})
	if err != nil {
		return err
	}

	cfg, err := kernelConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("layout") {
		cfg.Keyboard.Layout = rec.Layout
	}

	ctx, stop := runContext(cmd)
	defer stop()

	var k *kernel.Kernel
	err = timings.Track("boot", func() error {
		var bootErr error
		k, bootErr = kernel.Boot(ctx, cfg, kernel.Options{Console: console.NewWriter(cmd.OutOrStdout())})
		return bootErr
	})
	if err != nil {
		return err
	}

	feed := func(ctx context.Context, kb *device.Keyboard) error {
		err := rec.Replay(ctx, speed, func(b uint8) { kb.Inject(b) })
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	err = timings.Track("run", func() error {
		return k.Run(ctx, feed)
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return reportRun(cmd, k, timings)
}
