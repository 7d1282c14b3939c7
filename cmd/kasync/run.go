package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kasync/internal/config"
	"kasync/internal/console"
	"kasync/internal/kernel"
	"kasync/internal/observ"
	"kasync/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the kernel and type into it",
	Long: `Boot the kernel and type into the simulated keyboard.

Without --input, keys are read from the terminal in raw mode until Ctrl-D.
With --input, the file's text (or stdin for "-") is typed and the kernel
stops once every key has been printed.`,
	Args: cobra.NoArgs,
	RunE: runKernel,
}

func init() {
	runCmd.Flags().String("input", "", "text to type: a file, or - for stdin (default: interactive terminal)")
	runCmd.Flags().String("ui", "off", "live monitor (auto|on|off)")
	runCmd.Flags().Lookup("ui").NoOptDefVal = "on"
	runCmd.Flags().Duration("key-delay", time.Millisecond, "pause after each typed key when reading --input")
	addKernelFlags(runCmd)
}

// addKernelFlags registers the flags that override kasync.toml.
func addKernelFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timer", 0, "timer interrupt interval, 0 disables (default from config)")
	cmd.Flags().String("layout", "", "keyboard layout: us104, uk105 or a language tag (default from config)")
	cmd.Flags().Int("ready-capacity", 0, "executor ready queue capacity (default from config)")
	cmd.Flags().Int("queue-capacity", 0, "scancode queue capacity (default from config)")
	cmd.Flags().Bool("fuzz", false, "shuffle each batch of ready tasks")
	cmd.Flags().Uint64("seed", 0, "seed for --fuzz")
}

// kernelConfig applies explicitly set flags on top of appConfig.
func kernelConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := appConfig
	flags := cmd.Flags()
	var err error
	if flags.Changed("timer") {
		if cfg.Timer.Interval, err = flags.GetDuration("timer"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("layout") {
		if cfg.Keyboard.Layout, err = flags.GetString("layout"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("ready-capacity") {
		if cfg.Executor.ReadyCapacity, err = flags.GetInt("ready-capacity"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("queue-capacity") {
		if cfg.Keyboard.QueueCapacity, err = flags.GetInt("queue-capacity"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("fuzz") {
		if cfg.Executor.Fuzz, err = flags.GetBool("fuzz"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("seed") {
		if cfg.Executor.Seed, err = flags.GetUint64("seed"); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runKernel(cmd *cobra.Command, _ []string) error {
	timings := observ.NewTimer()
	cfg, err := kernelConfig(cmd)
	if err != nil {
		return err
	}
	inputPath, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	keyDelay, err := cmd.Flags().GetDuration("key-delay")
	if err != nil {
		return err
	}
	useUI := shouldUseTUI(mode)

	ctx, stop := runContext(cmd)
	defer stop()
	tracer := trace.FromContext(ctx)

	var src *inputSource
	if !useUI || inputPath != "" {
		if src, err = openInput(inputPath); err != nil {
			return err
		}
		defer func() { src.close() }()
	}

	var mirror io.Writer
	if !useUI {
		mirror = cmd.OutOrStdout()
		if src.raw {
			mirror = crlfWriter{w: mirror}
		}
	}

	var k *kernel.Kernel
	err = timings.Track("boot", func() error {
		var bootErr error
		k, bootErr = kernel.Boot(ctx, cfg, kernel.Options{Console: console.NewWriter(mirror)})
		return bootErr
	})
	if err != nil {
		return err
	}

	var feed kernel.Feeder
	if src != nil {
		delay := keyDelay
		if src.raw {
			delay = 0
		}
		feed = typingFeeder(src, delay, tracer)
	}

	err = timings.Track("run", func() error {
		if useUI {
			return runWithUI(ctx, k, feed)
		}
		return k.Run(ctx, feed)
	})
	if src != nil {
		src.close()
		src.close = func() {}
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return reportRun(cmd, k, timings)
}

// reportRun prints kernel stats unless --quiet, then timings if requested.
func reportRun(cmd *cobra.Command, k *kernel.Kernel, timings *observ.Timer) error {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !quiet {
		if !strings.HasSuffix(k.Console.String(), "\n") {
			fmt.Fprintln(out)
		}
		printStats(out, k.Stats())
	}
	if showTimings {
		fmt.Fprint(out, timings.Summary())
	}
	return nil
}

// runContext is the command context, cancelled by SIGINT.
func runContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}
