package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"kasync/internal/keyboard"
	"kasync/internal/recording"
)

var recordCmd = &cobra.Command{
	Use:   "record OUT.kbd",
	Short: "Capture typed text as a scancode recording",
	Long: `Capture the Set 1 scancodes that type the input into a msgpack recording.

From the terminal, the real delay between keys is kept. Text from --input is
spaced by --key-delay.`,
	Args: cobra.ExactArgs(1),
	RunE: recordKeys,
}

func init() {
	recordCmd.Flags().String("input", "", "text to record: a file, or - for stdin (default: interactive terminal)")
	recordCmd.Flags().String("layout", "", "keyboard layout (default from config)")
	recordCmd.Flags().Duration("key-delay", 50*time.Millisecond, "delay recorded between keys of --input text")
}

func recordKeys(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	inputPath, err := flags.GetString("input")
	if err != nil {
		return err
	}
	layoutName := appConfig.Keyboard.Layout
	if flags.Changed("layout") {
		if layoutName, err = flags.GetString("layout"); err != nil {
			return err
		}
	}
	keyDelay, err := flags.GetDuration("key-delay")
	if err != nil {
		return err
	}
	layout, err := keyboard.LayoutFor(layoutName)
	if err != nil {
		return err
	}

	src, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer func() { src.close() }()
	if src.raw {
		fmt.Fprint(cmd.ErrOrStderr(), "recording, Ctrl-D to finish\r\n")
	}

	enc := keyboard.NewEncoder(layout)
	rec := recording.New(layout.Name())
	keys, errs := src.keystrokes()
	var last time.Time
	skipped := 0
	for k := range keys {
		var codes []uint8
		if k.key != keyboard.KeyNone {
			codes = enc.AppendKey(nil, k.key, false)
		} else if codes, err = enc.Encode(k.r); err != nil {
			skipped++
			continue
		}
		delay := keyDelay
		if src.raw {
			delay = 0
			if !last.IsZero() {
				delay = k.at.Sub(last)
			}
			last = k.at
		}
		if err := rec.Append(delay, codes...); err != nil {
			return err
		}
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	src.close()
	src.close = func() {}

	if err := recording.WriteFile(args[0], rec); err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	if quiet, _ := flags.GetBool("quiet"); !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "recorded %d scancodes (%s, %s) to %s\n",
			len(rec.Entries), rec.Layout, rec.Duration().Round(time.Millisecond), args[0])
		if skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "skipped %d characters not on %s\n", skipped, rec.Layout)
		}
	}
	return nil
}
