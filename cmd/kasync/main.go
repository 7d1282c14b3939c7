package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kasync/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "kasync",
	Short: "Cooperative interrupt-driven executor with a simulated keyboard",
	Long: `kasync boots a single-threaded async executor on a simulated CPU.
A PS/2 keyboard and a timer raise interrupts; a task decodes the
scancodes and prints the keys to an 80x25 text console.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to kasync.toml (default: search upward from the working directory)")
	addTraceFlags(rootCmd)
}

// main executes the root command. A command error exits with status 1.
func main() {
	err := rootCmd.Execute()
	finishTracing(os.Stderr, err != nil)
	if err != nil {
		os.Exit(1)
	}
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	colorFlag, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	if err := loadConfig(cmd); err != nil {
		return err
	}
	return setupTracing(cmd)
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
