package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kasync/internal/config"
)

var (
	appConfig     = config.Default()
	appConfigPath string
)

// loadConfig reads --config, or the kasync.toml found upward from the
// working directory, into appConfig.
func loadConfig(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		appConfig, appConfigPath = cfg, path
		return nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, found, err := config.Discover(wd)
	if err != nil {
		return err
	}
	appConfig, appConfigPath = cfg, found
	return nil
}
