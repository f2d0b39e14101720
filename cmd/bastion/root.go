// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bastion.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bastion/internal/config"
	"bastion/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "bastion",
		Short: "A prioritized resource pack manager",
		Long: TitleStyle.Render("bastion") + SubtitleStyle.Render(" - A prioritized resource pack manager") + `

bastion manages overlay resource packs: self-contained folders of
namespaced data files that stack in priority order. Higher-priority
packs override resources provided by lower-priority ones, and the
active stack can be reloaded without restarting consumers.

Packs are folders with the ` + CmdStyle.Render(".bpack") + ` suffix containing a ` + CmdStyle.Render("pack.cue") + `
metadata file and resources laid out as ` + CmdStyle.Render("data/<namespace>/<path>") + `.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a pack with: bastion pack create mytextures
  2. Drop resource files under data/<namespace>/
  3. Inspect resources with: bastion resource list

` + SubtitleStyle.Render("Examples:") + `
  bastion pack list               List all discovered packs
  bastion pack validate ./x.bpack Validate a pack folder
  bastion resource cat core:motd  Print a resource to stdout
  bastion watch                   Reload resources on file changes
  bastion config show             Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bastion/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(resourceCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, err := loadConfig(context.Background())
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// loadConfig loads the configuration, honoring the --config flag.
func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
