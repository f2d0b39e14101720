// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"bastion/internal/issue"
	"bastion/internal/watch"
)

var (
	// watchPatterns are extra glob patterns selecting which files trigger reloads
	watchPatterns []string
	// watchIgnore are extra glob patterns for files that never trigger reloads
	watchIgnore []string
)

// errWatchDisabled rejects bastion watch when the config turns watching off.
var errWatchDisabled = errors.New("file watching is disabled by configuration")

// watchCmd watches pack directories and reloads the index on changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch pack directories and reload on changes",
	Long: `Watch every discovered pack directory and rebuild the resource index
whenever pack metadata or data files change.

Rapid bursts of writes are debounced into a single reload. The debounce
window comes from the ` + CmdStyle.Render("watch.debounce") + ` config setting.

Examples:
  bastion watch
  bastion watch --pattern "data/**/*.json"`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringArrayVar(&watchPatterns, "pattern", nil, "glob patterns that trigger reloads (default: pack.cue and data/**)")
	watchCmd.Flags().StringArrayVar(&watchIgnore, "ignore", nil, "glob patterns that never trigger reloads")
}

func runWatch(cmd *cobra.Command, args []string) error {
	mgr, disc, cfg, err := newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.Close()

	if !cfg.Watch.Enabled {
		return issue.NewErrorContext().
			WithOperation("starting the file watcher").
			WithSuggestion("set watch.enabled to true in config.cue").
			Wrap(errWatchDisabled).
			BuildError()
	}

	packs, err := disc.DiscoverAll()
	if err != nil {
		return fmt.Errorf("pack discovery failed: %w", err)
	}

	var roots []string
	for _, dp := range packs {
		if dp.Error != nil {
			continue
		}
		roots = append(roots, dp.Path)
	}
	if len(roots) == 0 {
		return fmt.Errorf("no packs to watch")
	}

	fmt.Printf("%s Watching %d pack(s) for changes (Ctrl+C to stop)...\n\n",
		VerboseStyle.Render("→"), len(roots))

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "watch"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	w, err := watch.New(watch.Config{
		Roots:    roots,
		Patterns: watchPatterns,
		Ignore:   watchIgnore,
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Printf("%s Detected %d change(s). Reloading...\n",
				VerboseStyle.Render("→"), len(changed))
			if reloadErr := mgr.Reload(ctx); reloadErr != nil {
				// Log but don't stop - the user may fix the pack and save again.
				fmt.Fprintf(os.Stderr, "%s Reload failed: %v\n", WarningStyle.Render("!"), reloadErr)
				return nil
			}
			fmt.Printf("%s Resource index rebuilt\n\n", SuccessStyle.Render("✓"))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(cmd.Context())
}
