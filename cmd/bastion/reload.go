// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// reloadCmd rebuilds the resource index once and reports the result
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rebuild the resource index from discovered packs",
	Long: `Discover packs, rebuild the resource index, and report the active stack.

Useful as a one-shot health check: broken packs, id collisions, and
unreadable resources all surface here.

Examples:
  bastion reload`,
	RunE: runReload,
}

func runReload(cmd *cobra.Command, args []string) error {
	mgr, _, _, err := newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.Close()

	active := mgr.Active()
	fmt.Printf("%s Resource index rebuilt\n", SuccessStyle.Render("✓"))
	if len(active) == 0 {
		fmt.Printf("%s No packs active\n", WarningStyle.Render("!"))
		return nil
	}

	// Active() is lowest priority first; show the winning pack last.
	fmt.Printf("%s Active stack (lowest priority first): %s\n",
		SubtitleStyle.Render("•"), CmdStyle.Render(strings.Join(active, " < ")))
	return nil
}
