// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"bastion/pkg/registry"
)

// keysListNamespace restricts listing to a single namespace
var keysListNamespace string

// keysCmd represents the keys command group
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Inspect well-known attribute keys",
	Long: `Inspect the well-known attribute keys shipped with bastion.

Each key pairs a resource path id with a value kind. Manipulators built
from these keys only accept values of the declared kind.

Examples:
  bastion keys list
  bastion keys list --namespace core`,
}

// keysListCmd lists all registered keys
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all well-known attribute keys",
	RunE:  runKeysList,
}

func init() {
	keysCmd.AddCommand(keysListCmd)

	keysListCmd.Flags().StringVarP(&keysListNamespace, "namespace", "n", "", "restrict listing to a single namespace")
}

func runKeysList(cmd *cobra.Command, args []string) error {
	all := registry.Default().Keys().All()

	shown := 0
	for _, k := range all {
		if keysListNamespace != "" && k.ID().Namespace() != keysListNamespace {
			continue
		}
		fmt.Printf("%s %s\n", CmdStyle.Render(k.ID().String()), SubtitleStyle.Render(k.Kind().String()))
		shown++
	}

	if shown == 0 {
		fmt.Printf("%s No keys in namespace %q\n", WarningStyle.Render("!"), keysListNamespace)
		return nil
	}
	fmt.Println()
	fmt.Printf("%s %d key(s)\n", SubtitleStyle.Render("•"), shown)
	return nil
}
