// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"bastion/pkg/respath"
)

var (
	// resourceCatMeta prints the companion .meta view instead of the resource
	resourceCatMeta bool
	// resourceCatAll prints every overlay entry, lowest priority first
	resourceCatAll bool

	// resourceListNamespace restricts listing to a single namespace
	resourceListNamespace string
)

// resourceCmd represents the resource command group
var resourceCmd = &cobra.Command{
	Use:   "resource",
	Short: "Inspect resources in the active pack stack",
	Long: `Inspect resources served by the active pack stack.

Resources are addressed as ` + CmdStyle.Render("namespace:path") + ` (e.g., ` + CmdStyle.Render("core:blocks/stone.json") + `).
A bare path without a namespace resolves into the configured
` + CmdStyle.Render("default_namespace") + ` (` + CmdStyle.Render("core") + ` unless overridden).

When multiple active packs provide the same path, the highest-priority
pack wins. Use --all to see every overlay entry.

Examples:
  bastion resource cat core:motd.txt
  bastion resource list --namespace core
  bastion resource find "core:blocks/**"`,
}

// resourceCatCmd prints a resource to stdout
var resourceCatCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print a resource to stdout",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourceCat,
}

// resourceListCmd lists all indexed resource paths
var resourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all resource paths in the active stack",
	RunE:  runResourceList,
}

// resourceFindCmd finds resources by glob pattern
var resourceFindCmd = &cobra.Command{
	Use:   "find <pattern>",
	Short: "Find resources matching a glob pattern",
	Long: `Find resources whose qualified path matches a doublestar glob pattern.

Patterns match against the ` + CmdStyle.Render("namespace:path") + ` form of each resource.

Examples:
  bastion resource find "core:blocks/**"
  bastion resource find "**/*.json"`,
	Args: cobra.ExactArgs(1),
	RunE: runResourceFind,
}

func init() {
	resourceCmd.AddCommand(resourceCatCmd)
	resourceCmd.AddCommand(resourceListCmd)
	resourceCmd.AddCommand(resourceFindCmd)

	resourceCatCmd.Flags().BoolVar(&resourceCatMeta, "meta", false, "print the companion .meta document instead")
	resourceCatCmd.Flags().BoolVar(&resourceCatAll, "all", false, "print every overlay entry, lowest priority first")

	resourceListCmd.Flags().StringVarP(&resourceListNamespace, "namespace", "n", "", "restrict listing to a single namespace")
}

func runResourceCat(cmd *cobra.Command, args []string) error {
	mgr, _, cfg, err := newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.Close()

	// Unqualified paths resolve into the configured default namespace.
	rp, err := respath.ParseIn(string(cfg.DefaultNamespace), args[0])
	if err != nil {
		return err
	}

	if resourceCatAll {
		entries := mgr.Resources(rp)
		if len(entries) == 0 {
			return fmt.Errorf("resource %s not found in any active pack", rp)
		}
		for _, r := range entries {
			fmt.Fprintln(os.Stderr, SubtitleStyle.Render(fmt.Sprintf("-- %s (pack %s)", r.Path(), r.PackID())))
			if _, err := r.CopyTo(os.Stdout); err != nil {
				return fmt.Errorf("failed to read resource from pack %s: %w", r.PackID(), err)
			}
		}
		return nil
	}

	r, err := mgr.Resource(rp)
	if err != nil {
		return err
	}

	if resourceCatMeta {
		view, err := r.Meta()
		if err != nil {
			return fmt.Errorf("failed to read metadata for %s: %w", rp, err)
		}
		names := make([]string, 0, len(view))
		for k := range view {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Printf("%s: %v\n", CmdStyle.Render(k), view[k])
		}
		return nil
	}

	if _, err := r.CopyTo(os.Stdout); err != nil {
		return fmt.Errorf("failed to read resource %s: %w", rp, err)
	}
	return nil
}

func runResourceList(cmd *cobra.Command, args []string) error {
	mgr, _, _, err := newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.Close()

	matched, err := mgr.Find("**")
	if err != nil {
		return err
	}

	shown := 0
	for _, r := range matched {
		if resourceListNamespace != "" && r.Path().Namespace() != resourceListNamespace {
			continue
		}
		fmt.Printf("%s %s\n", CmdStyle.Render(r.Path().String()), SubtitleStyle.Render("("+r.PackID()+")"))
		shown++
	}

	if shown == 0 {
		if resourceListNamespace != "" {
			fmt.Printf("%s No resources in namespace %q\n", WarningStyle.Render("!"), resourceListNamespace)
		} else {
			fmt.Printf("%s No resources in the active stack\n", WarningStyle.Render("!"))
		}
	}
	return nil
}

func runResourceFind(cmd *cobra.Command, args []string) error {
	mgr, _, _, err := newManager(cmd.Context())
	if err != nil {
		return err
	}
	defer mgr.Close()

	matched, err := mgr.Find(args[0])
	if err != nil {
		return err
	}

	if len(matched) == 0 {
		fmt.Printf("%s No resources match %q\n", WarningStyle.Render("!"), args[0])
		return nil
	}
	for _, r := range matched {
		fmt.Printf("%s %s\n", CmdStyle.Render(r.Path().String()), SubtitleStyle.Render("("+r.PackID()+")"))
	}
	return nil
}
