// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"bastion/internal/config"
	"bastion/internal/discovery"
	"bastion/pkg/respath"
	"bastion/pkg/resource"
)

var (
	// packValidateDeep enables deep validation including per-file resource path checks
	packValidateDeep bool

	// packCreatePath is the parent directory for pack creation
	packCreatePath string
	// packCreateNamespace seeds a data/<namespace> directory in the pack
	packCreateNamespace string
	// packCreateTitle is the title for the pack metadata
	packCreateTitle string
	// packCreateDescription is the description for the pack metadata
	packCreateDescription string

	// packArchiveOutput is the output path for the archived pack
	packArchiveOutput string

	// packUnpackPath is the destination directory for unpacked packs
	packUnpackPath string
	// packUnpackOverwrite allows overwriting existing packs
	packUnpackOverwrite bool
)

// packCmd represents the pack command group
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage bastion resource packs",
	Long: `Manage bastion resource packs - self-contained folders of namespaced data files.

A pack is a folder with the ` + CmdStyle.Render(".bpack") + ` suffix that contains:
  - Exactly one ` + CmdStyle.Render("pack.cue") + ` metadata file at the root
  - Resource files laid out as ` + CmdStyle.Render("data/<namespace>/<path>") + `

Pack names follow these rules:
  - Must start with a lowercase letter
  - Can contain lowercase alphanumerics with dot-separated segments
  - Compatible with RDNS naming (e.g., ` + CmdStyle.Render("com.example.overrides.bpack") + `)

Examples:
  bastion pack validate ./overrides.bpack
  bastion pack validate ./com.example.textures.bpack --deep`,
}

// packValidateCmd validates a bastion pack
var packValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a bastion pack",
	Long: `Validate the structure and contents of a bastion pack.

Checks performed:
  - Folder name follows pack naming conventions
  - Contains a pack.cue with a matching id and a supported format
  - No nested packs inside
  - data/ contains only namespace directories
  - (with --deep) Every data file is addressable as a resource path

Examples:
  bastion pack validate ./overrides.bpack
  bastion pack validate ./com.example.textures.bpack --deep`,
	Args: cobra.ExactArgs(1),
	RunE: runPackValidate,
}

// packCreateCmd creates a new pack
var packCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new bastion pack",
	Long: `Create a new bastion pack with the given name.

The pack name must follow naming conventions:
  - Start with a lowercase letter
  - Contain only lowercase alphanumerics
  - Use dots to separate segments (RDNS style recommended)

Examples:
  bastion pack create overrides
  bastion pack create com.example.textures
  bastion pack create textures --namespace hd
  bastion pack create textures --path /path/to/dir --title "HD Textures"`,
	Args: cobra.ExactArgs(1),
	RunE: runPackCreate,
}

// packListCmd lists all discovered packs
var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered packs",
	Long: `List all bastion packs discovered in:
  - Current directory
  - User packs directory (~/.bastion/packs)
  - Configured search paths

Examples:
  bastion pack list`,
	RunE: runPackList,
}

// packArchiveCmd creates a ZIP archive from a pack
var packArchiveCmd = &cobra.Command{
	Use:   "archive <path>",
	Short: "Create a ZIP archive from a pack",
	Long: `Create a ZIP archive of a bastion pack for distribution.

The archive will contain the pack directory with all its contents.

Examples:
  bastion pack archive ./textures.bpack
  bastion pack archive ./textures.bpack --output ./dist/textures.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runPackArchive,
}

// packUnpackCmd extracts a pack from a ZIP file or URL
var packUnpackCmd = &cobra.Command{
	Use:   "unpack <source>",
	Short: "Extract a pack from a ZIP file or URL",
	Long: `Extract a bastion pack from a local ZIP file or a URL.

By default, packs are extracted to ~/.bastion/packs.

Examples:
  bastion pack unpack ./textures.bpack.zip
  bastion pack unpack https://example.com/packs/textures.zip
  bastion pack unpack ./pack.zip --path ./local-packs
  bastion pack unpack ./pack.zip --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runPackUnpack,
}

func init() {
	packCmd.AddCommand(packValidateCmd)
	packCmd.AddCommand(packCreateCmd)
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packArchiveCmd)
	packCmd.AddCommand(packUnpackCmd)

	packValidateCmd.Flags().BoolVar(&packValidateDeep, "deep", false, "perform deep validation including per-file resource path checks")

	packCreateCmd.Flags().StringVarP(&packCreatePath, "path", "p", "", "parent directory for the pack (default: current directory)")
	packCreateCmd.Flags().StringVarP(&packCreateNamespace, "namespace", "n", "", "namespace directory to seed (default: last name segment)")
	packCreateCmd.Flags().StringVarP(&packCreateTitle, "title", "t", "", "title for the pack metadata")
	packCreateCmd.Flags().StringVarP(&packCreateDescription, "description", "d", "", "description for the pack metadata")

	packArchiveCmd.Flags().StringVarP(&packArchiveOutput, "output", "o", "", "output path for the ZIP file (default: <pack-name>.bpack.zip)")

	packUnpackCmd.Flags().StringVarP(&packUnpackPath, "path", "p", "", "destination directory (default: ~/.bastion/packs)")
	packUnpackCmd.Flags().BoolVar(&packUnpackOverwrite, "overwrite", false, "overwrite existing pack if present")
}

// Style definitions for pack output
var (
	packSuccessIcon = SuccessStyle.Render("✓")
	packErrorIcon   = ErrorStyle.Render("✗")
	packWarningIcon = WarningStyle.Render("!")
	packInfoIcon    = SubtitleStyle.Render("•")

	packTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	packIssueStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			PaddingLeft(2)

	packIssueTypeStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Italic(true)

	packPathStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	packDetailStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			PaddingLeft(2)
)

func runPackValidate(cmd *cobra.Command, args []string) error {
	packPath := args[0]

	// Convert to absolute path for display
	absPath, err := filepath.Abs(packPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	fmt.Println(packTitleStyle.Render("Pack Validation"))
	fmt.Printf("%s Path: %s\n", packInfoIcon, packPathStyle.Render(absPath))

	// Perform validation
	result, err := resource.Validate(packPath)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	// Display pack name if parsed successfully
	if result.PackName != "" {
		fmt.Printf("%s Name: %s\n", packInfoIcon, CmdStyle.Render(result.PackName))
	}

	// Deep validation: every data file must be addressable as a resource path
	if packValidateDeep && result.Valid {
		validateResourcePaths(absPath, result)
	}

	fmt.Println()

	// Display results
	if result.Valid {
		fmt.Printf("%s Pack is valid\n", packSuccessIcon)

		// Show what was checked
		fmt.Println()
		fmt.Printf("%s Structure check passed\n", packSuccessIcon)
		fmt.Printf("%s Naming convention check passed\n", packSuccessIcon)
		fmt.Printf("%s Metadata parses successfully\n", packSuccessIcon)

		if len(result.Namespaces) > 0 {
			fmt.Printf("%s Namespaces: %s\n", packInfoIcon, CmdStyle.Render(strings.Join(result.Namespaces, ", ")))
		}
		if packValidateDeep {
			fmt.Printf("%s All data files are addressable as resources\n", packSuccessIcon)
		} else {
			fmt.Printf("%s Use --deep to also check per-file resource paths\n", packWarningIcon)
		}

		return nil
	}

	// Display issues
	fmt.Printf("%s Pack validation failed with %d issue(s)\n", packErrorIcon, len(result.Issues))
	fmt.Println()

	for i, vi := range result.Issues {
		issueNum := fmt.Sprintf("%d.", i+1)
		issueType := packIssueTypeStyle.Render(fmt.Sprintf("[%s]", vi.Type))

		if vi.Path != "" {
			fmt.Printf("%s %s %s %s\n", packIssueStyle.Render(issueNum), issueType, packPathStyle.Render(vi.Path), vi.Message)
		} else {
			fmt.Printf("%s %s %s\n", packIssueStyle.Render(issueNum), issueType, vi.Message)
		}
	}

	return &ExitError{Code: 1}
}

// validateResourcePaths walks data/<namespace> and records every file whose
// name cannot be parsed as a resource path. Such files exist on disk but
// are invisible to lookups.
func validateResourcePaths(absPath string, result *resource.ValidationResult) {
	for _, ns := range result.Namespaces {
		nsDir := filepath.Join(absPath, respath.DataDir, ns)
		_ = filepath.WalkDir(nsDir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(nsDir, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if _, err := respath.Of(ns, rel); err != nil {
				result.AddIssue("respath", err.Error(), filepath.Join(respath.DataDir, ns, rel))
			}
			return nil
		})
	}
}

func runPackCreate(cmd *cobra.Command, args []string) error {
	packName := args[0]

	fmt.Println(packTitleStyle.Render("Create Pack"))

	// Create the pack
	opts := resource.CreateOptions{
		Name:        packName,
		ParentDir:   packCreatePath,
		Title:       packCreateTitle,
		Description: packCreateDescription,
		Namespace:   packCreateNamespace,
	}

	packPath, err := resource.Create(opts)
	if err != nil {
		return fmt.Errorf("failed to create pack: %w", err)
	}

	fmt.Printf("%s Pack created successfully\n", packSuccessIcon)
	fmt.Println()
	fmt.Printf("%s Path: %s\n", packInfoIcon, packPathStyle.Render(packPath))
	fmt.Printf("%s Name: %s\n", packInfoIcon, CmdStyle.Render(packName))

	fmt.Println()
	fmt.Printf("%s Next steps:\n", packInfoIcon)
	fmt.Printf("   1. Edit %s to describe the pack\n", packPathStyle.Render(filepath.Join(packPath, resource.MetadataFile)))
	fmt.Printf("   2. Add resource files under %s\n", packPathStyle.Render(filepath.Join(packPath, respath.DataDir)))
	fmt.Printf("   3. Run %s to validate\n", CmdStyle.Render("bastion pack validate "+packPath))

	return nil
}

func runPackList(cmd *cobra.Command, args []string) error {
	fmt.Println(packTitleStyle.Render("Discovered Packs"))

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	disc := discovery.New(cfg)
	packs, err := disc.DiscoverAll()
	if err != nil {
		return fmt.Errorf("failed to discover packs: %w", err)
	}

	if len(packs) == 0 {
		fmt.Printf("%s No packs found\n", packWarningIcon)
		fmt.Println()
		fmt.Printf("%s Packs are discovered in:\n", packInfoIcon)
		fmt.Printf("   - Current directory\n")
		fmt.Printf("   - User packs directory (~/.bastion/packs)\n")
		fmt.Printf("   - Configured search paths\n")
		return nil
	}

	fmt.Printf("%s Found %d pack(s)\n", packInfoIcon, len(packs))
	fmt.Println()

	// Group by source
	bySource := make(map[discovery.Source][]*discovery.DiscoveredPack)
	for _, p := range packs {
		bySource[p.Source] = append(bySource[p.Source], p)
	}

	// Display packs by source
	sources := []discovery.Source{
		discovery.SourceCurrentDir,
		discovery.SourceUserDir,
		discovery.SourceConfigPath,
	}

	for _, source := range sources {
		sourcePacks := bySource[source]
		if len(sourcePacks) == 0 {
			continue
		}

		fmt.Printf("%s %s:\n", packInfoIcon, source.String())
		for _, p := range sourcePacks {
			if p.Error != nil {
				fmt.Printf("   %s %s\n", packErrorIcon, ErrorStyle.Render(filepath.Base(p.Path)))
				fmt.Printf("      %s\n", packDetailStyle.Render(p.Error.Error()))
				continue
			}
			id := disc.EffectiveID(p)
			fmt.Printf("   %s %s\n", packSuccessIcon, CmdStyle.Render(id))
			fmt.Printf("      %s\n", packDetailStyle.Render(p.Path))
		}
		fmt.Println()
	}

	if err := disc.CheckCollisions(packs); err != nil {
		fmt.Printf("%s %s\n", packWarningIcon, formatErrorForDisplay(err, verbose))
	}

	return nil
}

func runPackArchive(cmd *cobra.Command, args []string) error {
	packPath := args[0]

	fmt.Println(packTitleStyle.Render("Archive Pack"))

	// Archive the pack
	zipPath, err := resource.Archive(packPath, packArchiveOutput)
	if err != nil {
		return fmt.Errorf("failed to archive pack: %w", err)
	}

	// Get file info for size
	info, err := os.Stat(zipPath)
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	fmt.Printf("%s Pack archived successfully\n", packSuccessIcon)
	fmt.Println()
	fmt.Printf("%s Output: %s\n", packInfoIcon, packPathStyle.Render(zipPath))
	fmt.Printf("%s Size: %s\n", packInfoIcon, formatFileSize(info.Size()))

	return nil
}

func runPackUnpack(cmd *cobra.Command, args []string) error {
	source := args[0]

	fmt.Println(packTitleStyle.Render("Unpack Pack"))

	// Default destination to the user packs directory
	destDir := packUnpackPath
	if destDir == "" {
		var err error
		destDir, err = config.PacksDir()
		if err != nil {
			return fmt.Errorf("failed to get packs directory: %w", err)
		}
		if err := config.EnsurePacksDir(); err != nil {
			return fmt.Errorf("failed to create packs directory: %w", err)
		}
	}

	opts := resource.UnpackOptions{
		Source:    source,
		DestDir:   destDir,
		Overwrite: packUnpackOverwrite,
	}

	packPath, err := resource.Unpack(opts)
	if err != nil {
		return fmt.Errorf("failed to unpack pack: %w", err)
	}

	// Open the pack to get its id
	p, err := resource.OpenDir(packPath)
	if err != nil {
		return fmt.Errorf("failed to open unpacked pack: %w", err)
	}

	fmt.Printf("%s Pack unpacked successfully\n", packSuccessIcon)
	fmt.Println()
	fmt.Printf("%s Name: %s\n", packInfoIcon, CmdStyle.Render(p.ID()))
	fmt.Printf("%s Path: %s\n", packInfoIcon, packPathStyle.Render(packPath))
	fmt.Println()
	fmt.Printf("%s The pack resources are now available via bastion\n", packInfoIcon)

	return nil
}

// formatFileSize formats a file size in bytes to a human-readable string
func formatFileSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
