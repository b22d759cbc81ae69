package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/report"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/internal/ui"
)

var auditCmd = &cobra.Command{
	Use:   "audit <path|item-id>",
	Short: "Report who has access to a tree and where that access entered",
	Long: `Walks the tree rooted at the given folder, collects every node's
permission list, and prints a three-section report: the root's permissions,
users whose access only exists below the root, and subtrees whose access
list is restricted, extended, or simply different compared to the root.

With --depth 0 (the default) only the root item itself is examined.
Arguments starting with "/" are treated as drive paths, anything else as an
item ID.`,
	Example: `  onedrive-audit audit /Finance --depth 3
  onedrive-audit audit /Projects/Alpha --depth 2 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, credentials.CapabilityUnknown)
		if err != nil {
			return err
		}
		return auditLogic(a, cmd, args)
	},
}

func init() {
	auditCmd.Flags().Int("depth", 0, "how many levels below the root to scan (0 = root only)")
	auditCmd.Flags().Bool("json", false, "emit the report as JSON")
}

func auditLogic(a *App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	depth, _ := cmd.Flags().GetInt("depth")
	asJSON, _ := cmd.Flags().GetBool("json")
	if depth < 0 {
		return fmt.Errorf("depth must be zero or positive")
	}

	start, err := scan.ResolveStart(ctx, a.SDK, args[0])
	if err != nil {
		return err
	}

	scanner := &scan.Scanner{
		API:      a.SDK,
		Logger:   a.Logger,
		MaxDepth: depth,
		Filter:   scan.FilterFolders,
	}
	if !asJSON {
		spinner := ui.NewScanSpinner("scanning")
		scanner.OnVisit = func(scan.Node) { spinner.Add(1) }
		defer spinner.Finish()
	}

	collector := &scan.Collector{}
	if err := scanner.Run(ctx, start, collector); err != nil {
		return fmt.Errorf("scanning '%s': %w", start.Path, err)
	}

	rep, err := report.Build(collector.Results, depth)
	if err != nil {
		return err
	}

	if asJSON {
		return rep.RenderJSON(os.Stdout)
	}
	rep.Render(os.Stdout)
	return nil
}
