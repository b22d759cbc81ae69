package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path|item-id>",
	Short: "List shared items in a tree, optionally for one user",
	Long: `Walks the tree and lists every item that is shared, either by direct
grant or by sharing link. With --user, only items carrying an explicit
(non-inherited) grant matching that user are listed, and the scan does not
descend below a match: descendants inherit the same grant.

User matching is a substring match on the lower-cased email, so a partial
address matches every mailbox containing it; use --exact-match for
case-insensitive equality instead.`,
	Example: `  onedrive-audit scan /Finance --depth 2
  onedrive-audit scan / --user bob@example.com --depth 4
  onedrive-audit scan /Shared --type both`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, credentials.CapabilityUnknown)
		if err != nil {
			return err
		}
		return scanLogic(a, cmd, args)
	},
}

func init() {
	scanCmd.Flags().Int("depth", 2, "how many levels below the root to scan")
	scanCmd.Flags().String("user", "", "only report items with an explicit grant for this email")
	scanCmd.Flags().String("type", "folders", "item kinds to examine: folders, files or both")
	scanCmd.Flags().Bool("exact-match", false, "match --user by equality instead of substring")
}

func scanLogic(a *App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	depth, _ := cmd.Flags().GetInt("depth")
	user, _ := cmd.Flags().GetString("user")
	typeStr, _ := cmd.Flags().GetString("type")
	exact, _ := cmd.Flags().GetBool("exact-match")

	if depth < 0 {
		return fmt.Errorf("depth must be zero or positive")
	}
	filter, err := scan.ParseItemFilter(typeStr)
	if err != nil {
		return err
	}

	start, err := scan.ResolveStart(ctx, a.SDK, args[0])
	if err != nil {
		return err
	}

	spinner := ui.NewScanSpinner("scanning")
	scanner := &scan.Scanner{
		API:      a.SDK,
		Logger:   a.Logger,
		MaxDepth: depth,
		Filter:   filter,
		OnVisit:  func(scan.Node) { spinner.Add(1) },
	}

	visitor := &scan.Filter{TargetUser: user, ExactMatch: exact}
	if err := scanner.Run(ctx, start, visitor); err != nil {
		spinner.Finish()
		return fmt.Errorf("scanning '%s': %w", start.Path, err)
	}
	spinner.Finish()

	ui.DisplayFilterHits(visitor.Hits)
	return nil
}
