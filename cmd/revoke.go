package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/internal/ui"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <path|item-id> [permission-id]",
	Short: "Remove a permission from a file or folder",
	Long: `Removes an explicit permission from an item. Inherited permissions cannot
be removed here; revoke them where they were granted. With --all, every
explicit non-owner permission on the item is removed.`,
	Example: `  onedrive-audit revoke /Finance/Reports aTowIzYxNzYx
  onedrive-audit revoke /Finance/Reports --all`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, credentials.CapabilityFull)
		if err != nil {
			return err
		}
		return revokeLogic(a, cmd, args)
	},
}

func init() {
	revokeCmd.Flags().Bool("all", false, "remove all explicit non-owner permissions")
}

func revokeLogic(a *App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")

	if all && len(args) > 1 {
		return fmt.Errorf("--all takes no permission ID")
	}
	if !all && len(args) < 2 {
		return fmt.Errorf("a permission ID is required unless --all is given")
	}

	start, err := scan.ResolveStart(ctx, a.SDK, args[0])
	if err != nil {
		return err
	}

	if all {
		result, err := a.SDK.StripExplicit(ctx, start.ID)
		if err != nil {
			return fmt.Errorf("stripping permissions from '%s': %w", start.Path, err)
		}
		ui.PrintSuccess("removed %d permission(s) from %s, %d failed", result.Removed, start.Path, result.Failed)
		return nil
	}

	permissionID := args[1]

	// Refuse inherited permissions up front rather than letting the API
	// return an opaque error for them.
	perms, err := a.SDK.ListPermissions(ctx, start.ID)
	if err != nil {
		return fmt.Errorf("listing permissions on '%s': %w", start.Path, err)
	}
	for _, p := range perms {
		if p.ID != permissionID {
			continue
		}
		if p.IsInherited() {
			return fmt.Errorf("permission %s on '%s' is inherited from %s; revoke it there", permissionID, start.Path, p.InheritedFrom.Path)
		}
		if p.IsOwner() {
			return fmt.Errorf("permission %s on '%s' is the owner permission and cannot be removed", permissionID, start.Path)
		}
	}

	if err := a.SDK.DeletePermission(ctx, start.ID, permissionID); err != nil {
		return fmt.Errorf("removing permission %s from '%s': %w", permissionID, start.Path, err)
	}
	ui.PrintSuccess("removed permission %s from %s", permissionID, start.Path)
	return nil
}
