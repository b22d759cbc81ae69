package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/internal/ui"
	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

var grantCmd = &cobra.Command{
	Use:   "grant <path|item-id> <email>",
	Short: "Invite a user to a file or folder",
	Long: `Grants a user access to an item by sending a sharing invitation.
Requires a full-capability token; the credential check happens before any
remote call is made.`,
	Example: `  onedrive-audit grant /Finance/Reports carol@example.com --role write
  onedrive-audit grant /Docs/Plan.docx bob@example.com --role read --message "please review"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, credentials.CapabilityFull)
		if err != nil {
			return err
		}
		return grantLogic(a, cmd, args)
	},
}

func init() {
	grantCmd.Flags().String("role", "read", "role to grant: read or write")
	grantCmd.Flags().String("message", "", "optional message in the invitation email")
	grantCmd.Flags().Bool("require-signin", true, "require the recipient to sign in")
	grantCmd.Flags().Bool("send-invitation", true, "send an invitation email")
}

func grantLogic(a *App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	email := args[1]

	role, _ := cmd.Flags().GetString("role")
	if role != "read" && role != "write" {
		return fmt.Errorf("invalid role '%s', want read or write", role)
	}
	message, _ := cmd.Flags().GetString("message")
	requireSignIn, _ := cmd.Flags().GetBool("require-signin")
	sendInvitation, _ := cmd.Flags().GetBool("send-invitation")

	start, err := scan.ResolveStart(ctx, a.SDK, args[0])
	if err != nil {
		return err
	}

	perms, err := a.SDK.InviteUser(ctx, start.ID, graph.InviteRequest{
		Recipients:     []graph.DriveRecipient{{Email: email}},
		Roles:          []string{role},
		RequireSignIn:  requireSignIn,
		SendInvitation: sendInvitation,
		Message:        message,
	})
	if err != nil {
		return fmt.Errorf("inviting %s to '%s': %w", email, start.Path, err)
	}

	ui.DisplayInviteResult(perms, start.Path, email)
	return nil
}
