// Package cmd defines the onedrive-audit command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onedrive-audit",
	Short: "Audit and edit sharing permissions on a OneDrive tree",
	Long: `onedrive-audit answers "who has access to this tree, and where did that
access enter the hierarchy?" for Microsoft OneDrive.

It walks a folder hierarchy, classifies each subtree's access list against
the root (inherited, restricted, extended, or different), and can grant or
revoke access. Credentials come either from this tool's own token store
('auth login') or, read-only, from an existing rclone configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("remote", "", "rclone remote name for the foreign token source (default: first onedrive remote)")
	rootCmd.PersistentFlags().String("rclone-config", "", "path to the rclone configuration file")
	rootCmd.PersistentFlags().Bool("prefer-owned", true, "prefer this tool's own token store over the rclone token")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(authCmd)
}
