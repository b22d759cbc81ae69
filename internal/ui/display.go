// Package ui formats scan results, permissions, and status messages for the
// console, and provides the traversal progress spinner.
package ui

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// PrintSuccess prints a formatted success message.
func PrintSuccess(msg string, args ...interface{}) {
	log.Printf("SUCCESS: "+msg, args...)
}

// PrintError prints a formatted error message.
func PrintError(err error) {
	log.Printf("ERROR: %v", err)
}

// NewScanSpinner returns an indeterminate progress spinner on stderr for
// long traversals. Call Finish when the scan completes.
func NewScanSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

// DisplayFilterHits prints the filter-mode scan results as a table.
func DisplayFilterHits(hits []scan.FilterHit) {
	if len(hits) == 0 {
		fmt.Println("No shared items found.")
		return
	}

	fmt.Printf("%-3s %-45s %-12s %5s  %s\n", "", "Path", "Share", "Perms", "Users")
	fmt.Println(strings.Repeat("-", 90))
	for _, hit := range hits {
		fmt.Printf("%-3s %-45.45s %-12s %5d  %s\n",
			hit.Symbol, hit.Node.Path, hit.ShareType, hit.PermissionCount,
			strings.Join(hit.SharedUsers, ", "))
	}
	fmt.Printf("\n%d shared item(s)\n", len(hits))
}

// DisplayPermissions prints an item's raw permission list.
func DisplayPermissions(perms []graph.Permission, path string) {
	if len(perms) == 0 {
		fmt.Printf("No permissions on %s.\n", path)
		return
	}

	fmt.Printf("Permissions on %s:\n", path)
	fmt.Printf("%-30s %-12s %-10s %s\n", "Permission ID", "Roles", "Origin", "Granted to")
	fmt.Println(strings.Repeat("-", 90))
	for _, p := range perms {
		origin := "explicit"
		if p.IsInherited() {
			origin = "inherited"
		}
		grantee := "-"
		if p.HasLink() {
			grantee = fmt.Sprintf("link (%s, %s)", p.Link.Type, p.Link.Scope)
		} else if ids := p.Principals(); len(ids) > 0 {
			names := make([]string, 0, len(ids))
			for _, id := range ids {
				if id.Email != "" {
					names = append(names, id.Email)
				} else {
					names = append(names, id.DisplayName)
				}
			}
			grantee = strings.Join(names, ", ")
		}
		fmt.Printf("%-30.30s %-12s %-10s %s\n", p.ID, strings.Join(p.Roles, ","), origin, grantee)
	}
}

// DisplayInviteResult confirms a grant and shows the created permission(s).
func DisplayInviteResult(perms []graph.Permission, path, email string) {
	fmt.Printf("Invited %s to %s.\n", email, path)
	for _, p := range perms {
		fmt.Printf("  permission %s, roles: %s\n", p.ID, strings.Join(p.Roles, ","))
	}
}

// DisplayCredentialStatus shows where the active token came from and what it
// can do.
func DisplayCredentialStatus(cred *credentials.Credential) {
	fmt.Println("Authenticated.")
	fmt.Printf("  Source:     %s\n", cred.Source)
	if cred.Remote != "" {
		fmt.Printf("  Remote:     %s\n", cred.Remote)
	}
	fmt.Printf("  Capability: %s\n", cred.Capability)
	if !cred.ExpiresAt.IsZero() {
		fmt.Printf("  Expires:    %s\n", cred.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if cred.Scope != "" {
		fmt.Printf("  Scopes:     %s\n", cred.Scope)
	}
}
