// Package report turns collect-all scan results into the user-facing audit
// report: root permissions, per-user additional access, and the subtrees
// whose access list diverges from the root.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mtalvio/onedrive-audit/internal/scan"
)

// Report is the assembled audit result.
type Report struct {
	RootPath        string                         `json:"rootPath"`
	Depth           int                            `json:"depth"`
	RootUsers       map[string]string              `json:"rootUsers"`
	AdditionalUsers map[string][]scan.FolderAccess `json:"additionalUsers,omitempty"`
	SpecialFolders  []scan.SpecialFolder           `json:"specialFolders,omitempty"`
	UniqueUsers     int                            `json:"uniqueUsers"`
	SubfolderCount  int                            `json:"subfolderCount"`
}

// Build assembles a report from collect-all results. depth is the traversal
// depth the scan ran with; the additional-users and special-folders sections
// only apply when the scan actually recursed.
func Build(results []scan.CollectedNode, depth int) (*Report, error) {
	var root *scan.CollectedNode
	for i := range results {
		if results[i].IsRoot {
			root = &results[i]
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("scan results contain no root node")
	}

	rootUsers := scan.ExtractUsers(root.Permissions)

	r := &Report{
		RootPath:       root.Node.Path,
		Depth:          depth,
		RootUsers:      rootUsers,
		SubfolderCount: len(results) - 1,
	}

	unique := make(map[string]struct{})
	for email := range rootUsers {
		unique[email] = struct{}{}
	}

	if depth > 0 {
		r.AdditionalUsers = scan.BuildUserFolderMap(rootUsers, results)
		r.SpecialFolders = scan.DetectSpecialFolders(rootUsers, results)
		for _, cn := range results {
			for email := range scan.ExtractUsers(cn.Permissions) {
				unique[email] = struct{}{}
			}
		}
	}
	r.UniqueUsers = len(unique)

	return r, nil
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Permissions on %s\n", r.RootPath)
	fmt.Fprintln(w, strings.Repeat("-", 60))

	if len(r.RootUsers) == 0 {
		fmt.Fprintln(w, "  (no non-owner permissions)")
	}
	for _, email := range sortedKeys(r.RootUsers) {
		fmt.Fprintf(w, "  %-40s %s\n", email, r.RootUsers[email])
	}

	if r.Depth == 0 {
		fmt.Fprintf(w, "\n%d user(s) with access\n", len(r.RootUsers))
		return
	}

	if len(r.AdditionalUsers) > 0 {
		fmt.Fprintln(w, "\nAdditional users (access below the root only)")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, email := range sortedKeys(r.AdditionalUsers) {
			fmt.Fprintf(w, "  %s\n", email)
			for _, fa := range r.AdditionalUsers[email] {
				fmt.Fprintf(w, "    %-38s %s\n", fa.Path, fa.Role)
			}
		}
	}

	if len(r.SpecialFolders) > 0 {
		fmt.Fprintln(w, "\nSpecial folders (permissions differ from the root)")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, sf := range r.SpecialFolders {
			fmt.Fprintf(w, "  [%s] %s\n", sf.Label, sf.Node.Path)
			for _, email := range sortedKeys(sf.Users) {
				fmt.Fprintf(w, "    %-38s %s\n", email, sf.Users[email])
			}
			if len(sf.LostUsers) > 0 {
				fmt.Fprintf(w, "    Access removed: %s\n", strings.Join(sf.LostUsers, ", "))
			}
		}
	}

	fmt.Fprintf(w, "\n%d unique users across 1 root + %d subfolders\n", r.UniqueUsers, r.SubfolderCount)
}

// RenderJSON writes the report as indented JSON.
func (r *Report) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
