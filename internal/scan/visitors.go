package scan

import (
	"sort"
	"strings"

	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// CollectedNode is one traversal result in collect-all mode.
type CollectedNode struct {
	Node        Node
	Permissions []graph.Permission
	IsRoot      bool
}

// Collector gathers every visited node with its raw permissions and always
// descends. The audit reporter consumes the result.
type Collector struct {
	Results []CollectedNode
}

func (c *Collector) Visit(node Node, perms []graph.Permission) (bool, error) {
	c.Results = append(c.Results, CollectedNode{
		Node:        node,
		Permissions: perms,
		IsRoot:      node.Depth == 0,
	})
	return true, nil
}

// FilterHit is one traversal result in filter mode.
type FilterHit struct {
	Node            Node     `json:"node"`
	Symbol          string   `json:"symbol"`
	ShareType       string   `json:"shareType"`
	PermissionCount int      `json:"permissionCount"`
	SharedUsers     []string `json:"sharedUsers"`
}

// Filter records nodes that are shared or, when TargetUser is set, nodes
// carrying an explicit grant for that user. On an explicit match the
// subtree is pruned: descendants inherit the same grant.
type Filter struct {
	// TargetUser narrows hits to nodes with an explicit (non-inherited,
	// non-owner) permission matching this email.
	TargetUser string
	// ExactMatch switches the target comparison from substring to
	// case-insensitive equality.
	ExactMatch bool

	Hits []FilterHit
}

func (f *Filter) Visit(node Node, perms []graph.Permission) (bool, error) {
	hasLink := false
	hasDirect := false
	count := 0
	for _, p := range perms {
		if p.IsOwner() {
			continue
		}
		count++
		if p.HasLink() {
			hasLink = true
		} else {
			hasDirect = true
		}
	}

	users := ExtractUsers(perms)
	sharedUsers := make([]string, 0, len(users))
	for email := range users {
		sharedUsers = append(sharedUsers, email)
	}
	sort.Strings(sharedUsers)

	if f.TargetUser != "" {
		if !f.matchesExplicit(perms) {
			return true, nil
		}
		f.Hits = append(f.Hits, FilterHit{
			Node:            node,
			Symbol:          shareSymbol(hasLink, hasDirect),
			ShareType:       shareType(hasLink, hasDirect),
			PermissionCount: count,
			SharedUsers:     sharedUsers,
		})
		// Explicit grant found here; descendants inherit it.
		return false, nil
	}

	if hasLink || hasDirect {
		f.Hits = append(f.Hits, FilterHit{
			Node:            node,
			Symbol:          shareSymbol(hasLink, hasDirect),
			ShareType:       shareType(hasLink, hasDirect),
			PermissionCount: count,
			SharedUsers:     sharedUsers,
		})
	}
	return true, nil
}

// matchesExplicit reports whether any explicit (non-inherited, non-owner)
// permission names the target user. Matching is substring on the lower-cased
// email unless ExactMatch is set.
func (f *Filter) matchesExplicit(perms []graph.Permission) bool {
	target := strings.ToLower(f.TargetUser)
	for _, p := range perms {
		if p.IsOwner() || p.IsInherited() {
			continue
		}
		for _, id := range p.Principals() {
			email := strings.ToLower(id.Email)
			if email == "" {
				continue
			}
			if f.ExactMatch {
				if email == target {
					return true
				}
			} else if strings.Contains(email, target) {
				return true
			}
		}
	}
	return false
}

func shareSymbol(hasLink, hasDirect bool) string {
	switch {
	case hasLink && hasDirect:
		return "LD"
	case hasLink:
		return "L"
	case hasDirect:
		return "D"
	default:
		return "-"
	}
}

func shareType(hasLink, hasDirect bool) string {
	switch {
	case hasLink && hasDirect:
		return "link+direct"
	case hasLink:
		return "link"
	case hasDirect:
		return "direct"
	default:
		return "none"
	}
}
