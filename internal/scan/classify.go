package scan

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// Classification describes how a subtree's access list relates to its
// parent's.
type Classification int

const (
	ClassInherited Classification = iota
	ClassRestricted
	ClassExtended
	ClassDifferent
)

func (c Classification) String() string {
	switch c {
	case ClassInherited:
		return "inherited"
	case ClassRestricted:
		return "restricted"
	case ClassExtended:
		return "extended"
	case ClassDifferent:
		return "different"
	default:
		return "custom"
	}
}

// Label returns the human-facing report label for a classification.
func (c Classification) Label() string {
	switch c {
	case ClassRestricted:
		return "RESTRICTED"
	case ClassExtended:
		return "EXTENDED"
	case ClassDifferent:
		return "DIFFERENT"
	default:
		return "CUSTOM"
	}
}

// ExtractUsers derives an email→role map from a raw permission list.
// Owner permissions and link-based permissions are dropped; when a
// permission carries both write and read roles, write wins. Identity is the
// lower-cased email, falling back to the display name when email is absent.
func ExtractUsers(perms []graph.Permission) map[string]string {
	users := make(map[string]string)
	for _, p := range perms {
		if p.IsOwner() || p.HasLink() {
			continue
		}
		role := preferredRole(p.Roles)
		if role == "" {
			continue
		}
		for _, id := range p.Principals() {
			key := strings.ToLower(id.Email)
			if key == "" {
				key = strings.ToLower(id.DisplayName)
			}
			if key == "" {
				continue
			}
			// A user reachable through several permissions keeps the
			// stronger role.
			if existing, ok := users[key]; ok && existing == "write" {
				continue
			}
			users[key] = role
		}
	}
	return users
}

func preferredRole(roles []string) string {
	hasWrite, hasRead := false, false
	for _, r := range roles {
		switch strings.ToLower(r) {
		case "write":
			hasWrite = true
		case "read":
			hasRead = true
		}
	}
	if hasWrite && hasRead {
		return "write"
	}
	if len(roles) > 0 {
		return strings.ToLower(roles[0])
	}
	return ""
}

// Classify compares a child node's user map against its parent's.
// Subset-only and superset-only are checked before falling through to
// different; the order matters.
func Classify(child, parent map[string]string) Classification {
	if len(child) == 0 && len(parent) == 0 {
		return ClassInherited
	}
	if len(child) == 0 {
		return ClassRestricted
	}

	childSet := entrySet(child)
	parentSet := entrySet(parent)
	onlyChild := childSet.Difference(parentSet)
	onlyParent := parentSet.Difference(childSet)

	switch {
	case onlyChild.Cardinality() == 0 && onlyParent.Cardinality() == 0:
		return ClassInherited
	case onlyChild.Cardinality() == 0:
		return ClassRestricted
	case onlyParent.Cardinality() == 0:
		return ClassExtended
	default:
		return ClassDifferent
	}
}

// entrySet turns a user map into a set of "email=role" entries so the
// classifier sees a role change as a difference, not an identity.
func entrySet(m map[string]string) mapset.Set[string] {
	s := mapset.NewThreadUnsafeSet[string]()
	for email, role := range m {
		s.Add(email + "=" + role)
	}
	return s
}

// FolderAccess records one place a user has access, for the per-user report.
type FolderAccess struct {
	Path string `json:"path"`
	Role string `json:"role"`
}

// BuildUserFolderMap maps every user who does NOT appear at the root to the
// descendant folders where they do, sorted by path per user.
func BuildUserFolderMap(rootUsers map[string]string, collected []CollectedNode) map[string][]FolderAccess {
	out := make(map[string][]FolderAccess)
	for _, cn := range collected {
		if cn.IsRoot {
			continue
		}
		for email, role := range ExtractUsers(cn.Permissions) {
			if _, atRoot := rootUsers[email]; atRoot {
				continue
			}
			out[email] = append(out[email], FolderAccess{Path: cn.Node.Path, Role: role})
		}
	}
	for email := range out {
		sort.Slice(out[email], func(i, j int) bool {
			return out[email][i].Path < out[email][j].Path
		})
	}
	return out
}

// SpecialFolder is a descendant whose access list is not simply inherited
// from the root.
type SpecialFolder struct {
	Node           Node              `json:"node"`
	Classification Classification    `json:"-"`
	Label          string            `json:"label"`
	Users          map[string]string `json:"users"`
	// LostUsers lists root users with no access here. Only populated for
	// restricted folders.
	LostUsers []string `json:"lostUsers,omitempty"`
}

// DetectSpecialFolders finds every collected descendant whose classification
// relative to the root is not inherited.
func DetectSpecialFolders(rootUsers map[string]string, collected []CollectedNode) []SpecialFolder {
	var special []SpecialFolder
	for _, cn := range collected {
		if cn.IsRoot {
			continue
		}
		users := ExtractUsers(cn.Permissions)
		class := Classify(users, rootUsers)
		if class == ClassInherited {
			continue
		}

		sf := SpecialFolder{
			Node:           cn.Node,
			Classification: class,
			Label:          class.Label(),
			Users:          users,
		}
		if class == ClassRestricted {
			for email := range rootUsers {
				if _, ok := users[email]; !ok {
					sf.LostUsers = append(sf.LostUsers, email)
				}
			}
			sort.Strings(sf.LostUsers)
		}
		special = append(special, sf)
	}
	sort.Slice(special, func(i, j int) bool {
		return special[i].Node.Path < special[j].Node.Path
	})
	return special
}
