// Package scan implements the depth-bounded traversal of the drive hierarchy
// and the permission-set classification the audit report is built from.
package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtalvio/onedrive-audit/internal/logger"
	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// Node is the traversal's view of a drive item. Identity is the
// remote-assigned ID; Path is a display convenience, never a lookup key.
type Node struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	IsFolder bool   `json:"isFolder"`
	Depth    int    `json:"depth"`
	ParentID string `json:"parentId,omitempty"`
}

// API is the slice of the Graph client the scanner needs. Tests substitute
// a fake.
type API interface {
	GetItemByPath(ctx context.Context, path string) (graph.DriveItem, error)
	GetItemByID(ctx context.Context, id string) (graph.DriveItem, error)
	ListChildren(ctx context.Context, itemID string) ([]graph.DriveItem, error)
	ListPermissions(ctx context.Context, itemID string) ([]graph.Permission, error)
}

// Visitor receives each reachable node with its permission list. Returning
// descend=false prunes the node's children.
type Visitor interface {
	Visit(node Node, perms []graph.Permission) (descend bool, err error)
}

// ItemFilter selects which item kinds the traversal examines.
type ItemFilter string

const (
	FilterFolders ItemFilter = "folders"
	FilterFiles   ItemFilter = "files"
	FilterBoth    ItemFilter = "both"
)

// ParseItemFilter validates a user-supplied filter string.
func ParseItemFilter(s string) (ItemFilter, error) {
	switch ItemFilter(strings.ToLower(s)) {
	case FilterFolders:
		return FilterFolders, nil
	case FilterFiles:
		return FilterFiles, nil
	case FilterBoth:
		return FilterBoth, nil
	default:
		return "", fmt.Errorf("invalid item filter '%s', want folders, files or both", s)
	}
}

func (f ItemFilter) includesFiles() bool {
	return f == FilterFiles || f == FilterBoth
}

func (f ItemFilter) includesFolders() bool {
	return f == FilterFolders || f == FilterBoth || f == ""
}

// Scanner walks the hierarchy depth-first, strictly sequentially: one remote
// call is outstanding at a time, and a node's result is fully known before
// its children are processed. Pruning and classification both depend on
// that ordering.
type Scanner struct {
	API      API
	Logger   logger.Logger
	MaxDepth int
	Filter   ItemFilter
	// OnVisit is an optional progress hook, called once per visited node.
	OnVisit func(Node)
}

// Run traverses the tree rooted at start. MaxDepth is inclusive of the start
// node at depth 0; MaxDepth 0 visits exactly the start node.
func (s *Scanner) Run(ctx context.Context, start Node, v Visitor) error {
	if s.API == nil {
		return fmt.Errorf("scanner has no API")
	}
	if s.Logger == nil {
		s.Logger = logger.NoopLogger{}
	}
	visited := make(map[string]struct{})
	return s.walk(ctx, start, visited, v)
}

func (s *Scanner) walk(ctx context.Context, node Node, visited map[string]struct{}, v Visitor) error {
	if node.Depth > s.MaxDepth {
		return nil
	}
	// Guards against cyclic or duplicated children in API responses.
	if _, seen := visited[node.ID]; seen {
		return nil
	}
	visited[node.ID] = struct{}{}

	if s.OnVisit != nil {
		s.OnVisit(node)
	}

	perms, err := s.API.ListPermissions(ctx, node.ID)
	if err != nil {
		if node.Depth == 0 {
			return fmt.Errorf("listing permissions of '%s': %w", node.Path, err)
		}
		// Best-effort continue: the node is omitted from results but its
		// children are still attempted, so one broken node does not block
		// its siblings or descendants.
		s.Logger.Warnf("scan: permissions of '%s' unavailable, skipping node: %v", node.Path, err)
	} else {
		descend, err := v.Visit(node, perms)
		if err != nil {
			return err
		}
		if !descend {
			return nil
		}
	}

	if !node.IsFolder || node.Depth >= s.MaxDepth {
		return nil
	}

	children, err := s.API.ListChildren(ctx, node.ID)
	if err != nil {
		s.Logger.Warnf("scan: children of '%s' unavailable: %v", node.Path, err)
		return nil
	}

	for _, child := range children {
		if !child.IsFolder() && !s.Filter.includesFiles() {
			continue
		}
		cn := Node{
			ID:       child.ID,
			Path:     joinPath(node.Path, child.Name),
			IsFolder: child.IsFolder(),
			Depth:    node.Depth + 1,
			ParentID: node.ID,
		}
		if err := s.walk(ctx, cn, visited, v); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(parent, "/") + "/" + name
}

// ResolveStart looks up the traversal's starting node by path or item ID.
// Arguments beginning with "/" are treated as paths, anything else as an ID.
func ResolveStart(ctx context.Context, api API, arg string) (Node, error) {
	var item graph.DriveItem
	var err error
	path := arg

	if strings.HasPrefix(arg, "/") || arg == "" {
		item, err = api.GetItemByPath(ctx, arg)
	} else {
		item, err = api.GetItemByID(ctx, arg)
		if err == nil {
			path = "/" + item.Name
		}
	}
	if err != nil {
		return Node{}, fmt.Errorf("resolving start item '%s': %w", arg, err)
	}
	if path == "" {
		path = "/"
	}

	return Node{
		ID:       item.ID,
		Path:     path,
		IsFolder: item.IsFolder(),
		Depth:    0,
	}, nil
}
