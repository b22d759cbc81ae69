package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mtalvio/onedrive-audit/internal/logger"
	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// mockSDK is a canned SDK for command tests. Unset maps return not-found.
type mockSDK struct {
	items    map[string]graph.DriveItem
	children map[string][]graph.DriveItem
	perms    map[string][]graph.Permission

	invites     []graph.InviteRequest
	deleted     []string
	stripResult graph.StripResult

	inviteErr error
	deleteErr error
}

func (m *mockSDK) GetItemByPath(ctx context.Context, path string) (graph.DriveItem, error) {
	for _, it := range m.items {
		if "/"+it.Name == path {
			return it, nil
		}
	}
	return graph.DriveItem{}, graph.ErrNotFound
}

func (m *mockSDK) GetItemByID(ctx context.Context, id string) (graph.DriveItem, error) {
	it, ok := m.items[id]
	if !ok {
		return graph.DriveItem{}, graph.ErrNotFound
	}
	return it, nil
}

func (m *mockSDK) ListChildren(ctx context.Context, itemID string) ([]graph.DriveItem, error) {
	return m.children[itemID], nil
}

func (m *mockSDK) ListPermissions(ctx context.Context, itemID string) ([]graph.Permission, error) {
	return m.perms[itemID], nil
}

func (m *mockSDK) InviteUser(ctx context.Context, itemID string, request graph.InviteRequest) ([]graph.Permission, error) {
	if m.inviteErr != nil {
		return nil, m.inviteErr
	}
	m.invites = append(m.invites, request)
	return []graph.Permission{{ID: "created", Roles: request.Roles}}, nil
}

func (m *mockSDK) DeletePermission(ctx context.Context, itemID, permissionID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, permissionID)
	return nil
}

func (m *mockSDK) StripExplicit(ctx context.Context, itemID string) (graph.StripResult, error) {
	return m.stripResult, nil
}

func newMockSDK() *mockSDK {
	return &mockSDK{
		items: map[string]graph.DriveItem{
			"root-id": {ID: "root-id", Name: "Finance", Folder: &graph.FolderFacet{}},
		},
		children: map[string][]graph.DriveItem{},
		perms: map[string][]graph.Permission{
			"root-id": {
				{
					ID:          "perm-alice",
					Roles:       []string{"write"},
					GrantedToV2: &graph.IdentitySet{User: &graph.Identity{Email: "alice@example.com"}},
				},
			},
		},
	}
}

func testApp(sdk SDK) *App {
	return &App{Logger: logger.NoopLogger{}, SDK: sdk}
}

// testCommand builds a throwaway command carrying the given flag setup, with
// a live context, so *Logic functions can run outside Execute.
func testCommand(t *testing.T, register func(*cobra.Command)) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	register(c)
	c.SetContext(context.Background())
	return c
}

func setFlags(t *testing.T, c *cobra.Command, flags map[string]string) {
	t.Helper()
	for name, value := range flags {
		require.NoError(t, c.Flags().Set(name, value))
	}
}
