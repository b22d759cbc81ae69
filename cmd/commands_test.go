package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

func auditFlags(c *cobra.Command) {
	c.Flags().Int("depth", 0, "")
	c.Flags().Bool("json", false, "")
}

func scanFlags(c *cobra.Command) {
	c.Flags().Int("depth", 2, "")
	c.Flags().String("user", "", "")
	c.Flags().String("type", "folders", "")
	c.Flags().Bool("exact-match", false, "")
}

func grantFlags(c *cobra.Command) {
	c.Flags().String("role", "read", "")
	c.Flags().String("message", "", "")
	c.Flags().Bool("require-signin", true, "")
	c.Flags().Bool("send-invitation", true, "")
}

func revokeFlags(c *cobra.Command) {
	c.Flags().Bool("all", false, "")
}

func TestAuditLogicDepthZero(t *testing.T) {
	sdk := newMockSDK()
	c := testCommand(t, auditFlags)
	setFlags(t, c, map[string]string{"json": "true"})

	err := auditLogic(testApp(sdk), c, []string{"/Finance"})

	assert.NoError(t, err)
}

func TestAuditLogicRejectsNegativeDepth(t *testing.T) {
	c := testCommand(t, auditFlags)
	setFlags(t, c, map[string]string{"depth": "-1"})

	err := auditLogic(testApp(newMockSDK()), c, []string{"/Finance"})

	assert.Error(t, err)
}

func TestAuditLogicUnknownStart(t *testing.T) {
	c := testCommand(t, auditFlags)
	setFlags(t, c, map[string]string{"json": "true"})

	err := auditLogic(testApp(newMockSDK()), c, []string{"/Nowhere"})

	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestScanLogicInvalidTypeFilter(t *testing.T) {
	c := testCommand(t, scanFlags)
	setFlags(t, c, map[string]string{"type": "documents"})

	err := scanLogic(testApp(newMockSDK()), c, []string{"/Finance"})

	assert.Error(t, err)
}

func TestScanLogicRuns(t *testing.T) {
	sdk := newMockSDK()
	sdk.children["root-id"] = []graph.DriveItem{
		{ID: "sub-id", Name: "Payroll", Folder: &graph.FolderFacet{}},
	}
	sdk.perms["sub-id"] = []graph.Permission{
		{
			ID:          "perm-bob",
			Roles:       []string{"read"},
			GrantedToV2: &graph.IdentitySet{User: &graph.Identity{Email: "bob@example.com"}},
		},
	}
	c := testCommand(t, scanFlags)
	setFlags(t, c, map[string]string{"user": "bob"})

	err := scanLogic(testApp(sdk), c, []string{"/Finance"})

	assert.NoError(t, err)
}

func TestGrantLogic(t *testing.T) {
	sdk := newMockSDK()
	c := testCommand(t, grantFlags)
	setFlags(t, c, map[string]string{"role": "write", "message": "please review"})

	err := grantLogic(testApp(sdk), c, []string{"/Finance", "carol@example.com"})

	require.NoError(t, err)
	require.Len(t, sdk.invites, 1)
	invite := sdk.invites[0]
	assert.Equal(t, []string{"write"}, invite.Roles)
	require.Len(t, invite.Recipients, 1)
	assert.Equal(t, "carol@example.com", invite.Recipients[0].Email)
	assert.True(t, invite.RequireSignIn)
	assert.True(t, invite.SendInvitation)
	assert.Equal(t, "please review", invite.Message)
}

func TestGrantLogicRejectsInvalidRole(t *testing.T) {
	sdk := newMockSDK()
	c := testCommand(t, grantFlags)
	setFlags(t, c, map[string]string{"role": "admin"})

	err := grantLogic(testApp(sdk), c, []string{"/Finance", "carol@example.com"})

	require.Error(t, err)
	assert.Empty(t, sdk.invites, "no remote call on an invalid role")
}

func TestGrantLogicPropagatesInviteFailure(t *testing.T) {
	sdk := newMockSDK()
	sdk.inviteErr = graph.ErrForbidden

	c := testCommand(t, grantFlags)
	err := grantLogic(testApp(sdk), c, []string{"/Finance", "carol@example.com"})

	assert.ErrorIs(t, err, graph.ErrForbidden)
}

func TestRevokeLogicExplicitPermission(t *testing.T) {
	sdk := newMockSDK()
	c := testCommand(t, revokeFlags)

	err := revokeLogic(testApp(sdk), c, []string{"/Finance", "perm-alice"})

	require.NoError(t, err)
	assert.Equal(t, []string{"perm-alice"}, sdk.deleted)
}

func TestRevokeLogicRefusesInherited(t *testing.T) {
	sdk := newMockSDK()
	sdk.perms["root-id"] = append(sdk.perms["root-id"], graph.Permission{
		ID:            "perm-up",
		Roles:         []string{"read"},
		InheritedFrom: &graph.ItemRef{ID: "parent", Path: "/drive/root:"},
	})
	c := testCommand(t, revokeFlags)

	err := revokeLogic(testApp(sdk), c, []string{"/Finance", "perm-up"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inherited")
	assert.Empty(t, sdk.deleted)
}

func TestRevokeLogicRefusesOwner(t *testing.T) {
	sdk := newMockSDK()
	sdk.perms["root-id"] = append(sdk.perms["root-id"], graph.Permission{
		ID:    "perm-owner",
		Roles: []string{"owner"},
	})
	c := testCommand(t, revokeFlags)

	err := revokeLogic(testApp(sdk), c, []string{"/Finance", "perm-owner"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
	assert.Empty(t, sdk.deleted)
}

func TestRevokeLogicAll(t *testing.T) {
	sdk := newMockSDK()
	sdk.stripResult = graph.StripResult{Removed: 3, Failed: 1}
	c := testCommand(t, revokeFlags)
	setFlags(t, c, map[string]string{"all": "true"})

	err := revokeLogic(testApp(sdk), c, []string{"/Finance"})

	assert.NoError(t, err)
}

func TestRevokeLogicArgumentValidation(t *testing.T) {
	sdk := newMockSDK()

	c := testCommand(t, revokeFlags)
	err := revokeLogic(testApp(sdk), c, []string{"/Finance"})
	assert.Error(t, err, "a permission ID is required without --all")

	c = testCommand(t, revokeFlags)
	setFlags(t, c, map[string]string{"all": "true"})
	err = revokeLogic(testApp(sdk), c, []string{"/Finance", "perm-alice"})
	assert.Error(t, err, "--all and a permission ID are mutually exclusive")
}

func TestRevokeLogicDeleteFailure(t *testing.T) {
	sdk := newMockSDK()
	sdk.deleteErr = errors.New("boom")
	c := testCommand(t, revokeFlags)

	err := revokeLogic(testApp(sdk), c, []string{"/Finance", "perm-alice"})

	assert.Error(t, err)
}
