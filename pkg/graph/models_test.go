package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionIsOwner(t *testing.T) {
	assert.True(t, Permission{Roles: []string{"Owner"}}.IsOwner())
	assert.True(t, Permission{Roles: []string{"read", "owner"}}.IsOwner())
	assert.False(t, Permission{Roles: []string{"write"}}.IsOwner())
	assert.False(t, Permission{}.IsOwner())
}

func TestPermissionPrincipalsCombinesGrantFields(t *testing.T) {
	p := Permission{
		GrantedToV2: &IdentitySet{
			User: &Identity{Email: "a@example.com"},
		},
		GrantedToIdentitiesV2: []IdentitySet{
			{User: &Identity{Email: "b@example.com"}},
			{Group: &Identity{DisplayName: "Finance Team"}},
		},
	}

	ids := p.Principals()

	assert.Len(t, ids, 3)
	assert.Equal(t, "a@example.com", ids[0].Email)
	assert.Equal(t, "Finance Team", ids[2].DisplayName)
}
