package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoles_EmbeddedCatalogIsValid(t *testing.T) {
	roles, err := Roles()
	require.NoError(t, err)
	require.NotEmpty(t, roles)

	ids := map[string]bool{}
	for _, r := range roles {
		assert.NotEmpty(t, r.RoleID)
		assert.Equal(t, RoleID(r.Slug), r.RoleID)
		assert.False(t, ids[r.RoleID], "duplicate id for %s", r.Slug)
		ids[r.RoleID] = true
	}
}

func TestRoleID_Stable(t *testing.T) {
	assert.Equal(t, RoleID("photographer"), RoleID("photographer"))
	assert.NotEqual(t, RoleID("photographer"), RoleID("illustrator"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: "roles: []"},
		{name: "broken yaml", doc: "roles: [\n"},
		{name: "missing name", doc: "roles:\n  - slug: a\n    category: design\n"},
		{name: "duplicate slug", doc: "roles:\n  - {slug: a, name: A, category: x}\n  - {slug: a, name: B, category: x}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
