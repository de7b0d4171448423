package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var orderedRoles = []Role{RoleUser, RoleCourseEditor, RoleNewsEditor, RoleThemeEditor, RoleAdmin, RoleOwner}

func TestRoleOrder_TotalAndMonotonic(t *testing.T) {
	for i, lower := range orderedRoles {
		for j, higher := range orderedRoles {
			if i < j {
				require.False(t, lower.Satisfies(higher), "%s should not satisfy %s", lower, higher)
				require.True(t, higher.Satisfies(lower), "%s should satisfy %s", higher, lower)
			}
		}
		require.True(t, lower.Satisfies(lower))
	}
}

func TestRole_UnknownRanksLowest(t *testing.T) {
	unknown := Role("superuser")
	require.Equal(t, RoleUser.Rank(), unknown.Rank())
	require.False(t, unknown.Satisfies(RoleCourseEditor))
	require.True(t, RoleUser.Satisfies(unknown))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("news_editor")
	require.True(t, ok)
	require.Equal(t, RoleNewsEditor, role)

	_, ok = ParseRole("root")
	require.False(t, ok)

	_, ok = ParseRole("")
	require.False(t, ok)
}

func TestOwnerList_Overlay(t *testing.T) {
	owners := NewOwnerList([]string{" Boss@UFPS.edu.co ", ""})

	require.True(t, owners.Contains("boss@ufps.edu.co"))
	require.True(t, owners.Contains("BOSS@ufps.edu.co"))
	require.False(t, owners.Contains("other@ufps.edu.co"))

	// stored role says admin, allow-list wins
	require.Equal(t, RoleOwner, owners.Effective("boss@ufps.edu.co", RoleAdmin))
	require.Equal(t, RoleAdmin, owners.Effective("other@ufps.edu.co", RoleAdmin))
}
