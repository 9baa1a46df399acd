package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wolfmind/internal/types"
)

func TestForRole_CoversWholeEnum(t *testing.T) {
	for _, role := range []types.Role{
		types.RoleWerewolf, types.RoleSeer, types.RoleWitch,
		types.RoleGuard, types.RoleHunter, types.RoleVillager,
	} {
		s := ForRole(role)
		assert.Equal(t, role, s.Role())
		assert.NotEmpty(t, s.Persona())
	}
}

func TestForRole_UnknownFallsBackToVillager(t *testing.T) {
	for _, role := range []types.Role{"法官", types.RoleUnknown, ""} {
		s := ForRole(role)
		assert.Equal(t, types.RoleVillager, s.Role())
	}
}

func TestNightAction_RolesWithoutNightPhase(t *testing.T) {
	state := &types.GameState{}
	assert.Empty(t, ForRole(types.RoleVillager).NightAction(state, 1))
	assert.Empty(t, ForRole(types.RoleHunter).NightAction(state, 1))
	assert.NotEmpty(t, ForRole(types.RoleWerewolf).NightAction(state, 1))
}

func TestGuardNightAction_NamesPreviousTarget(t *testing.T) {
	state := &types.GameState{
		NightActions: types.NightActionHistory{
			GuardActions: []types.GuardAction{{Night: 1, TargetID: 3}},
		},
	}
	hint := ForRole(types.RoleGuard).NightAction(state, 2)
	assert.Contains(t, hint, "3号")
	assert.Contains(t, hint, "不能重复")
}

func TestWitchNightAction_TracksPotions(t *testing.T) {
	fresh := &types.GameState{}
	assert.Contains(t, ForRole(types.RoleWitch).NightAction(fresh, 2), "解药和毒药都未使用")

	spent := &types.GameState{
		NightActions: types.NightActionHistory{
			Witch: types.WitchHistory{SavedIDs: []int{4}, PoisonedIDs: []int{5}},
		},
	}
	assert.Contains(t, ForRole(types.RoleWitch).NightAction(spent, 2), "已用完")
}

func TestSeerNightAction_CountsUnchecked(t *testing.T) {
	state := &types.GameState{
		Players: []types.Player{
			{ID: 1, IsAlive: true},
			{ID: 2, IsAlive: true},
			{ID: 3, IsAlive: true},
			{ID: 4, IsAlive: false},
		},
		NightActions: types.NightActionHistory{
			SeerChecks: []types.SeerCheck{{Night: 1, SeerID: 1, TargetID: 2, IsWolf: false}},
		},
	}
	hint := ForRole(types.RoleSeer).NightAction(state, 1)
	// Alive, not self, not yet checked: only player 3.
	assert.Contains(t, hint, "1名")
}
