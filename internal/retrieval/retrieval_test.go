package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfmind/internal/kernel"
	"wolfmind/internal/perception"
	"wolfmind/internal/types"
)

func speech(playerID, day int, claims ...perception.Claim) perception.EnhancedSpeech {
	return perception.EnhancedSpeech{
		SpeechRecord: types.SpeechRecord{Day: day, PlayerID: playerID},
		Claims:       claims,
	}
}

func seerClaim() perception.Claim {
	return perception.Claim{Kind: perception.ClaimRole, Role: types.RoleSeer}
}

func TestGetVerificationStatus(t *testing.T) {
	history := []perception.EnhancedSpeech{
		speech(1, 1, seerClaim(), perception.Claim{Kind: perception.ClaimKillConfirm, TargetID: 3}),
		speech(1, 2, perception.Claim{Kind: perception.ClaimGoldWater, TargetID: 5}),
		// Player 2 never claimed seer; their statements do not count.
		speech(2, 2, perception.Claim{Kind: perception.ClaimGoldWater, TargetID: 5}),
	}
	e := New(nil)

	killed := e.GetVerificationStatus(history, 3)
	require.Len(t, killed.KillBy, 1)
	assert.Equal(t, 1, killed.KillBy[0].ClaimantID)
	assert.True(t, killed.ConfirmedBad())
	assert.False(t, killed.ConfirmedGood())

	gold := e.GetVerificationStatus(history, 5)
	require.Len(t, gold.GoldWaterBy, 1)
	assert.Equal(t, 1, gold.GoldWaterBy[0].ClaimantID)
	assert.True(t, gold.ConfirmedGood())

	assert.False(t, e.GetVerificationStatus(history, 4).ConfirmedGood())
}

func TestBuildSeerConflictInfo_NoConflict(t *testing.T) {
	history := []perception.EnhancedSpeech{speech(1, 1, seerClaim())}
	info := New(nil).BuildSeerConflictInfo(history, nil)
	assert.False(t, info.HasConflict)
	assert.Equal(t, []int{1}, info.Claimants)
}

func TestBuildSeerConflictInfo_ConflictWithCheckBacking(t *testing.T) {
	history := []perception.EnhancedSpeech{
		speech(1, 1, seerClaim(), perception.Claim{Kind: perception.ClaimKillConfirm, TargetID: 3}),
		speech(4, 1, seerClaim(), perception.Claim{Kind: perception.ClaimGoldWater, TargetID: 3}),
	}
	checks := []types.SeerCheck{{Night: 1, SeerID: 1, TargetID: 3, IsWolf: true}}

	info := New(nil).BuildSeerConflictInfo(history, checks)
	assert.True(t, info.HasConflict)
	assert.Equal(t, []int{1, 4}, info.Claimants)
	assert.Contains(t, info.Analysis, "1号")
	assert.Contains(t, info.Analysis, "说谎")
	// Player 1's claim matches the recorded check; the analysis says so.
	assert.Contains(t, info.Analysis, "1号的查验与夜间记录一致")
}

func TestBuildSeerConflictInfo_UsesKernel(t *testing.T) {
	k, err := kernel.New()
	require.NoError(t, err)
	require.NoError(t, k.AssertRoleClaim(2, types.RoleSeer, 1))
	require.NoError(t, k.AssertRoleClaim(5, types.RoleSeer, 1))

	info := New(k).BuildSeerConflictInfo(nil, nil)
	assert.True(t, info.HasConflict)
	assert.Equal(t, []int{2, 5}, info.Claimants)
}

func TestGetLogicContradictions(t *testing.T) {
	contradictory := speech(3, 2)
	contradictory.Contradiction = true
	contradictory.ContradictionNote = "身份声明前后不一致"

	history := []perception.EnhancedSpeech{
		speech(3, 1),
		contradictory,
	}
	report := New(nil).GetLogicContradictions(history, 3)
	assert.Equal(t, 1, report.Count)
	require.Len(t, report.Notes, 1)
	assert.Contains(t, report.Notes[0], "第2天")

	assert.Zero(t, New(nil).GetLogicContradictions(history, 1).Count)
}

func TestGenerateSituationSummary(t *testing.T) {
	state := &types.GameState{
		Day: 2,
		Players: []types.Player{
			{ID: 1, IsAlive: true},
			{ID: 2, IsAlive: true},
			{ID: 3, IsAlive: false},
		},
		Deaths: []types.DeathEvent{
			{Day: 2, Phase: types.PhaseNight, PlayerID: 3},
		},
		VoteRounds: []types.VoteRound{{Day: 1, Eliminated: 0}},
		NightActions: types.NightActionHistory{
			SeerChecks: []types.SeerCheck{{Night: 1, SeerID: 1, TargetID: 3, IsWolf: true}},
		},
	}

	summary := New(nil).GenerateSituationSummary(state)
	assert.Contains(t, summary, "第2天")
	assert.Contains(t, summary, "存活2人")
	assert.Contains(t, summary, "3号（第2天夜间）")
	assert.Contains(t, summary, "1次查验")
	assert.Contains(t, summary, "平票")

	assert.Empty(t, New(nil).GenerateSituationSummary(nil))
}
