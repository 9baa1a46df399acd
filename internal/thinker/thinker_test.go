package thinker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfmind/internal/bayes"
	"wolfmind/internal/perception"
	"wolfmind/internal/trust"
	"wolfmind/internal/types"
)

func sixPlayers() []types.Player {
	players := make([]types.Player, 6)
	for i := range players {
		players[i] = types.Player{ID: i + 1, IsAlive: true}
	}
	return players
}

func speech(playerID, day int, claims ...perception.Claim) perception.EnhancedSpeech {
	return perception.EnhancedSpeech{
		SpeechRecord: types.SpeechRecord{Day: day, PlayerID: playerID},
		Claims:       claims,
	}
}

func TestBuildFeatureMatrix(t *testing.T) {
	players := sixPlayers()
	history := []perception.EnhancedSpeech{
		speech(1, 1,
			perception.Claim{Kind: perception.ClaimRole, Role: types.RoleSeer},
			perception.Claim{Kind: perception.ClaimKillConfirm, TargetID: 3},
		),
		speech(2, 1, perception.Claim{Kind: perception.ClaimAccuse, TargetID: 3}),
		speech(1, 2, perception.Claim{Kind: perception.ClaimGoldWater, TargetID: 5}),
	}

	matrix := BuildFeatureMatrix(history, players)

	require.NotNil(t, matrix[1])
	assert.Equal(t, 2, matrix[1].SpeechCount)
	assert.Equal(t, 2, matrix[1].LastDay)

	assert.Equal(t, 2, matrix[3].AccusedBy)
	assert.Equal(t, []int{1}, matrix[3].KillConfirmBy)
	assert.Equal(t, []int{1}, matrix[5].GoldWaterFrom)
	assert.Equal(t, 1, matrix[2].Accusations)
}

func TestBuildFeatureMatrix_FullRebuild(t *testing.T) {
	players := sixPlayers()
	history := []perception.EnhancedSpeech{
		speech(2, 1, perception.Claim{Kind: perception.ClaimAccuse, TargetID: 3}),
	}
	first := BuildFeatureMatrix(history, players)
	second := BuildFeatureMatrix(history, players)
	assert.Equal(t, first[3].AccusedBy, second[3].AccusedBy)
}

func TestListenerExtract_DropsFiller(t *testing.T) {
	speeches := []perception.EnhancedSpeech{
		speech(1, 2, perception.Claim{Kind: perception.ClaimAccuse, TargetID: 4}),
		{SpeechRecord: types.SpeechRecord{Day: 2, PlayerID: 2}, Sentiment: perception.SentimentNeutral},
		{SpeechRecord: types.SpeechRecord{Day: 2, PlayerID: 3, VoteIntention: 4}, Sentiment: perception.SentimentNeutral},
	}
	digest := ListenerExtract(speeches)

	assert.Equal(t, 2, digest.Day)
	require.Len(t, digest.Entries, 2)
	assert.Equal(t, 1, digest.Entries[0].PlayerID)
	assert.Equal(t, 3, digest.Entries[1].PlayerID)
}

func TestThinkerDecide_AggressiveOnStrongSuspect(t *testing.T) {
	players := sixPlayers()
	state := &types.GameState{Players: players}
	self := players[0]

	matrix := BuildFeatureMatrix(nil, players)
	trustProfiles := map[int]trust.Profile{
		3: {PlayerID: 3, OverallTrust: 0.1},
	}
	dists := map[int]bayes.Distribution{
		3: {PlayerID: 3, Posteriors: map[types.Role]float64{types.RoleWerewolf: 0.8, types.RoleVillager: 0.2}},
	}

	strategy := ThinkerDecide(self, matrix, state, trustProfiles, dists)

	require.NotEmpty(t, strategy.PriorityTargets)
	assert.Equal(t, 3, strategy.PriorityTargets[0])
	assert.Equal(t, StanceAggressive, strategy.Stance)
	assert.NotContains(t, strategy.PriorityTargets, self.ID)
}

func TestThinkerDecide_DefensiveUnderFire(t *testing.T) {
	players := sixPlayers()
	state := &types.GameState{Players: players}
	self := players[0]

	history := []perception.EnhancedSpeech{
		speech(2, 1, perception.Claim{Kind: perception.ClaimAccuse, TargetID: 1}),
		speech(3, 1, perception.Claim{Kind: perception.ClaimAccuse, TargetID: 1}),
	}
	matrix := BuildFeatureMatrix(history, players)

	strategy := ThinkerDecide(self, matrix, state, nil, nil)
	assert.Equal(t, StanceDefensive, strategy.Stance)
}

func TestThinkerDecide_ProtectsGoldWater(t *testing.T) {
	players := sixPlayers()
	state := &types.GameState{Players: players}
	self := players[0]

	history := []perception.EnhancedSpeech{
		speech(2, 1, perception.Claim{Kind: perception.ClaimGoldWater, TargetID: 5}),
	}
	matrix := BuildFeatureMatrix(history, players)

	strategy := ThinkerDecide(self, matrix, state, nil, nil)
	assert.Contains(t, strategy.ProtectTargets, 5)
	assert.NotContains(t, strategy.PriorityTargets, 5)
}

func TestThinkerDecide_SkipsDeadPlayers(t *testing.T) {
	players := sixPlayers()
	players[3].IsAlive = false // player 4
	state := &types.GameState{Players: players}

	strategy := ThinkerDecide(players[0], BuildFeatureMatrix(nil, players), state, nil, nil)
	assert.NotContains(t, strategy.PriorityTargets, 4)
}

func TestGenerateThinkerContext(t *testing.T) {
	s := Strategy{
		PriorityTargets: []int{3, 5},
		ProtectTargets:  []int{2},
		Stance:          StanceAggressive,
		Rationale:       "3号狼面概率80%，集中施压",
	}
	ctx := GenerateThinkerContext(s)
	assert.Contains(t, ctx, "【策略建议】")
	assert.Contains(t, ctx, "3号")
	assert.Contains(t, ctx, "保护")
}

func TestGenerateListenerContext(t *testing.T) {
	digest := DayDigest{
		Day: 1,
		Entries: []DigestLine{
			{PlayerID: 1, ClaimedRole: types.RoleSeer, Claims: []perception.Claim{
				{Kind: perception.ClaimKillConfirm, TargetID: 3},
			}},
			{PlayerID: 4, VoteIntent: 3},
		},
	}
	ctx := GenerateListenerContext(digest)
	assert.Contains(t, ctx, "第1天")
	assert.Contains(t, ctx, "查杀3号")
	assert.Contains(t, ctx, "意向投3号")

	assert.Empty(t, GenerateListenerContext(DayDigest{Day: 2}))
}
