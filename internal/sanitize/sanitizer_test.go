package sanitize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfmind/internal/types"
)

func intp(v int) *int { return &v }

func standardSetup() types.GameSetup {
	return types.GameSetup{RolePool: map[types.Role]int{
		types.RoleWerewolf: 1,
		types.RoleSeer:     1,
		types.RoleVillager: 3,
	}}
}

func sixPlayers() []types.Player {
	players := make([]types.Player, 6)
	for i := range players {
		players[i] = types.Player{ID: i + 1, IsAlive: true}
	}
	return players
}

func TestSanitize_NoPoolReturnsInputUnchanged(t *testing.T) {
	table := types.IdentityTable{"玩家3号": {Suspect: "法官"}}
	res := Sanitize(table, sixPlayers(), types.GameSetup{})
	assert.False(t, res.Changed)
	assert.Equal(t, table, res.Table)
}

func TestSanitize_KeyNormalization(t *testing.T) {
	table := types.IdentityTable{
		"3号玩家":   {Suspect: "村民"},
		"Player 5": {Suspect: "村民"},
		"没有数字":   {Suspect: "村民"}, // dropped: no digits
		"9":        {Suspect: "村民"}, // dropped: not a known player
	}
	res := Sanitize(table, sixPlayers(), standardSetup())

	assert.True(t, res.Changed)
	require.Len(t, res.Table, 2)
	assert.Contains(t, res.Table, "3")
	assert.Contains(t, res.Table, "5")
}

func TestSanitize_ExactPoolMatchKept(t *testing.T) {
	// Pool {"狼人","预言家","村民"}: "村民" is directly in the pool.
	table := types.IdentityTable{"2": {Suspect: "村民", Confidence: intp(70)}}
	res := Sanitize(table, sixPlayers(), standardSetup())

	assert.False(t, res.Changed)
	assert.Equal(t, "村民", res.Table["2"].Suspect)
}

func TestSanitize_SynonymFallbackToUniqueGoodRole(t *testing.T) {
	// Pool {"狼人","骑士"}: "平民" must resolve to the unique non-wolf role.
	setup := types.GameSetup{RolePool: map[types.Role]int{
		types.RoleWerewolf: 1,
		"骑士":             1,
	}}
	table := types.IdentityTable{"2": {Suspect: "平民"}}
	res := Sanitize(table, sixPlayers(), setup)

	assert.True(t, res.Changed)
	assert.Equal(t, "骑士", res.Table["2"].Suspect)
}

func TestSanitize_UnknownFallbackToSentinel(t *testing.T) {
	// Pool {"狼人","预言家"}: "法官" has no match and no hint.
	setup := types.GameSetup{RolePool: map[types.Role]int{
		types.RoleWerewolf: 1,
		types.RoleSeer:     1,
	}}
	table := types.IdentityTable{"2": {Suspect: "法官"}}
	res := Sanitize(table, sixPlayers(), setup)

	assert.True(t, res.Changed)
	assert.Equal(t, string(types.RoleUnknown), res.Table["2"].Suspect)
}

func TestSanitize_WolfHint(t *testing.T) {
	table := types.IdentityTable{"4": {Suspect: "肯定是匹狼"}}
	res := Sanitize(table, sixPlayers(), standardSetup())

	assert.True(t, res.Changed)
	assert.Equal(t, "狼人", res.Table["4"].Suspect)
}

func TestSanitize_SubstringScanPreservesAmbiguity(t *testing.T) {
	table := types.IdentityTable{"4": {Suspect: "不是预言家就是村民"}}
	res := Sanitize(table, sixPlayers(), standardSetup())

	assert.True(t, res.Changed)
	suspect := res.Table["4"].Suspect
	assert.Contains(t, suspect, "或")
	assert.Contains(t, suspect, "预言家")
	assert.Contains(t, suspect, "村民")
}

func TestSanitize_ConfidenceClamped(t *testing.T) {
	table := types.IdentityTable{
		"1": {Suspect: "村民", Confidence: intp(150)},
		"2": {Suspect: "村民", Confidence: intp(-20)},
		"3": {Suspect: "村民"}, // missing stays missing
	}
	res := Sanitize(table, sixPlayers(), standardSetup())

	assert.True(t, res.Changed)
	assert.Equal(t, 100, *res.Table["1"].Confidence)
	assert.Equal(t, 0, *res.Table["2"].Confidence)
	assert.Nil(t, res.Table["3"].Confidence)
}

func TestSanitize_Idempotent(t *testing.T) {
	table := types.IdentityTable{
		"3号玩家": {Suspect: "感觉是好人", Confidence: intp(120)},
		"5":      {Suspect: "法官"},
		"乱写":   {Suspect: "村民"},
	}
	first := Sanitize(table, sixPlayers(), standardSetup())
	require.True(t, first.Changed)

	second := Sanitize(first.Table, sixPlayers(), standardSetup())
	assert.False(t, second.Changed)
	if diff := cmp.Diff(first.Table, second.Table); diff != "" {
		t.Errorf("second pass rewrote the table (-first +second):\n%s", diff)
	}
}

func TestSanitize_InputNotMutated(t *testing.T) {
	table := types.IdentityTable{"3号": {Suspect: "法官", Confidence: intp(150)}}
	_ = Sanitize(table, sixPlayers(), standardSetup())

	assert.Equal(t, "法官", table["3号"].Suspect)
	assert.Equal(t, 150, *table["3号"].Confidence)
}
