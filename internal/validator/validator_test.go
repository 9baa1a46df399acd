package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfmind/internal/config"
	"wolfmind/internal/types"
)

func testContext() Context {
	return Context{
		SelfID: 1,
		Players: []types.Player{
			{ID: 1, IsAlive: true},
			{ID: 2, IsAlive: true},
			{ID: 3, IsAlive: true},
			{ID: 4, IsAlive: false},
		},
	}
}

func newValidator() *Validator {
	return New(config.Default().Validator)
}

func TestValidateSpeech(t *testing.T) {
	v := newValidator()
	ctx := testContext()

	ok := v.ValidateSpeech(types.Decision{Kind: types.DecisionSpeech, PlayerID: 1, Content: "我是村民"}, ctx)
	assert.True(t, ok.IsValid)

	empty := v.ValidateSpeech(types.Decision{Kind: types.DecisionSpeech, PlayerID: 1}, ctx)
	assert.False(t, empty.IsValid)
	assert.Equal(t, ViolationEmptyContent, empty.Violations[0].Kind)
}

func TestValidateSpeech_VerifiedGoodOnlyWhenHeld(t *testing.T) {
	v := newValidator()
	d := types.Decision{Kind: types.DecisionSpeech, PlayerID: 1, Content: "我怀疑2号", TargetID: 2}

	// Without private information the constraint is not enforceable.
	assert.True(t, v.ValidateSpeech(d, testContext()).IsValid)

	ctx := testContext()
	ctx.VerifiedGood = []int{2}
	res := v.ValidateSpeech(d, ctx)
	require.False(t, res.IsValid)
	assert.Equal(t, ViolationVoteAgainstVerifiedGood, res.Violations[0].Kind)
}

func TestValidateNightAction_TargetLegality(t *testing.T) {
	v := newValidator()
	ctx := testContext()

	dead := v.ValidateNightAction(types.Decision{Kind: types.DecisionKill, PlayerID: 2, TargetID: 4}, ctx)
	require.False(t, dead.IsValid)
	assert.Equal(t, ViolationTargetDead, dead.Violations[0].Kind)

	unknown := v.ValidateNightAction(types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 9}, ctx)
	require.False(t, unknown.IsValid)
	assert.Equal(t, ViolationTargetUnknown, unknown.Violations[0].Kind)

	ok := v.ValidateNightAction(types.Decision{Kind: types.DecisionKill, PlayerID: 2, TargetID: 3}, ctx)
	assert.True(t, ok.IsValid)
}

func TestValidateNightAction_GuardCannotRepeat(t *testing.T) {
	v := newValidator()
	ctx := testContext()
	ctx.Nights = types.NightActionHistory{
		GuardActions: []types.GuardAction{{Night: 1, TargetID: 3}},
	}

	repeat := v.ValidateNightAction(types.Decision{Kind: types.DecisionGuard, PlayerID: 1, TargetID: 3}, ctx)
	require.False(t, repeat.IsValid)
	assert.Equal(t, ViolationGuardRepeat, repeat.Violations[0].Kind)

	other := v.ValidateNightAction(types.Decision{Kind: types.DecisionGuard, PlayerID: 1, TargetID: 2}, ctx)
	assert.True(t, other.IsValid)
}

func TestValidateNightAction_SelfTargets(t *testing.T) {
	v := newValidator()
	ctx := testContext()

	vote := v.ValidateNightAction(types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 1}, ctx)
	require.False(t, vote.IsValid)
	assert.Equal(t, ViolationSelfTarget, vote.Violations[0].Kind)

	check := v.ValidateNightAction(types.Decision{Kind: types.DecisionSeerCheck, PlayerID: 1, TargetID: 1}, ctx)
	assert.False(t, check.IsValid)
}

func TestGenerateCorrectionPrompt(t *testing.T) {
	res := Result{}
	res.add(ViolationTargetDead, "4号已出局", "从存活玩家中选择目标")
	res.add(ViolationSelfTarget, "不能投票给自己", "选择其他玩家")

	prompt := GenerateCorrectionPrompt(res)
	assert.Contains(t, prompt, "【决策修正】")
	assert.Contains(t, prompt, "1. 4号已出局")
	assert.Contains(t, prompt, "2. 不能投票给自己")

	assert.Empty(t, GenerateCorrectionPrompt(Result{IsValid: true}))
}

// A validator that always rejects must make exactly the configured number
// of regeneration attempts and then keep the invalid result.
func TestRunWithRetry_BoundedAttempts(t *testing.T) {
	v := newValidator()
	ctx := testContext()

	calls := 0
	gen := GeneratorFunc(func(_ context.Context, correction string) (types.Decision, error) {
		calls++
		if calls > 1 {
			assert.Contains(t, correction, "【决策修正】")
		}
		// Always targets a dead player, so validation always fails.
		return types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 4}, nil
	})

	decision, result, err := v.RunWithRetry(context.Background(), gen, ctx)
	require.NoError(t, err)
	// 1 initial + 2 correction retries.
	assert.Equal(t, 3, calls)
	assert.True(t, decision.Unresolved)
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Violations)
}

func TestRunWithRetry_CorrectsOnSecondAttempt(t *testing.T) {
	v := newValidator()
	ctx := testContext()

	calls := 0
	gen := GeneratorFunc(func(context.Context, string) (types.Decision, error) {
		calls++
		if calls == 1 {
			return types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 4}, nil
		}
		return types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 3}, nil
	})

	decision, result, err := v.RunWithRetry(context.Background(), gen, ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, result.IsValid)
	assert.False(t, decision.Unresolved)
	assert.Equal(t, 3, decision.TargetID)
}

func TestRunWithRetry_InitialGenerationError(t *testing.T) {
	v := newValidator()
	gen := GeneratorFunc(func(context.Context, string) (types.Decision, error) {
		return types.Decision{}, errors.New("model unavailable")
	})
	_, _, err := v.RunWithRetry(context.Background(), gen, testContext())
	assert.Error(t, err)
}

func TestRunWithRetry_CorrectionGenerationErrorKeepsLast(t *testing.T) {
	v := newValidator()
	calls := 0
	gen := GeneratorFunc(func(context.Context, string) (types.Decision, error) {
		calls++
		if calls == 1 {
			return types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 4}, nil
		}
		return types.Decision{}, errors.New("model unavailable")
	})

	decision, result, err := v.RunWithRetry(context.Background(), gen, testContext())
	assert.Error(t, err)
	assert.True(t, decision.Unresolved)
	assert.Equal(t, 4, decision.TargetID)
	assert.False(t, result.IsValid)
}
