package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wolfmind/internal/types"
	"wolfmind/internal/validator"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndListDecisions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	valid := types.Decision{
		Kind:        types.DecisionVote,
		PlayerID:    1,
		TargetID:    3,
		RequestID:   "req-1",
		GeneratedAt: time.Now(),
	}
	require.NoError(t, s.RecordDecision(ctx, "game-1", "model-a", valid, validator.Result{IsValid: true}))

	invalid := types.Decision{
		Kind:       types.DecisionVote,
		PlayerID:   1,
		TargetID:   4,
		RequestID:  "req-2",
		Unresolved: true,
	}
	res := validator.Result{
		Violations: []validator.Violation{{Kind: validator.ViolationTargetDead, Description: "4号已出局"}},
	}
	require.NoError(t, s.RecordDecision(ctx, "game-1", "model-a", invalid, res))

	records, err := s.DecisionsForPlayer(ctx, "game-1", 1)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "req-1", records[0].RequestID)
	assert.True(t, records[0].Valid)
	assert.Empty(t, records[0].Violations)

	assert.Equal(t, "req-2", records[1].RequestID)
	assert.False(t, records[1].Valid)
	assert.True(t, records[1].Unresolved)
	require.Len(t, records[1].Violations, 1)
	assert.Equal(t, validator.ViolationTargetDead, records[1].Violations[0].Kind)
}

func TestDecisionsScopedByGameAndPlayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := types.Decision{Kind: types.DecisionSpeech, PlayerID: 2, Content: "我是村民", RequestID: "r"}
	require.NoError(t, s.RecordDecision(ctx, "game-1", "", d, validator.Result{IsValid: true}))
	require.NoError(t, s.RecordDecision(ctx, "game-2", "", d, validator.Result{IsValid: true}))

	records, err := s.DecisionsForPlayer(ctx, "game-1", 2)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	none, err := s.DecisionsForPlayer(ctx, "game-1", 9)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUnresolvedDecisions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok := types.Decision{Kind: types.DecisionVote, PlayerID: 1, TargetID: 3, RequestID: "a"}
	stuck := types.Decision{Kind: types.DecisionVote, PlayerID: 2, TargetID: 4, RequestID: "b", Unresolved: true}
	require.NoError(t, s.RecordDecision(ctx, "game-1", "", ok, validator.Result{IsValid: true}))
	require.NoError(t, s.RecordDecision(ctx, "game-1", "", stuck, validator.Result{}))

	records, err := s.UnresolvedDecisions(ctx, "game-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].RequestID)
}
