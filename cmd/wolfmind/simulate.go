package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wolfmind/internal/config"
	"wolfmind/internal/roles"
	"wolfmind/internal/session"
	"wolfmind/internal/store"
	"wolfmind/internal/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted 6-player game through the belief engine",
	Long: `Replays a fixed 6-player scenario (one wolf, a night-1 kill-confirm)
through the full pipeline: event processing, context assembly, decision
validation, and belief-table sanitation. Decisions come from a built-in
scripted generator, not a live model.`,
	RunE: runSimulate,
}

// scriptedGenerator answers decision requests from a canned script keyed by
// decision kind, exercising the pipeline the way a live model would.
type scriptedGenerator struct {
	sess *session.Session
}

func (g *scriptedGenerator) Generate(_ context.Context, model, correction string) (types.Decision, error) {
	// The script votes according to the engine's own wolf ranking, so the
	// decision reflects accumulated beliefs.
	alive := []int{1, 2, 4, 5, 6}
	ranked := g.sess.RankByWerewolfProbability(append(alive, 3), 1)
	target := 3
	if len(ranked) > 0 && !strings.Contains(correction, fmt.Sprintf("%d号", ranked[0].PlayerID)) {
		target = ranked[0].PlayerID
	}
	return types.Decision{
		Kind:     types.DecisionVote,
		PlayerID: 1,
		TargetID: target,
		IdentityTable: types.IdentityTable{
			"3号": {Suspect: "被我查杀，是狼", Confidence: intp(95)},
			"5号": {Suspect: "大概率好人", Confidence: intp(60)},
		},
	}, nil
}

func intp(v int) *int { return &v }

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	storePath := cfg.Store.Path
	if storePath != ":memory:" && !filepath.IsAbs(storePath) {
		storePath = filepath.Join(workspace, storePath)
	}
	audit, err := store.New(storePath)
	if err != nil {
		return err
	}
	defer audit.Close()

	sess, err := session.New(*cfg, audit)
	if err != nil {
		return err
	}

	players := []types.Player{
		{ID: 1, Name: "一号", Role: types.RoleSeer, IsAlive: true},
		{ID: 2, Name: "二号", Role: types.RoleWitch, IsAlive: true},
		{ID: 3, Name: "三号", Role: types.RoleWerewolf, IsAlive: true},
		{ID: 4, Name: "四号", Role: types.RoleVillager, IsAlive: true},
		{ID: 5, Name: "五号", Role: types.RoleVillager, IsAlive: true},
		{ID: 6, Name: "六号", Role: types.RoleVillager, IsAlive: true},
	}
	setup := types.GameSetup{RolePool: map[types.Role]int{
		types.RoleWerewolf: 1,
		types.RoleSeer:     1,
		types.RoleWitch:    1,
		types.RoleVillager: 3,
	}}
	sess.Init(players, setup)
	logger.Info("session initialized",
		zap.String("game_id", sess.GameID()),
		zap.Int("players", len(players)))

	state := &types.GameState{
		Day:     1,
		Players: players,
		Setup:   setup,
		NightActions: types.NightActionHistory{
			SeerChecks: []types.SeerCheck{{Night: 1, SeerID: 1, TargetID: 3, IsWolf: true}},
		},
		Speeches: []types.SpeechRecord{
			{Day: 1, PlayerID: 1, Content: "我是预言家，昨晚查杀3号！请大家跟我的票。"},
			{Day: 1, PlayerID: 2, Content: "1号发言有逻辑，我信他，今天投3号。", VoteIntention: 3},
			{Day: 1, PlayerID: 3, Content: "我是村民，1号在冤枉我，可能他才是狼。"},
			{Day: 1, PlayerID: 4, Content: "听过。"},
			{Day: 1, PlayerID: 5, Content: "我觉得3号的辩解很无力，跟1号的票。", VoteIntention: 3},
			{Day: 1, PlayerID: 6, Content: "保持中立，再看看。"},
		},
	}
	if err := sess.ProcessEvents(ctx, state); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "=== 第1天白天：信念状态 ===")
	fmt.Fprintln(os.Stdout, sess.BuildContext(state, 1))
	fmt.Fprintln(os.Stdout)

	// Player 1's role strategy fragment, as a prompt would carry it.
	strategy := roles.ForRole(types.RoleSeer)
	fmt.Fprintln(os.Stdout, "=== 1号（预言家）策略 ===")
	fmt.Fprintln(os.Stdout, strategy.Persona())
	fmt.Fprintln(os.Stdout, strategy.DaySpeech(state, 1))
	fmt.Fprintln(os.Stdout)

	decision, result, err := sess.Decide(ctx, &scriptedGenerator{sess: sess}, state, session.DecideRequest{
		Kind:     types.DecisionVote,
		PlayerID: 1,
	})
	if err != nil {
		return err
	}
	logger.Info("decision accepted",
		zap.String("decision", decision.String()),
		zap.Bool("valid", result.IsValid))

	fmt.Fprintf(os.Stdout, "=== 1号投票决定：%d号 ===\n", decision.TargetID)
	for key, entry := range decision.IdentityTable {
		fmt.Fprintf(os.Stdout, "  信念[%s]: %s", key, entry.Suspect)
		if entry.Confidence != nil {
			fmt.Fprintf(os.Stdout, " (%d%%)", *entry.Confidence)
		}
		fmt.Fprintln(os.Stdout)
	}
	fmt.Fprintln(os.Stdout)

	// The vote lands: player 3 is eliminated and revealed.
	state.Players[2].IsAlive = false
	state.VoteRounds = append(state.VoteRounds, types.VoteRound{
		Day: 1,
		Votes: []types.Vote{
			{From: 1, To: 3}, {From: 2, To: 3}, {From: 4, To: 3},
			{From: 5, To: 3}, {From: 6, To: 3}, {From: 3, To: 1},
		},
		Eliminated: 3,
	})
	state.Deaths = append(state.Deaths, types.DeathEvent{
		Day: 1, Phase: types.PhaseDay, PlayerID: 3, Cause: "vote",
	})
	if err := sess.ProcessEvents(ctx, state); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "=== 放逐后局势 ===")
	fmt.Fprintln(os.Stdout, sess.Retrieval().GenerateSituationSummary(state))

	records, err := audit.DecisionsForPlayer(ctx, sess.GameID(), 1)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "审计记录：%d条决策\n", len(records))
	return nil
}
