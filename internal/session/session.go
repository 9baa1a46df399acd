// Package session orchestrates the belief engine for one game: it owns
// every profile map, feeds new event-log entries through the analyzers,
// assembles context for generation requests, and drives the model
// fallback, validation, and sanitization pipeline around each decision.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wolfmind/internal/bayes"
	"wolfmind/internal/config"
	"wolfmind/internal/deception"
	"wolfmind/internal/kernel"
	"wolfmind/internal/logging"
	"wolfmind/internal/perception"
	"wolfmind/internal/retrieval"
	"wolfmind/internal/sanitize"
	"wolfmind/internal/store"
	"wolfmind/internal/thinker"
	"wolfmind/internal/trust"
	"wolfmind/internal/types"
	"wolfmind/internal/validator"
)

// ErrNoResult reports that every candidate model failed; the caller must
// choose a fallback behavior (abstain, default action). Never a hang.
var ErrNoResult = errors.New("session: no usable generation result")

// ModelGenerator produces a decision with a specific model. The correction
// prompt is empty on first attempts.
type ModelGenerator interface {
	Generate(ctx context.Context, model, correctionPrompt string) (types.Decision, error)
}

// ModelGeneratorFunc adapts a function to ModelGenerator.
type ModelGeneratorFunc func(ctx context.Context, model, correctionPrompt string) (types.Decision, error)

func (f ModelGeneratorFunc) Generate(ctx context.Context, model, correctionPrompt string) (types.Decision, error) {
	return f(ctx, model, correctionPrompt)
}

// DecideRequest describes one decision to obtain.
type DecideRequest struct {
	Kind     types.DecisionKind
	PlayerID int
	// VerifiedGood lists players this player privately knows are good.
	VerifiedGood []int
}

// Session is the belief engine for a single game.
type Session struct {
	cfg    config.Config
	gameID string

	trust     *trust.Scorer
	bayes     *bayes.Inferencer
	deception *deception.Detector
	kernel    *kernel.Kernel
	retrieval *retrieval.Engine
	validator *validator.Validator
	audit     *store.Store // optional

	players []types.Player
	setup   types.GameSetup

	enhanced []perception.EnhancedSpeech
	matrix   thinker.FeatureMatrix

	// processed counters memoize how far into each append-only log the
	// session has consumed; ProcessEvents only handles the tail.
	processedSpeeches int
	processedRounds   int
	processedDeaths   int
	processedChecks   int

	// blacklist tracks failing models in failure order.
	blacklist []string
}

// New creates a session. The audit store may be nil.
func New(cfg config.Config, audit *store.Store) (*Session, error) {
	k, err := kernel.New()
	if err != nil {
		return nil, fmt.Errorf("create kernel: %w", err)
	}
	return &Session{
		cfg:       cfg,
		gameID:    uuid.NewString(),
		trust:     trust.NewScorer(cfg.Trust),
		bayes:     bayes.NewInferencer(cfg.Bayes),
		deception: deception.NewDetector(cfg.Deception),
		kernel:    k,
		retrieval: retrieval.New(k),
		validator: validator.New(cfg.Validator),
		audit:     audit,
	}, nil
}

// GameID returns the session's generated game identifier.
func (s *Session) GameID() string { return s.gameID }

// Init creates all per-game state for a fresh game.
func (s *Session) Init(players []types.Player, setup types.GameSetup) {
	s.players = players
	s.setup = setup
	s.trust.InitializeProfiles(players)
	s.bayes.InitializeDistributions(players, setup)
	s.deception.InitializeProfiles(players)
	s.matrix = thinker.BuildFeatureMatrix(nil, players)
	logging.Session("session %s initialized: %d players, pool=%v", s.gameID, len(players), setup.RolePool)
}

// Reset discards all per-game state. Init must be called before the
// session is used again.
func (s *Session) Reset() {
	s.kernel.Reset()
	s.enhanced = nil
	s.matrix = nil
	s.players = nil
	s.setup = types.GameSetup{}
	s.processedSpeeches = 0
	s.processedRounds = 0
	s.processedDeaths = 0
	s.processedChecks = 0
	s.blacklist = nil
	s.trust = trust.NewScorer(s.cfg.Trust)
	s.bayes = bayes.NewInferencer(s.cfg.Bayes)
	s.deception = deception.NewDetector(s.cfg.Deception)
	logging.Session("session %s reset", s.gameID)
}

// ===== EVENT PROCESSING =====

// ProcessEvents consumes the tail of every append-only log in the game
// state. Safe to call repeatedly: already-processed prefixes are skipped by
// length, so a call with an unchanged log is a no-op.
func (s *Session) ProcessEvents(ctx context.Context, state *types.GameState) error {
	s.players = state.Players

	newSpeeches, err := s.ingestSpeeches(ctx, state)
	if err != nil {
		return err
	}
	s.ingestVotes(state)
	s.ingestDeaths(state)
	s.ingestChecks(state)

	if len(newSpeeches) > 0 || s.matrix == nil {
		s.matrix = thinker.BuildFeatureMatrix(s.enhanced, state.Players)
	}
	return nil
}

func (s *Session) ingestSpeeches(ctx context.Context, state *types.GameState) ([]perception.EnhancedSpeech, error) {
	if len(state.Speeches) == s.processedSpeeches {
		return nil, nil
	}
	timer := logging.StartTimer(logging.CategorySession, "process speeches")
	defer timer.Stop()

	// The enhancer is a pure full recompute over the whole log; only the
	// tail is fed to the analyzers.
	s.enhanced = perception.Enhance(state.Speeches, state.Players)
	newSpeeches := s.enhanced[s.processedSpeeches:]
	s.processedSpeeches = len(s.enhanced)

	trustCtx := trust.BuildContext(state.Day, state.NightActions)
	signalCtx := bayes.SignalContextFrom(state.NightActions)

	// The analyzers own disjoint profile maps, so they fan out in
	// parallel; each one walks the tail sequentially.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, sp := range newSpeeches {
			s.trust.UpdateScore(trust.ExtractEvidence(sp, trustCtx))
		}
		return nil
	})
	g.Go(func() error {
		for _, sp := range newSpeeches {
			for _, action := range bayes.DetectActionsFromSpeech(sp, signalCtx) {
				s.bayes.Update(action)
			}
		}
		return nil
	})
	g.Go(func() error {
		for _, sp := range newSpeeches {
			speech := sp
			signals := s.deception.AnalyzeSignals(speech)
			s.deception.UpdateProfile(speech.PlayerID, signals, &speech)
		}
		return nil
	})
	g.Go(func() error {
		return s.assertSpeechFacts(newSpeeches)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newSpeeches, nil
}

func (s *Session) assertSpeechFacts(speeches []perception.EnhancedSpeech) error {
	for _, sp := range speeches {
		for _, claim := range sp.Claims {
			var err error
			switch claim.Kind {
			case perception.ClaimRole:
				err = s.kernel.AssertRoleClaim(sp.PlayerID, claim.Role, sp.Day)
			case perception.ClaimKillConfirm:
				err = s.kernel.AssertKillClaim(sp.PlayerID, claim.TargetID, sp.Day)
			case perception.ClaimGoldWater:
				err = s.kernel.AssertGoldClaim(sp.PlayerID, claim.TargetID, sp.Day)
			}
			if err != nil {
				return fmt.Errorf("assert speech fact: %w", err)
			}
		}
	}
	return nil
}

func (s *Session) ingestVotes(state *types.GameState) {
	trustCtx := trust.BuildContext(state.Day, state.NightActions)
	signalCtx := bayes.SignalContextFrom(state.NightActions)

	for _, round := range state.VoteRounds[s.processedRounds:] {
		for _, vote := range round.Votes {
			last := perception.LastSpeechOf(s.enhanced, vote.From)
			s.trust.UpdateScore(trust.AnalyzeVoteBehavior(vote, round.Day, last, trustCtx))
			for _, action := range bayes.DetectActionsFromVote(vote, round.Day, last, signalCtx) {
				s.bayes.Update(action)
			}
			s.deception.UpdateProfile(vote.From, s.deception.AnalyzeVoteDeception(vote, round.Day, last), nil)
			if err := s.kernel.AssertVote(vote.From, vote.To, round.Day); err != nil {
				logging.KernelWarn("assert vote: %v", err)
			}
		}
	}
	s.processedRounds = len(state.VoteRounds)
}

func (s *Session) ingestDeaths(state *types.GameState) {
	for _, death := range state.Deaths[s.processedDeaths:] {
		for _, action := range bayes.DetectActionsFromDeath(death) {
			s.bayes.Update(action)
		}
		if p := types.FindPlayer(state.Players, death.PlayerID); p != nil && p.Role != "" && p.Role != types.RoleUnknown {
			s.bayes.UpdateOnDeath(death, p.Role)
		}
		if err := s.kernel.AssertDeath(death.PlayerID, death.Day, death.Phase); err != nil {
			logging.KernelWarn("assert death: %v", err)
		}
	}
	s.processedDeaths = len(state.Deaths)
}

func (s *Session) ingestChecks(state *types.GameState) {
	for _, check := range state.NightActions.SeerChecks[s.processedChecks:] {
		if err := s.kernel.AssertSeerCheck(check.SeerID, check.TargetID, check.IsWolf, check.Night); err != nil {
			logging.KernelWarn("assert seer check: %v", err)
		}
	}
	s.processedChecks = len(state.NightActions.SeerChecks)
}

// ===== CONTEXT ASSEMBLY =====

// BuildContext concatenates the analyzers' textual fragments for one
// player's next generation request. Empty fragments are dropped.
func (s *Session) BuildContext(state *types.GameState, selfID int) string {
	alive := types.AliveIDs(state.Players)

	var fragments []string
	if summary := s.retrieval.GenerateSituationSummary(state); summary != "" {
		fragments = append(fragments, summary)
	}
	if conflict := s.retrieval.BuildSeerConflictInfo(s.enhanced, state.NightActions.SeerChecks); conflict.HasConflict {
		fragments = append(fragments, conflict.Analysis)
	}
	if frag := s.trust.GenerateContext(alive, selfID); frag != "" {
		fragments = append(fragments, frag)
	}
	if frag := s.bayes.GenerateContext(alive, selfID); frag != "" {
		fragments = append(fragments, frag)
	}
	if frag := s.deception.GenerateContext(alive, selfID); frag != "" {
		fragments = append(fragments, frag)
	}
	if self := types.FindPlayer(state.Players, selfID); self != nil {
		strategy := thinker.ThinkerDecide(*self, s.matrix, state, s.trust.Snapshot(), s.bayes.Snapshot())
		fragments = append(fragments, thinker.GenerateThinkerContext(strategy))
	}
	return strings.Join(fragments, "\n")
}

// ===== DECISION PIPELINE =====

// Decide obtains one validated, sanitized decision. Candidate models are
// tried in configured order, skipping temporarily blacklisted ones; a model
// whose generation errors joins the blacklist. When every candidate is
// blacklisted, the blacklist is cleared and a configured fraction of it is
// restored, so persistent failures stay parked while the rest get another
// chance. All candidates failing yields ErrNoResult.
func (s *Session) Decide(ctx context.Context, gen ModelGenerator, state *types.GameState, req DecideRequest) (types.Decision, validator.Result, error) {
	models := s.cfg.Fallback.Models
	if len(models) == 0 {
		models = []string{""}
	}
	if s.allBlacklisted(models) {
		s.restoreBlacklist()
	}

	vctx := validator.Context{
		SelfID:       req.PlayerID,
		Players:      state.Players,
		Nights:       state.NightActions,
		VerifiedGood: req.VerifiedGood,
	}

	var lastErr error
	for _, model := range models {
		if s.isBlacklisted(model) {
			continue
		}
		model := model
		bound := validator.GeneratorFunc(func(ctx context.Context, correction string) (types.Decision, error) {
			return gen.Generate(ctx, model, correction)
		})

		decision, result, err := s.validator.RunWithRetry(ctx, bound, vctx)
		if err != nil {
			lastErr = err
			s.blacklist = append(s.blacklist, model)
			logging.SessionWarn("model %q failed, blacklisted (%d/%d): %v", model, len(s.blacklist), len(models), err)
			continue
		}

		decision.RequestID = uuid.NewString()
		decision.GeneratedAt = time.Now()
		if decision.IdentityTable != nil {
			cleaned := sanitize.Sanitize(decision.IdentityTable, state.Players, s.setup)
			if cleaned.Changed {
				logging.Sanitizer("belief table repaired for player %d", decision.PlayerID)
			}
			decision.IdentityTable = cleaned.Table
		}

		if s.audit != nil {
			if err := s.audit.RecordDecision(ctx, s.gameID, model, decision, result); err != nil {
				logging.StoreError("audit write failed: %v", err)
			}
		}
		return decision, result, nil
	}

	if lastErr != nil {
		return types.Decision{}, validator.Result{}, fmt.Errorf("%w: %v", ErrNoResult, lastErr)
	}
	return types.Decision{}, validator.Result{}, ErrNoResult
}

func (s *Session) isBlacklisted(model string) bool {
	for _, m := range s.blacklist {
		if m == model {
			return true
		}
	}
	return false
}

func (s *Session) allBlacklisted(models []string) bool {
	for _, m := range models {
		if !s.isBlacklisted(m) {
			return false
		}
	}
	return true
}

// restoreBlacklist clears the blacklist, then restores the configured
// fraction of its oldest entries. Oldest failures stay parked; the rest
// are retried.
func (s *Session) restoreBlacklist() {
	keep := int(float64(len(s.blacklist)) * s.cfg.Fallback.BlacklistRestoreFraction)
	if keep >= len(s.blacklist) {
		keep = len(s.blacklist) - 1
	}
	if keep < 0 {
		keep = 0
	}
	restored := s.blacklist[:keep]
	logging.Session("blacklist exhausted: clearing %d entries, restoring %d", len(s.blacklist), keep)
	s.blacklist = append([]string(nil), restored...)
}

// ===== SNAPSHOTS =====

// TrustSnapshot returns a copy of the trust profiles.
func (s *Session) TrustSnapshot() map[int]trust.Profile { return s.trust.Snapshot() }

// BayesSnapshot returns a copy of the identity distributions.
func (s *Session) BayesSnapshot() map[int]bayes.Distribution { return s.bayes.Snapshot() }

// DeceptionSnapshot returns a copy of the deception profiles.
func (s *Session) DeceptionSnapshot() map[int]deception.Profile { return s.deception.Snapshot() }

// RankByWerewolfProbability exposes the inferencer's ranking.
func (s *Session) RankByWerewolfProbability(alive []int, selfID int) []bayes.Ranked {
	return s.bayes.RankByWerewolfProbability(alive, selfID)
}

// Kernel exposes the fact base for diagnostic queries.
func (s *Session) Kernel() *kernel.Kernel { return s.kernel }

// Retrieval exposes the retrieval engine.
func (s *Session) Retrieval() *retrieval.Engine { return s.retrieval }

// Enhanced returns the enhanced speech log processed so far.
func (s *Session) Enhanced() []perception.EnhancedSpeech { return s.enhanced }
