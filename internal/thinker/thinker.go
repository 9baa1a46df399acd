// Package thinker merges trust, identity, and aggregated speech features
// into a strategy recommendation and compressed textual briefings. The
// thinker never re-reads raw speech text; everything it consumes is
// structured output from the upstream analyzers.
package thinker

import (
	"fmt"
	"sort"
	"strings"

	"wolfmind/internal/bayes"
	"wolfmind/internal/logging"
	"wolfmind/internal/perception"
	"wolfmind/internal/trust"
	"wolfmind/internal/types"
)

// ===== FEATURE MATRIX =====

// PlayerFeatures aggregates structured signals for one player across the
// whole game to date.
type PlayerFeatures struct {
	PlayerID       int        `json:"player_id"`
	SpeechCount    int        `json:"speech_count"`
	ClaimedRole    types.Role `json:"claimed_role,omitempty"`
	Contradictions int        `json:"contradictions"`
	Accusations    int        `json:"accusations"` // accusations made by this player
	AccusedBy      int        `json:"accused_by"`  // times this player was accused
	GoldWaterFrom  []int      `json:"gold_water_from,omitempty"`
	KillConfirmBy  []int      `json:"kill_confirm_by,omitempty"`
	LastDay        int        `json:"last_day"`
}

// FeatureMatrix maps playerID to aggregated features. Rebuilt in full on
// every call; never patched incrementally.
type FeatureMatrix map[int]*PlayerFeatures

// BuildFeatureMatrix aggregates per-player features from the enhanced
// speech history. Full rebuild per call.
func BuildFeatureMatrix(history []perception.EnhancedSpeech, players []types.Player) FeatureMatrix {
	matrix := make(FeatureMatrix, len(players))
	for _, p := range players {
		matrix[p.ID] = &PlayerFeatures{PlayerID: p.ID}
	}

	for _, sp := range history {
		feat := matrix[sp.PlayerID]
		if feat == nil {
			continue
		}
		feat.SpeechCount++
		feat.LastDay = sp.Day
		if sp.Contradiction {
			feat.Contradictions++
		}
		if role := sp.ClaimedRole(); role != "" {
			feat.ClaimedRole = role
		}
		for _, claim := range sp.Claims {
			switch claim.Kind {
			case perception.ClaimAccuse, perception.ClaimKillConfirm:
				feat.Accusations++
				if target := matrix[claim.TargetID]; target != nil {
					target.AccusedBy++
					if claim.Kind == perception.ClaimKillConfirm {
						target.KillConfirmBy = appendUnique(target.KillConfirmBy, sp.PlayerID)
					}
				}
			case perception.ClaimGoldWater:
				if target := matrix[claim.TargetID]; target != nil {
					target.GoldWaterFrom = appendUnique(target.GoldWaterFrom, sp.PlayerID)
				}
			}
		}
	}
	return matrix
}

// ===== LISTENER =====

// DayDigest is the listener's compression of one day's speeches: claims and
// named targets only, filler discarded.
type DayDigest struct {
	Day     int          `json:"day"`
	Entries []DigestLine `json:"entries"`
}

// DigestLine is one speaker's structured summary.
type DigestLine struct {
	PlayerID    int                `json:"player_id"`
	ClaimedRole types.Role         `json:"claimed_role,omitempty"`
	Claims      []perception.Claim `json:"claims,omitempty"`
	Sentiment   perception.Sentiment `json:"sentiment"`
	VoteIntent  int                `json:"vote_intent,omitempty"`
}

// ListenerExtract compresses one day's speeches into a structured digest.
// Speeches with no claims, no vote intention, and neutral sentiment are
// dropped entirely.
func ListenerExtract(daySpeeches []perception.EnhancedSpeech) DayDigest {
	digest := DayDigest{}
	for _, sp := range daySpeeches {
		digest.Day = sp.Day
		line := DigestLine{
			PlayerID:    sp.PlayerID,
			ClaimedRole: sp.ClaimedRole(),
			Claims:      sp.Claims,
			Sentiment:   sp.Sentiment,
			VoteIntent:  sp.VoteIntention,
		}
		if len(line.Claims) == 0 && line.VoteIntent == 0 && line.Sentiment == perception.SentimentNeutral {
			continue
		}
		digest.Entries = append(digest.Entries, line)
	}
	return digest
}

// ===== THINKER =====

// Stance is the recommended posture for the next speech.
type Stance string

const (
	StanceAggressive Stance = "aggressive" // push a suspect hard
	StanceDefensive  Stance = "defensive"  // under fire, defend credibility
	StanceObservant  Stance = "observant"  // low information, stay quiet
)

// Strategy is the thinker's output: who to pressure, who to protect, and
// how to carry the next speech.
type Strategy struct {
	PriorityTargets []int   `json:"priority_targets"` // most suspicious first
	ProtectTargets  []int   `json:"protect_targets,omitempty"`
	Stance          Stance  `json:"stance"`
	TopWolfProb     float64 `json:"top_wolf_prob"`
	Rationale       string  `json:"rationale"`
}

// suspicion is the blended pressure score used for target ranking.
// Wolf posterior dominates; distrust and contradiction count break ties.
func suspicion(wolfProb, trustScore float64, contradictions int) float64 {
	return wolfProb*2.0 + (1.0-trustScore) + float64(contradictions)*0.15
}

// ThinkerDecide produces a strategy purely from structured inputs.
func ThinkerDecide(
	self types.Player,
	matrix FeatureMatrix,
	state *types.GameState,
	trustProfiles map[int]trust.Profile,
	dists map[int]bayes.Distribution,
) Strategy {
	type candidate struct {
		id       int
		score    float64
		wolfProb float64
	}
	var candidates []candidate
	var protect []int

	for _, p := range state.Players {
		if !p.IsAlive || p.ID == self.ID {
			continue
		}
		wolfProb := 0.0
		if d, ok := dists[p.ID]; ok {
			wolfProb = d.WolfProbability()
		}
		trustScore := 0.5
		if tp, ok := trustProfiles[p.ID]; ok {
			trustScore = tp.OverallTrust
		}
		contradictions := 0
		goldWater := false
		if feat := matrix[p.ID]; feat != nil {
			contradictions = feat.Contradictions
			goldWater = len(feat.GoldWaterFrom) > 0
		}
		if goldWater && trustScore >= 0.5 {
			protect = append(protect, p.ID)
			continue
		}
		candidates = append(candidates, candidate{
			id:       p.ID,
			score:    suspicion(wolfProb, trustScore, contradictions),
			wolfProb: wolfProb,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	strategy := Strategy{ProtectTargets: protect, Stance: StanceObservant}
	for i, c := range candidates {
		if i >= 3 {
			break
		}
		strategy.PriorityTargets = append(strategy.PriorityTargets, c.id)
	}
	if len(candidates) > 0 {
		strategy.TopWolfProb = candidates[0].wolfProb
	}

	underFire := false
	if feat := matrix[self.ID]; feat != nil && feat.AccusedBy >= 2 {
		underFire = true
	}
	switch {
	case underFire:
		strategy.Stance = StanceDefensive
		strategy.Rationale = "多人指控，优先自证"
	case strategy.TopWolfProb >= 0.5:
		strategy.Stance = StanceAggressive
		strategy.Rationale = fmt.Sprintf("%d号狼面概率%.0f%%，集中施压", strategy.PriorityTargets[0], strategy.TopWolfProb*100)
	default:
		strategy.Rationale = "信息不足，观察为主"
	}

	logging.Thinker("player %d strategy: stance=%s targets=%v", self.ID, strategy.Stance, strategy.PriorityTargets)
	return strategy
}

// ===== CONTEXT RENDERING =====

// GenerateThinkerContext renders a strategy as a short briefing line.
func GenerateThinkerContext(s Strategy) string {
	var b strings.Builder
	b.WriteString("【策略建议】")
	switch s.Stance {
	case StanceAggressive:
		b.WriteString("进攻姿态。")
	case StanceDefensive:
		b.WriteString("防守姿态。")
	default:
		b.WriteString("观察姿态。")
	}
	if len(s.PriorityTargets) > 0 {
		targets := make([]string, len(s.PriorityTargets))
		for i, id := range s.PriorityTargets {
			targets[i] = fmt.Sprintf("%d号", id)
		}
		b.WriteString("重点怀疑：" + strings.Join(targets, "、") + "。")
	}
	if len(s.ProtectTargets) > 0 {
		targets := make([]string, len(s.ProtectTargets))
		for i, id := range s.ProtectTargets {
			targets[i] = fmt.Sprintf("%d号", id)
		}
		b.WriteString("需要保护：" + strings.Join(targets, "、") + "。")
	}
	if s.Rationale != "" {
		b.WriteString(s.Rationale + "。")
	}
	return b.String()
}

// GenerateListenerContext renders a day digest as compact text, one line
// per speaker.
func GenerateListenerContext(digest DayDigest) string {
	if len(digest.Entries) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "【第%d天发言摘要】\n", digest.Day)
	for _, line := range digest.Entries {
		fmt.Fprintf(&b, "%d号：", line.PlayerID)
		var parts []string
		if line.ClaimedRole != "" {
			parts = append(parts, "自称"+string(line.ClaimedRole))
		}
		for _, claim := range line.Claims {
			switch claim.Kind {
			case perception.ClaimKillConfirm:
				parts = append(parts, fmt.Sprintf("查杀%d号", claim.TargetID))
			case perception.ClaimGoldWater:
				parts = append(parts, fmt.Sprintf("发%d号金水", claim.TargetID))
			case perception.ClaimAccuse:
				parts = append(parts, fmt.Sprintf("指控%d号", claim.TargetID))
			case perception.ClaimVouch:
				parts = append(parts, fmt.Sprintf("力保%d号", claim.TargetID))
			}
		}
		if line.VoteIntent > 0 {
			parts = append(parts, fmt.Sprintf("意向投%d号", line.VoteIntent))
		}
		if len(parts) == 0 {
			parts = append(parts, string(line.Sentiment))
		}
		b.WriteString(strings.Join(parts, "，"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func appendUnique(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
