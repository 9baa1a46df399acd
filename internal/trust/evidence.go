package trust

import (
	"fmt"
	"time"

	"wolfmind/internal/perception"
	"wolfmind/internal/types"
)

// EvidenceKind tags one observed piece of trust evidence.
type EvidenceKind string

const (
	EvidenceKillConfirmed    EvidenceKind = "kill_confirmed"     // 查杀 backed by a real check
	EvidenceGoldWater        EvidenceKind = "gold_water"         // 金水 backed by a real check
	EvidenceConsistentClaim  EvidenceKind = "consistent_claim"   // claim matches recorded checks
	EvidenceFalseClaim       EvidenceKind = "false_claim"        // claim contradicts recorded checks
	EvidenceSelfContradiction EvidenceKind = "self_contradiction"
	EvidenceVoteIntentBreak  EvidenceKind = "vote_intent_break"  // vote diverged from stated intention
	EvidenceVoteAgainstGold  EvidenceKind = "vote_against_gold"  // voted against a confirmed-good player
)

// Evidence is one weighted observation about a player. Weight is signed in
// [-1, 1]: negative erodes trust, positive builds it.
type Evidence struct {
	PlayerID    int          `json:"player_id"` // whom the evidence concerns
	Kind        EvidenceKind `json:"kind"`
	Weight      float64      `json:"weight"`
	Day         int          `json:"day"`
	Description string       `json:"description"`
	ObservedAt  time.Time    `json:"observed_at"`
}

// Evidence weights. Heuristic magnitudes, ordered by strength; the EMA step
// in the scorer bounds their effect per item.
const (
	weightKillConfirmed    = -0.90
	weightGoldWater        = +0.60
	weightConsistentClaim  = +0.30
	weightFalseClaim       = -0.55
	weightContradiction    = -0.40
	weightVoteIntentBreak  = -0.35
	weightVoteAgainstGold  = -0.80
)

// Context carries the verified private/public information evidence
// extraction needs. Built once per processing batch from the event log.
type Context struct {
	Day int

	// ConfirmedWolf / ConfirmedGood are targets of actual recorded seer
	// checks, keyed by target id.
	ConfirmedWolf map[int]bool
	ConfirmedGood map[int]bool

	// SeerIDs are players who have performed recorded checks.
	SeerIDs map[int]bool
}

// BuildContext derives the evidence context from night-action history.
func BuildContext(day int, nights types.NightActionHistory) Context {
	ctx := Context{
		Day:           day,
		ConfirmedWolf: make(map[int]bool),
		ConfirmedGood: make(map[int]bool),
		SeerIDs:       make(map[int]bool),
	}
	for _, check := range nights.SeerChecks {
		ctx.SeerIDs[check.SeerID] = true
		if check.IsWolf {
			ctx.ConfirmedWolf[check.TargetID] = true
		} else {
			ctx.ConfirmedGood[check.TargetID] = true
		}
	}
	return ctx
}

// ExtractEvidence derives zero or more weighted evidence items from a single
// enhanced speech.
func ExtractEvidence(speech perception.EnhancedSpeech, ctx Context) []Evidence {
	var out []Evidence
	now := time.Now()

	if speech.Contradiction {
		out = append(out, Evidence{
			PlayerID:    speech.PlayerID,
			Kind:        EvidenceSelfContradiction,
			Weight:      weightContradiction,
			Day:         speech.Day,
			Description: speech.ContradictionNote,
			ObservedAt:  now,
		})
	}

	speakerIsSeer := ctx.SeerIDs[speech.PlayerID]
	for _, claim := range speech.Claims {
		switch claim.Kind {
		case perception.ClaimKillConfirm:
			switch {
			case ctx.ConfirmedWolf[claim.TargetID]:
				// 查杀 matching a recorded check damns the target and
				// vouches for the claimant.
				out = append(out,
					Evidence{
						PlayerID:    claim.TargetID,
						Kind:        EvidenceKillConfirmed,
						Weight:      weightKillConfirmed,
						Day:         speech.Day,
						Description: fmt.Sprintf("%d号被查杀", claim.TargetID),
						ObservedAt:  now,
					},
					Evidence{
						PlayerID:    speech.PlayerID,
						Kind:        EvidenceConsistentClaim,
						Weight:      weightConsistentClaim,
						Day:         speech.Day,
						Description: "查杀与查验记录一致",
						ObservedAt:  now,
					})
			case speakerIsSeer:
				// A recorded seer announcing a check we have no record of:
				// trust the check (records may lag one night).
				out = append(out, Evidence{
					PlayerID:    claim.TargetID,
					Kind:        EvidenceKillConfirmed,
					Weight:      weightKillConfirmed,
					Day:         speech.Day,
					Description: fmt.Sprintf("%d号被查杀", claim.TargetID),
					ObservedAt:  now,
				})
			case ctx.ConfirmedGood[claim.TargetID]:
				// Claim contradicts the record: the claimant is lying.
				out = append(out, Evidence{
					PlayerID:    speech.PlayerID,
					Kind:        EvidenceFalseClaim,
					Weight:      weightFalseClaim,
					Day:         speech.Day,
					Description: fmt.Sprintf("声称查杀%d号，但记录为好人", claim.TargetID),
					ObservedAt:  now,
				})
			}
		case perception.ClaimGoldWater:
			switch {
			case ctx.ConfirmedGood[claim.TargetID]:
				out = append(out,
					Evidence{
						PlayerID:    claim.TargetID,
						Kind:        EvidenceGoldWater,
						Weight:      weightGoldWater,
						Day:         speech.Day,
						Description: fmt.Sprintf("%d号金水", claim.TargetID),
						ObservedAt:  now,
					},
					Evidence{
						PlayerID:    speech.PlayerID,
						Kind:        EvidenceConsistentClaim,
						Weight:      weightConsistentClaim,
						Day:         speech.Day,
						Description: "金水与查验记录一致",
						ObservedAt:  now,
					})
			case speakerIsSeer:
				out = append(out, Evidence{
					PlayerID:    claim.TargetID,
					Kind:        EvidenceGoldWater,
					Weight:      weightGoldWater,
					Day:         speech.Day,
					Description: fmt.Sprintf("%d号金水", claim.TargetID),
					ObservedAt:  now,
				})
			case ctx.ConfirmedWolf[claim.TargetID]:
				out = append(out, Evidence{
					PlayerID:    speech.PlayerID,
					Kind:        EvidenceFalseClaim,
					Weight:      weightFalseClaim,
					Day:         speech.Day,
					Description: fmt.Sprintf("为已查杀的%d号发金水", claim.TargetID),
					ObservedAt:  now,
				})
			}
		}
	}

	return out
}

// AnalyzeVoteBehavior derives evidence when a vote contradicts the voter's
// last stated intention or known verified information.
func AnalyzeVoteBehavior(vote types.Vote, day int, lastSpeech *perception.EnhancedSpeech, ctx Context) []Evidence {
	var out []Evidence
	now := time.Now()

	if ctx.ConfirmedGood[vote.To] {
		out = append(out, Evidence{
			PlayerID:    vote.From,
			Kind:        EvidenceVoteAgainstGold,
			Weight:      weightVoteAgainstGold,
			Day:         day,
			Description: fmt.Sprintf("投票针对金水%d号", vote.To),
			ObservedAt:  now,
		})
	}

	if lastSpeech != nil && lastSpeech.VoteIntention != 0 && lastSpeech.VoteIntention != vote.To {
		out = append(out, Evidence{
			PlayerID:    vote.From,
			Kind:        EvidenceVoteIntentBreak,
			Weight:      weightVoteIntentBreak,
			Day:         day,
			Description: fmt.Sprintf("声称投%d号却投了%d号", lastSpeech.VoteIntention, vote.To),
			ObservedAt:  now,
		})
	}

	return out
}
