// Package perception converts raw speech logs into structured signals:
// extracted claims, a sentiment label, and self-contradiction flags. It is
// the first stage of the belief pipeline; everything downstream (trust,
// identity inference, deception, retrieval) consumes its output instead of
// re-reading raw text.
package perception

import (
	"fmt"

	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

// EnhancedSpeech is one speech record annotated with extracted structure.
// Ordering and cardinality match the input log exactly.
type EnhancedSpeech struct {
	types.SpeechRecord

	Claims        []Claim   `json:"claims,omitempty"`
	Sentiment     Sentiment `json:"sentiment"`
	Contradiction bool      `json:"contradiction"`
	// ContradictionNote says what clashed, for context text and retrieval.
	ContradictionNote string `json:"contradiction_note,omitempty"`
}

// ClaimedRole returns the role this speech claims for the speaker, or "".
func (e EnhancedSpeech) ClaimedRole() types.Role {
	for _, c := range e.Claims {
		if c.Kind == ClaimRole {
			return c.Role
		}
	}
	return ""
}

// Enhance annotates the whole speech log. It is a pure, deterministic
// function of its input and recomputes everything on each call; callers
// memoize by log length. It never fails: unparsable text simply produces
// no claims.
func Enhance(history []types.SpeechRecord, players []types.Player) []EnhancedSpeech {
	timer := logging.StartTimer(logging.CategoryEnhancer, fmt.Sprintf("enhance %d speeches", len(history)))
	defer timer.Stop()

	knownIDs := make(map[int]bool, len(players))
	for _, p := range players {
		knownIDs[p.ID] = true
	}

	// Per-player running claim state for contradiction detection.
	type priorState struct {
		role    types.Role
		stance  map[int]ClaimKind // target -> last stance claim about them
	}
	priors := make(map[int]*priorState)

	out := make([]EnhancedSpeech, 0, len(history))
	for _, rec := range history {
		claims := ExtractClaims(rec.Content, knownIDs)
		es := EnhancedSpeech{
			SpeechRecord: rec,
			Claims:       claims,
			Sentiment:    ClassifySentiment(rec.Content, claims),
		}

		prior := priors[rec.PlayerID]
		if prior == nil {
			prior = &priorState{stance: make(map[int]ClaimKind)}
			priors[rec.PlayerID] = prior
		}

		for _, c := range claims {
			switch c.Kind {
			case ClaimRole:
				if prior.role != "" && prior.role != c.Role {
					es.Contradiction = true
					es.ContradictionNote = fmt.Sprintf("先自称%s，现又自称%s", prior.role, c.Role)
				}
				prior.role = c.Role
			case ClaimKillConfirm, ClaimAccuse:
				if last, ok := prior.stance[c.TargetID]; ok && isPositive(last) {
					es.Contradiction = true
					es.ContradictionNote = fmt.Sprintf("先保%d号后改口指认其为狼", c.TargetID)
				}
				prior.stance[c.TargetID] = c.Kind
			case ClaimGoldWater, ClaimVouch:
				if last, ok := prior.stance[c.TargetID]; ok && !isPositive(last) {
					es.Contradiction = true
					es.ContradictionNote = fmt.Sprintf("先指认%d号为狼后又为其背书", c.TargetID)
				}
				prior.stance[c.TargetID] = c.Kind
			}
		}

		out = append(out, es)
	}

	return out
}

func isPositive(k ClaimKind) bool {
	return k == ClaimGoldWater || k == ClaimVouch
}

// LastSpeechOf returns the most recent enhanced speech by a player, or nil.
func LastSpeechOf(history []EnhancedSpeech, playerID int) *EnhancedSpeech {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].PlayerID == playerID {
			return &history[i]
		}
	}
	return nil
}

// SpeechesOnDay filters one day's speeches, preserving order.
func SpeechesOnDay(history []EnhancedSpeech, day int) []EnhancedSpeech {
	var out []EnhancedSpeech
	for _, s := range history {
		if s.Day == day {
			out = append(out, s)
		}
	}
	return out
}
