package bayes

import (
	"wolfmind/internal/perception"
	"wolfmind/internal/types"
)

// Action type names. These key into the configured P(Action|Role) table;
// adding a new observable means adding a row there, not code here.
const (
	ActionClaimedSeer           = "claimed_seer"
	ActionCheckedAsWolf         = "checked_as_wolf"
	ActionCheckedAsGood         = "checked_as_good"
	ActionVotedAgainstGoldWater = "voted_against_gold_water"
	ActionVoteAgainstIntent     = "vote_against_stated_intent"
	ActionSelfContradiction     = "self_contradiction"
	ActionDiedNight1            = "died_night_1"
)

// Action is one tagged observable derived from a raw event, about one player.
type Action struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"` // whose distribution this updates
	Day      int    `json:"day"`
}

// SignalContext carries the recorded-check information action detection
// needs to tell a real 查杀 from table talk.
type SignalContext struct {
	ConfirmedWolf map[int]bool
	ConfirmedGood map[int]bool
	SeerIDs       map[int]bool
}

// SignalContextFrom builds the context from night-action history.
func SignalContextFrom(nights types.NightActionHistory) SignalContext {
	sc := SignalContext{
		ConfirmedWolf: make(map[int]bool),
		ConfirmedGood: make(map[int]bool),
		SeerIDs:       make(map[int]bool),
	}
	for _, check := range nights.SeerChecks {
		sc.SeerIDs[check.SeerID] = true
		if check.IsWolf {
			sc.ConfirmedWolf[check.TargetID] = true
		} else {
			sc.ConfirmedGood[check.TargetID] = true
		}
	}
	return sc
}

// DetectActionsFromSpeech maps one enhanced speech into observable actions.
func DetectActionsFromSpeech(speech perception.EnhancedSpeech, sc SignalContext) []Action {
	var actions []Action

	if speech.Contradiction {
		actions = append(actions, Action{Type: ActionSelfContradiction, PlayerID: speech.PlayerID, Day: speech.Day})
	}

	for _, claim := range speech.Claims {
		switch claim.Kind {
		case perception.ClaimRole:
			if claim.Role == types.RoleSeer {
				actions = append(actions, Action{Type: ActionClaimedSeer, PlayerID: speech.PlayerID, Day: speech.Day})
			}
		case perception.ClaimKillConfirm:
			// Only a 查杀 backed by a recorded check, or made by a recorded
			// seer, counts as evidence against the target.
			if sc.ConfirmedWolf[claim.TargetID] || sc.SeerIDs[speech.PlayerID] {
				actions = append(actions, Action{Type: ActionCheckedAsWolf, PlayerID: claim.TargetID, Day: speech.Day})
			}
		case perception.ClaimGoldWater:
			if sc.ConfirmedGood[claim.TargetID] || sc.SeerIDs[speech.PlayerID] {
				actions = append(actions, Action{Type: ActionCheckedAsGood, PlayerID: claim.TargetID, Day: speech.Day})
			}
		}
	}

	return actions
}

// DetectActionsFromVote maps one vote into observable actions about the voter.
func DetectActionsFromVote(vote types.Vote, day int, lastSpeech *perception.EnhancedSpeech, sc SignalContext) []Action {
	var actions []Action

	if sc.ConfirmedGood[vote.To] {
		actions = append(actions, Action{Type: ActionVotedAgainstGoldWater, PlayerID: vote.From, Day: day})
	}
	if lastSpeech != nil && lastSpeech.VoteIntention != 0 && lastSpeech.VoteIntention != vote.To {
		actions = append(actions, Action{Type: ActionVoteAgainstIntent, PlayerID: vote.From, Day: day})
	}

	return actions
}

// DetectActionsFromDeath maps a death into observable actions. A night-one
// kill says something about who the wolves feared.
func DetectActionsFromDeath(death types.DeathEvent) []Action {
	if death.Day == 1 && death.Phase == types.PhaseNight {
		return []Action{{Type: ActionDiedNight1, PlayerID: death.PlayerID, Day: death.Day}}
	}
	return nil
}
