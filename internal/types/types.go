// Package types provides shared type definitions used across wolfMIND packages.
// This package exists to break import cycles between the analyzers, the session
// layer, and the validator. Types in this package should be foundational data
// structures with no complex dependencies.
package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is one of the closed set of roles a game can be configured with.
// Role names are the Chinese names used on the wire and in the role pool;
// they are compared byte-for-byte, never fuzzily.
type Role string

const (
	RoleWerewolf Role = "狼人"
	RoleSeer     Role = "预言家"
	RoleWitch    Role = "女巫"
	RoleGuard    Role = "守卫"
	RoleHunter   Role = "猎人"
	RoleVillager Role = "村民"

	// RoleUnknown is the sentinel written by the sanitizer when a reported
	// suspect cannot be resolved against the configured pool.
	RoleUnknown Role = "UNKNOWN_ROLE"
)

// IsWolf reports whether the role belongs to the werewolf faction.
func (r Role) IsWolf() bool { return r == RoleWerewolf }

// IsGod reports whether the role is a "god" (special good) role.
func (r Role) IsGod() bool {
	switch r {
	case RoleSeer, RoleWitch, RoleGuard, RoleHunter:
		return true
	}
	return false
}

// GoodRoles returns the non-wolf roles present in the given pool, sorted for
// deterministic iteration.
func GoodRoles(pool map[Role]int) []Role {
	var roles []Role
	for r, n := range pool {
		if n > 0 && !r.IsWolf() {
			roles = append(roles, r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// =============================================================================
// GAME SETUP
// =============================================================================

// VictoryMode selects the win condition variant for the wolf faction.
type VictoryMode string

const (
	VictoryKillAll   VictoryMode = "kill_all"   // wolves must eliminate everyone
	VictoryKillSide  VictoryMode = "kill_side"  // wolves win by wiping villagers or gods
)

// GameSetup is the configured role-count pool and victory mode for one game
// instance. It is immutable once the game starts.
type GameSetup struct {
	RolePool    map[Role]int `json:"role_pool"`
	VictoryMode VictoryMode  `json:"victory_mode"`
}

// TotalPlayers returns the number of seats implied by the pool.
func (s GameSetup) TotalPlayers() int {
	total := 0
	for _, n := range s.RolePool {
		total += n
	}
	return total
}

// Roles lists the roles present in the pool in deterministic order.
func (s GameSetup) Roles() []Role {
	roles := make([]Role, 0, len(s.RolePool))
	for r, n := range s.RolePool {
		if n > 0 {
			roles = append(roles, r)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Capabilities describes which special roles exist in a setup. Computed once
// from the pool and passed down instead of being re-derived per call site.
type Capabilities struct {
	HasSeer   bool
	HasWitch  bool
	HasGuard  bool
	HasHunter bool
}

// CapabilitiesOf derives the capability struct from a setup.
func CapabilitiesOf(setup GameSetup) Capabilities {
	return Capabilities{
		HasSeer:   setup.RolePool[RoleSeer] > 0,
		HasWitch:  setup.RolePool[RoleWitch] > 0,
		HasGuard:  setup.RolePool[RoleGuard] > 0,
		HasHunter: setup.RolePool[RoleHunter] > 0,
	}
}

// =============================================================================
// PLAYERS
// =============================================================================

// Player is one seat at the table. ID is a small positive integer, stable for
// the game's duration. Role is the ground-truth assignment and is only
// consulted where a component legitimately holds private information (e.g.
// the validator checking a seer's own checks).
type Player struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Role        Role     `json:"role"`
	IsAlive     bool     `json:"is_alive"`
	Personality []string `json:"personality,omitempty"` // opaque hints, passed through
}

// AliveIDs returns the ids of living players in table order.
func AliveIDs(players []Player) []int {
	var ids []int
	for _, p := range players {
		if p.IsAlive {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// FindPlayer returns the player with the given id, or nil.
func FindPlayer(players []Player, id int) *Player {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}

// =============================================================================
// EVENT LOG RECORDS
// =============================================================================

// SpeechRecord is one public statement from the event log.
type SpeechRecord struct {
	Day           int            `json:"day"`
	PlayerID      int            `json:"player_id"`
	Content       string         `json:"content"`
	Thought       string         `json:"thought,omitempty"`        // private reasoning, optional
	VoteIntention int            `json:"vote_intention,omitempty"` // 0 = none stated
	IdentityTable IdentityTable  `json:"identity_table,omitempty"` // self-reported, untrusted
}

// Vote is a single (from, to) pair within a vote round.
type Vote struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// VoteRound is one day's complete vote.
type VoteRound struct {
	Day        int    `json:"day"`
	Votes      []Vote `json:"votes"`
	Eliminated int    `json:"eliminated"` // 0 on tie / no elimination
}

// Phase distinguishes night kills from day eliminations.
type Phase string

const (
	PhaseNight Phase = "night"
	PhaseDay   Phase = "day"
)

// DeathEvent records a player leaving the game.
type DeathEvent struct {
	Day      int    `json:"day"`
	Phase    Phase  `json:"phase"`
	PlayerID int    `json:"player_id"`
	Cause    string `json:"cause"` // "werewolf", "vote", "poison", "hunter"
}

// SeerCheck is one night inspection by the seer. Append-only, never reset.
type SeerCheck struct {
	Night    int  `json:"night"`
	SeerID   int  `json:"seer_id"`
	TargetID int  `json:"target_id"`
	IsWolf   bool `json:"is_wolf"`
}

// WitchHistory tracks the witch's potion usage over the whole game.
type WitchHistory struct {
	SavedIDs    []int `json:"saved_ids"`
	PoisonedIDs []int `json:"poisoned_ids"`
}

// GuardAction is one night protection by the guard.
type GuardAction struct {
	Night    int `json:"night"`
	TargetID int `json:"target_id"`
}

// NightActionHistory aggregates all private night actions, scoped to the
// whole game (not reset daily).
type NightActionHistory struct {
	SeerChecks   []SeerCheck   `json:"seer_checks"`
	Witch        WitchHistory  `json:"witch"`
	GuardActions []GuardAction `json:"guard_actions"`
}

// LastGuardTarget returns the target of the most recent guard action, or 0.
func (h NightActionHistory) LastGuardTarget() int {
	if len(h.GuardActions) == 0 {
		return 0
	}
	return h.GuardActions[len(h.GuardActions)-1].TargetID
}

// ChecksBySeer returns the checks performed by a specific seer id.
func (h NightActionHistory) ChecksBySeer(seerID int) []SeerCheck {
	var out []SeerCheck
	for _, c := range h.SeerChecks {
		if c.SeerID == seerID {
			out = append(out, c)
		}
	}
	return out
}

// GameState is the externally-owned event log view handed to the engine.
// The orchestration layer owns it; the engine only reads it.
type GameState struct {
	Day          int                `json:"day"`
	Players      []Player           `json:"players"`
	Setup        GameSetup          `json:"setup"`
	Speeches     []SpeechRecord     `json:"speeches"`
	VoteRounds   []VoteRound        `json:"vote_rounds"`
	Deaths       []DeathEvent       `json:"deaths"`
	NightActions NightActionHistory `json:"night_actions"`
}

// =============================================================================
// IDENTITY TABLE (untrusted model output)
// =============================================================================

// IdentityEntry is one row of a self-reported belief table. Confidence is a
// pointer so an unparsable value can be dropped rather than defaulted.
type IdentityEntry struct {
	Suspect    string `json:"suspect"`
	Confidence *int   `json:"confidence,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// IdentityTable maps a player-id-like key (raw, as the model produced it) to
// an identity entry. Must be sanitized before being trusted or stored.
type IdentityTable map[string]IdentityEntry

// Clone returns a deep copy of the table.
func (t IdentityTable) Clone() IdentityTable {
	if t == nil {
		return nil
	}
	out := make(IdentityTable, len(t))
	for k, v := range t {
		if v.Confidence != nil {
			c := *v.Confidence
			v.Confidence = &c
		}
		out[k] = v
	}
	return out
}

// =============================================================================
// DECISIONS
// =============================================================================

// DecisionKind discriminates the kinds of generated decision the validator
// understands.
type DecisionKind string

const (
	DecisionSpeech    DecisionKind = "speech"
	DecisionVote      DecisionKind = "vote"
	DecisionKill      DecisionKind = "kill"
	DecisionGuard     DecisionKind = "guard"
	DecisionSeerCheck DecisionKind = "seer_check"
	DecisionWitchSave DecisionKind = "witch_save"
	DecisionWitchKill DecisionKind = "witch_poison"
)

// Decision is one parsed generation result awaiting validation.
type Decision struct {
	Kind          DecisionKind  `json:"kind"`
	PlayerID      int           `json:"player_id"`
	TargetID      int           `json:"target_id,omitempty"` // vote / night action target
	Content       string        `json:"content,omitempty"`   // speech text
	Thought       string        `json:"thought,omitempty"`
	IdentityTable IdentityTable `json:"identity_table,omitempty"`
	Unresolved    bool          `json:"unresolved,omitempty"` // set when the correction loop exhausted retries
	RequestID     string        `json:"request_id,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at,omitempty"`
}

// String gives a compact, log-friendly rendering.
func (d Decision) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s by %d", d.Kind, d.PlayerID)
	if d.TargetID != 0 {
		fmt.Fprintf(&b, " -> %d", d.TargetID)
	}
	if d.Unresolved {
		b.WriteString(" (unresolved)")
	}
	return b.String()
}
