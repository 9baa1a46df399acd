// Package bayes maintains a per-player posterior distribution over hidden
// roles, updated from detected observable actions via
// P(Role|Action) ∝ P(Action|Role) · P(Role). The likelihood table is a
// configuration artifact; this package only applies it.
package bayes

import (
	"fmt"
	"sort"
	"strings"

	"wolfmind/internal/config"
	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

// Distribution is one player's posterior over the configured role set.
// Posteriors always sum to 1 (within floating-point epsilon).
type Distribution struct {
	PlayerID     int                      `json:"player_id"`
	Posteriors   map[types.Role]float64   `json:"posteriors"`
	Revealed     bool                     `json:"revealed"`
	RevealedRole types.Role               `json:"revealed_role,omitempty"`
}

// WolfProbability is the posterior mass on the wolf role.
func (d *Distribution) WolfProbability() float64 {
	if d.Revealed {
		if d.RevealedRole.IsWolf() {
			return 1
		}
		return 0
	}
	return d.Posteriors[types.RoleWerewolf]
}

// Inferencer owns all identity distributions for one game session.
type Inferencer struct {
	cfg       config.BayesConfig
	setup     types.GameSetup
	remaining map[types.Role]int // unrevealed copies per role
	dists     map[int]*Distribution
}

// NewInferencer creates an inferencer with the given tunables.
func NewInferencer(cfg config.BayesConfig) *Inferencer {
	return &Inferencer{cfg: cfg, dists: make(map[int]*Distribution)}
}

// InitializeDistributions sets the prior for each player proportional to the
// remaining count of each role in the configured setup, uniform over
// undetermined players. Any previous state is discarded.
func (inf *Inferencer) InitializeDistributions(players []types.Player, setup types.GameSetup) {
	inf.setup = setup
	inf.remaining = make(map[types.Role]int, len(setup.RolePool))
	for role, n := range setup.RolePool {
		inf.remaining[role] = n
	}

	total := float64(setup.TotalPlayers())
	inf.dists = make(map[int]*Distribution, len(players))
	for _, p := range players {
		posteriors := make(map[types.Role]float64, len(setup.RolePool))
		for role, n := range setup.RolePool {
			posteriors[role] = float64(n) / total
		}
		inf.dists[p.ID] = &Distribution{PlayerID: p.ID, Posteriors: posteriors}
	}

	logging.Bayes("initialized %d identity distributions over %d roles", len(players), len(setup.RolePool))
}

// Distribution returns the distribution for a player, or nil if unknown.
func (inf *Inferencer) Distribution(playerID int) *Distribution {
	return inf.dists[playerID]
}

// Snapshot returns deep copies of all distributions.
func (inf *Inferencer) Snapshot() map[int]Distribution {
	out := make(map[int]Distribution, len(inf.dists))
	for id, d := range inf.dists {
		posteriors := make(map[types.Role]float64, len(d.Posteriors))
		for r, p := range d.Posteriors {
			posteriors[r] = p
		}
		copied := *d
		copied.Posteriors = posteriors
		out[id] = copied
	}
	return out
}

// Update applies the likelihood row for the action type to the player's
// posterior and renormalizes. Roles absent from the row get a neutral 1.0
// multiplier. Every entry is floored away from exact zero so a single noisy
// signal can never collapse a role irrecoverably.
func (inf *Inferencer) Update(action Action) {
	dist := inf.dists[action.PlayerID]
	if dist == nil || dist.Revealed {
		return
	}

	row := inf.cfg.Likelihoods[action.Type]
	if row == nil {
		logging.BayesDebug("no likelihood row for action %q, skipping", action.Type)
		return
	}

	for role := range dist.Posteriors {
		likelihood, ok := row[string(role)]
		if !ok {
			likelihood = 1.0
		}
		dist.Posteriors[role] *= likelihood
	}
	inf.renormalize(dist)

	logging.BayesDebug("player %d P(wolf)=%.3f after %s", action.PlayerID, dist.WolfProbability(), action.Type)
}

// UpdateOnDeath consumes a revealed role: the role's remaining count
// drops by one and every other undetermined player's mass for that role is
// rescaled so the total tracks the unrevealed copies left in the game.
func (inf *Inferencer) UpdateOnDeath(death types.DeathEvent, actualRole types.Role) {
	dist := inf.dists[death.PlayerID]
	if dist == nil || dist.Revealed {
		return
	}

	dist.Revealed = true
	dist.RevealedRole = actualRole
	for role := range dist.Posteriors {
		if role == actualRole {
			dist.Posteriors[role] = 1
		} else {
			dist.Posteriors[role] = 0
		}
	}

	before := inf.remaining[actualRole]
	if before > 0 {
		inf.remaining[actualRole] = before - 1
	}

	// Conservation: scale the revealed role's mass on everyone still hidden
	// by remainingNew/remainingOld, then renormalize.
	factor := 0.0
	if before > 0 {
		factor = float64(before-1) / float64(before)
	}
	for _, other := range inf.dists {
		if other.Revealed {
			continue
		}
		other.Posteriors[actualRole] *= factor
		inf.renormalize(other)
	}

	logging.Bayes("player %d revealed as %s, %d copies remain", death.PlayerID, actualRole, inf.remaining[actualRole])
}

// renormalize floors entries at epsilon and rescales to sum 1.
func (inf *Inferencer) renormalize(dist *Distribution) {
	eps := inf.cfg.FloorEpsilon
	sum := 0.0
	for role, p := range dist.Posteriors {
		if p < eps {
			p = eps
			dist.Posteriors[role] = p
		}
		sum += p
	}
	if sum <= 0 {
		// Degenerate; fall back to uniform.
		uniform := 1.0 / float64(len(dist.Posteriors))
		for role := range dist.Posteriors {
			dist.Posteriors[role] = uniform
		}
		return
	}
	for role := range dist.Posteriors {
		dist.Posteriors[role] /= sum
	}
}

// RemainingCopies reports how many unrevealed copies of a role remain.
func (inf *Inferencer) RemainingCopies(role types.Role) int {
	return inf.remaining[role]
}

// Ranked pairs a player with their wolf probability.
type Ranked struct {
	PlayerID        int     `json:"player_id"`
	WolfProbability float64 `json:"wolf_probability"`
}

// RankByWerewolfProbability orders alive players (excluding self) by
// descending wolf probability. Ties keep seat order.
func (inf *Inferencer) RankByWerewolfProbability(alive []int, selfID int) []Ranked {
	var out []Ranked
	for _, id := range alive {
		if id == selfID {
			continue
		}
		dist := inf.dists[id]
		if dist == nil {
			continue
		}
		out = append(out, Ranked{PlayerID: id, WolfProbability: dist.WolfProbability()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WolfProbability > out[j].WolfProbability
	})
	return out
}

// GenerateContext renders a short identity-inference briefing, excluding
// self. Players close to the baseline are not mentioned.
func (inf *Inferencer) GenerateContext(alive []int, selfID int) string {
	ranked := inf.RankByWerewolfProbability(alive, selfID)
	if len(ranked) == 0 {
		return ""
	}

	baseline := inf.baselineWolfProbability()
	var parts []string
	for _, r := range ranked {
		if r.WolfProbability >= baseline*1.5 && r.WolfProbability > 0.05 {
			parts = append(parts, fmt.Sprintf("%d号狼率%.0f%%", r.PlayerID, r.WolfProbability*100))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "【身份推断】按狼人概率从高到低: " + strings.Join(parts, "、") + "。"
}

// baselineWolfProbability is the prior wolf mass for a fresh player.
func (inf *Inferencer) baselineWolfProbability() float64 {
	total := inf.setup.TotalPlayers()
	if total == 0 {
		return 0
	}
	return float64(inf.setup.RolePool[types.RoleWerewolf]) / float64(total)
}
