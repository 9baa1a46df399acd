// Package trust maintains per-player trust profiles from observable
// evidence: votes, claims, and consistency with recorded night information.
// Scores move by a bounded exponential moving average so no single
// observation can pin a player to fully trusted or fully burned.
package trust

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"wolfmind/internal/config"
	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

// Profile is one player's trust state. Owned exclusively by the Scorer.
type Profile struct {
	PlayerID     int        `json:"player_id"`
	OverallTrust float64    `json:"overall_trust"` // always in [0,1]
	Evidence     []Evidence `json:"evidence"`
	LastUpdated  time.Time  `json:"last_updated"`
}

// Scorer owns the trust profile map for one game session.
type Scorer struct {
	cfg      config.TrustConfig
	profiles map[int]*Profile
}

// NewScorer creates a scorer with the given tunables.
func NewScorer(cfg config.TrustConfig) *Scorer {
	return &Scorer{cfg: cfg, profiles: make(map[int]*Profile)}
}

// InitializeProfiles creates one profile per player at the default trust.
// Any previous state is discarded.
func (s *Scorer) InitializeProfiles(players []types.Player) {
	s.profiles = make(map[int]*Profile, len(players))
	for _, p := range players {
		s.profiles[p.ID] = &Profile{
			PlayerID:     p.ID,
			OverallTrust: s.cfg.Default,
			LastUpdated:  time.Now(),
		}
	}
	logging.Trust("initialized %d trust profiles at %.2f", len(players), s.cfg.Default)
}

// Profile returns the profile for a player, or nil if unknown.
func (s *Scorer) Profile(playerID int) *Profile {
	return s.profiles[playerID]
}

// Snapshot returns a copy of all profiles for read-only consumers.
func (s *Scorer) Snapshot() map[int]Profile {
	out := make(map[int]Profile, len(s.profiles))
	for id, p := range s.profiles {
		out[id] = *p
	}
	return out
}

// UpdateScore folds evidence into the owning profiles. Each item moves the
// score by SmoothingAlpha * weight, bounded to MaxStep, and the result is
// clamped to [0,1] regardless of input magnitude.
func (s *Scorer) UpdateScore(evidence []Evidence) {
	for _, ev := range evidence {
		profile := s.profiles[ev.PlayerID]
		if profile == nil {
			continue
		}

		step := s.cfg.SmoothingAlpha * ev.Weight
		if step > s.cfg.MaxStep {
			step = s.cfg.MaxStep
		} else if step < -s.cfg.MaxStep {
			step = -s.cfg.MaxStep
		}

		before := profile.OverallTrust
		profile.OverallTrust = clamp01(profile.OverallTrust + step)
		profile.Evidence = append(profile.Evidence, ev)
		profile.LastUpdated = time.Now()

		logging.TrustDebug("player %d trust %.3f -> %.3f (%s)", ev.PlayerID, before, profile.OverallTrust, ev.Kind)
	}
}

// MostSuspicious returns up to n alive players by ascending trust, excluding
// selfID.
func (s *Scorer) MostSuspicious(alive []int, selfID, n int) []int {
	return s.rank(alive, selfID, n, true)
}

// MostTrusted returns up to n alive players by descending trust, excluding
// selfID.
func (s *Scorer) MostTrusted(alive []int, selfID, n int) []int {
	return s.rank(alive, selfID, n, false)
}

func (s *Scorer) rank(alive []int, selfID, n int, ascending bool) []int {
	var ids []int
	for _, id := range alive {
		if id != selfID && s.profiles[id] != nil {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ti, tj := s.profiles[ids[i]].OverallTrust, s.profiles[ids[j]].OverallTrust
		if ascending {
			return ti < tj
		}
		return ti > tj
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// GenerateContext produces a short natural-language summary naming the most-
// and least-trusted alive players other than self. Empty when no profile has
// deviated meaningfully from the default.
func (s *Scorer) GenerateContext(alive []int, selfID int) string {
	deviated := false
	for _, id := range alive {
		if id == selfID {
			continue
		}
		if p := s.profiles[id]; p != nil && math.Abs(p.OverallTrust-s.cfg.Default) >= s.cfg.MeaningfulDeviation {
			deviated = true
			break
		}
	}
	if !deviated {
		return ""
	}

	var b strings.Builder
	b.WriteString("【信任分析】")

	suspicious := s.MostSuspicious(alive, selfID, s.cfg.TopN)
	if len(suspicious) > 0 {
		var parts []string
		for _, id := range suspicious {
			p := s.profiles[id]
			if math.Abs(p.OverallTrust-s.cfg.Default) < s.cfg.MeaningfulDeviation {
				continue
			}
			reason := latestReason(p)
			if reason != "" {
				parts = append(parts, fmt.Sprintf("%d号(信任%.2f，%s)", id, p.OverallTrust, reason))
			} else {
				parts = append(parts, fmt.Sprintf("%d号(信任%.2f)", id, p.OverallTrust))
			}
		}
		if len(parts) > 0 {
			b.WriteString("最可疑: " + strings.Join(parts, "、") + "。")
		}
	}

	trusted := s.MostTrusted(alive, selfID, s.cfg.TopN)
	if len(trusted) > 0 {
		var parts []string
		for _, id := range trusted {
			p := s.profiles[id]
			if p.OverallTrust-s.cfg.Default < s.cfg.MeaningfulDeviation {
				continue
			}
			parts = append(parts, fmt.Sprintf("%d号(信任%.2f)", id, p.OverallTrust))
		}
		if len(parts) > 0 {
			b.WriteString("最可信: " + strings.Join(parts, "、") + "。")
		}
	}

	return b.String()
}

func latestReason(p *Profile) string {
	for i := len(p.Evidence) - 1; i >= 0; i-- {
		if p.Evidence[i].Weight < 0 && p.Evidence[i].Description != "" {
			return p.Evidence[i].Description
		}
	}
	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
