// Package retrieval answers ad hoc structured queries over the enhanced
// speech log and night-action histories: verification chains, seer
// conflicts, self-contradictions, and situation snapshots. Queries are
// stateless; derived logical facts come from the kernel when one is
// attached.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"wolfmind/internal/kernel"
	"wolfmind/internal/logging"
	"wolfmind/internal/perception"
	"wolfmind/internal/types"
)

// Engine runs retrieval queries. The kernel is optional; without one the
// engine falls back to direct log scans for derived facts.
type Engine struct {
	kernel *kernel.Kernel
}

// New creates a retrieval engine backed by the given kernel.
func New(k *kernel.Kernel) *Engine {
	return &Engine{kernel: k}
}

// ===== VERIFICATION STATUS =====

// Verification is one public seer statement about a player.
type Verification struct {
	ClaimantID int `json:"claimant_id"`
	Day        int `json:"day"`
}

// VerificationStatus collects all gold-water and kill claims made about a
// player by self-claimed seers.
type VerificationStatus struct {
	PlayerID    int            `json:"player_id"`
	GoldWaterBy []Verification `json:"gold_water_by,omitempty"`
	KillBy      []Verification `json:"kill_by,omitempty"`
}

// ConfirmedGood reports whether any self-claimed seer gave gold water.
func (v VerificationStatus) ConfirmedGood() bool { return len(v.GoldWaterBy) > 0 }

// ConfirmedBad reports whether any self-claimed seer called a kill.
func (v VerificationStatus) ConfirmedBad() bool { return len(v.KillBy) > 0 }

// GetVerificationStatus scans the enhanced log for verification claims
// about one player. Only statements from self-claimed seers count.
func (e *Engine) GetVerificationStatus(history []perception.EnhancedSpeech, playerID int) VerificationStatus {
	claimants := seerClaimants(history)
	status := VerificationStatus{PlayerID: playerID}

	for _, sp := range history {
		if !claimants[sp.PlayerID] {
			continue
		}
		for _, claim := range sp.Claims {
			if claim.TargetID != playerID {
				continue
			}
			switch claim.Kind {
			case perception.ClaimGoldWater:
				status.GoldWaterBy = append(status.GoldWaterBy, Verification{ClaimantID: sp.PlayerID, Day: sp.Day})
			case perception.ClaimKillConfirm:
				status.KillBy = append(status.KillBy, Verification{ClaimantID: sp.PlayerID, Day: sp.Day})
			}
		}
	}
	return status
}

// ===== SEER CONFLICTS =====

// SeerConflictInfo reports competing seer claims.
type SeerConflictInfo struct {
	Claimants   []int  `json:"claimants"`
	HasConflict bool   `json:"has_conflict"`
	Analysis    string `json:"analysis,omitempty"`
}

// BuildSeerConflictInfo detects multiple seer claims and renders an
// analysis. With a kernel attached the claimant set comes from the fact
// base; otherwise from a log scan.
func (e *Engine) BuildSeerConflictInfo(history []perception.EnhancedSpeech, checks []types.SeerCheck) SeerConflictInfo {
	var claimants []int
	if e.kernel != nil {
		if ids, err := e.kernel.SeerClaimants(); err == nil {
			claimants = ids
		} else {
			logging.KernelWarn("seer claimant query failed, falling back to log scan: %v", err)
		}
	}
	if claimants == nil {
		set := seerClaimants(history)
		for id := range set {
			claimants = append(claimants, id)
		}
	}
	sort.Ints(claimants)

	info := SeerConflictInfo{Claimants: claimants}
	if len(claimants) < 2 {
		return info
	}
	info.HasConflict = true

	names := make([]string, len(claimants))
	for i, id := range claimants {
		names[i] = fmt.Sprintf("%d号", id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s均声称预言家，至少%d人说谎。", strings.Join(names, "、"), len(claimants)-1)

	// A claimant matching the recorded check history is the likelier real seer.
	for _, id := range claimants {
		if matchesRecordedChecks(history, checks, id) {
			fmt.Fprintf(&b, "%d号的查验与夜间记录一致，可信度较高。", id)
			break
		}
	}
	info.Analysis = b.String()
	logging.Retrieval("seer conflict: claimants=%v", claimants)
	return info
}

// matchesRecordedChecks reports whether every verification claim the
// claimant made agrees with an actually recorded check.
func matchesRecordedChecks(history []perception.EnhancedSpeech, checks []types.SeerCheck, claimantID int) bool {
	matched := false
	for _, sp := range history {
		if sp.PlayerID != claimantID {
			continue
		}
		for _, claim := range sp.Claims {
			var wantWolf bool
			switch claim.Kind {
			case perception.ClaimKillConfirm:
				wantWolf = true
			case perception.ClaimGoldWater:
				wantWolf = false
			default:
				continue
			}
			found := false
			for _, check := range checks {
				if check.SeerID == claimantID && check.TargetID == claim.TargetID && check.IsWolf == wantWolf {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			matched = true
		}
	}
	return matched
}

// ===== CONTRADICTIONS =====

// ContradictionReport summarizes self-contradictions for one player.
type ContradictionReport struct {
	PlayerID int      `json:"player_id"`
	Count    int      `json:"count"`
	Notes    []string `json:"notes,omitempty"`
}

// GetLogicContradictions returns the contradictions the enhancer flagged
// for a player.
func (e *Engine) GetLogicContradictions(history []perception.EnhancedSpeech, playerID int) ContradictionReport {
	report := ContradictionReport{PlayerID: playerID}
	for _, sp := range history {
		if sp.PlayerID != playerID || !sp.Contradiction {
			continue
		}
		report.Count++
		if sp.ContradictionNote != "" {
			report.Notes = append(report.Notes, fmt.Sprintf("第%d天：%s", sp.Day, sp.ContradictionNote))
		}
	}
	return report
}

// ===== SITUATION SUMMARY =====

// GenerateSituationSummary renders a compact narrative snapshot of the
// game state for logging or display.
func (e *Engine) GenerateSituationSummary(state *types.GameState) string {
	if state == nil {
		return ""
	}

	alive := types.AliveIDs(state.Players)
	var b strings.Builder
	fmt.Fprintf(&b, "第%d天，存活%d人", state.Day, len(alive))
	if len(alive) > 0 {
		names := make([]string, len(alive))
		for i, id := range alive {
			names[i] = fmt.Sprintf("%d号", id)
		}
		fmt.Fprintf(&b, "（%s）", strings.Join(names, "、"))
	}
	b.WriteString("。")

	if len(state.Deaths) > 0 {
		var deaths []string
		for _, d := range state.Deaths {
			phase := "白天"
			if d.Phase == types.PhaseNight {
				phase = "夜间"
			}
			deaths = append(deaths, fmt.Sprintf("%d号（第%d天%s）", d.PlayerID, d.Day, phase))
		}
		b.WriteString("已出局：" + strings.Join(deaths, "、") + "。")
	}

	if n := len(state.NightActions.SeerChecks); n > 0 {
		fmt.Fprintf(&b, "已记录%d次查验。", n)
	}
	if len(state.VoteRounds) > 0 {
		last := state.VoteRounds[len(state.VoteRounds)-1]
		if last.Eliminated != 0 {
			fmt.Fprintf(&b, "上轮放逐%d号。", last.Eliminated)
		} else {
			b.WriteString("上轮平票无人出局。")
		}
	}
	return b.String()
}

func seerClaimants(history []perception.EnhancedSpeech) map[int]bool {
	set := make(map[int]bool)
	for _, sp := range history {
		if sp.ClaimedRole() == types.RoleSeer {
			set[sp.PlayerID] = true
		}
	}
	return set
}
