// Package deception maintains per-player deception profiles from linguistic
// and behavioral anomaly signals: self-contradiction, intention/action
// mismatch, and verbosity drift against the player's own baseline.
package deception

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"wolfmind/internal/config"
	"wolfmind/internal/logging"
	"wolfmind/internal/perception"
	"wolfmind/internal/types"
)

// SignalKind tags one anomaly signal.
type SignalKind string

const (
	SignalContradiction    SignalKind = "contradiction"
	SignalVoteMismatch     SignalKind = "vote_mismatch"
	SignalVerbosityAnomaly SignalKind = "verbosity_anomaly"
	SignalHedging          SignalKind = "hedging"
)

// Signal is one detected anomaly.
type Signal struct {
	Kind        SignalKind `json:"kind"`
	Day         int        `json:"day"`
	Description string     `json:"description"`
	Weight      float64    `json:"weight"` // points added to the score
}

// Profile is one player's deception state. Owned exclusively by the Detector.
type Profile struct {
	PlayerID       int       `json:"player_id"`
	DeceptionScore float64   `json:"deception_score"` // clamped to [0,100]
	Signals        []Signal  `json:"signals"`
	Patterns       []string  `json:"patterns"` // recognized recurring patterns
	LastUpdated    time.Time `json:"last_updated"`

	// baseline tracks the player's own average speech length in runes.
	speechCount  int
	totalRunes   int
}

var hedgingMarkers = []string{
	"可能", "也许", "大概", "应该吧", "不太确定", "或许",
	"maybe", "perhaps", "probably", "not sure", "i guess",
}

// Detector owns the deception profile map for one game session.
type Detector struct {
	cfg      config.DeceptionConfig
	profiles map[int]*Profile
}

// NewDetector creates a detector with the given tunables.
func NewDetector(cfg config.DeceptionConfig) *Detector {
	return &Detector{cfg: cfg, profiles: make(map[int]*Profile)}
}

// InitializeProfiles creates one zero-score profile per player. Any previous
// state is discarded.
func (d *Detector) InitializeProfiles(players []types.Player) {
	d.profiles = make(map[int]*Profile, len(players))
	for _, p := range players {
		d.profiles[p.ID] = &Profile{PlayerID: p.ID, LastUpdated: time.Now()}
	}
	logging.Deception("initialized %d deception profiles", len(players))
}

// Profile returns the profile for a player, or nil if unknown.
func (d *Detector) Profile(playerID int) *Profile {
	return d.profiles[playerID]
}

// Snapshot returns a copy of all profiles for read-only consumers.
func (d *Detector) Snapshot() map[int]Profile {
	out := make(map[int]Profile, len(d.profiles))
	for id, p := range d.profiles {
		out[id] = *p
	}
	return out
}

// AnalyzeSignals flags anomaly signals in one speech against the player's
// history. It does not mutate the profile; pass the result to UpdateProfile.
func (d *Detector) AnalyzeSignals(speech perception.EnhancedSpeech) []Signal {
	profile := d.profiles[speech.PlayerID]
	if profile == nil {
		return nil
	}

	var signals []Signal

	if speech.Contradiction {
		signals = append(signals, Signal{
			Kind:        SignalContradiction,
			Day:         speech.Day,
			Description: speech.ContradictionNote,
			Weight:      d.cfg.ContradictionWeight,
		})
	}

	// Verbosity drift against the player's own baseline. Needs history to
	// have a baseline at all.
	runes := utf8.RuneCountInString(speech.Content)
	if profile.speechCount >= 2 {
		baseline := float64(profile.totalRunes) / float64(profile.speechCount)
		if baseline > 0 {
			ratio := float64(runes) / baseline
			if ratio >= d.cfg.VerbosityRatio || ratio <= 1/d.cfg.VerbosityRatio {
				signals = append(signals, Signal{
					Kind:        SignalVerbosityAnomaly,
					Day:         speech.Day,
					Description: fmt.Sprintf("发言长度异常（%.1f倍于基线）", ratio),
					Weight:      d.cfg.VerbosityAnomalyWeight,
				})
			}
		}
	}

	lower := strings.ToLower(speech.Content)
	hedges := 0
	for _, m := range hedgingMarkers {
		hedges += strings.Count(lower, m)
	}
	if hedges >= 3 {
		signals = append(signals, Signal{
			Kind:        SignalHedging,
			Day:         speech.Day,
			Description: fmt.Sprintf("大量模糊措辞（%d处）", hedges),
			Weight:      d.cfg.VerbosityAnomalyWeight,
		})
	}

	return signals
}

// AnalyzeVoteDeception flags a vote that diverges from the voter's most
// recently stated intention without a closed-log justification.
func (d *Detector) AnalyzeVoteDeception(vote types.Vote, day int, lastSpeech *perception.EnhancedSpeech) []Signal {
	if lastSpeech == nil || lastSpeech.VoteIntention == 0 || lastSpeech.VoteIntention == vote.To {
		return nil
	}
	return []Signal{{
		Kind:        SignalVoteMismatch,
		Day:         day,
		Description: fmt.Sprintf("声称投%d号实际投%d号", lastSpeech.VoteIntention, vote.To),
		Weight:      d.cfg.VoteMismatchWeight,
	}}
}

// UpdateProfile accumulates signals into the player's clamped score and
// appends recognized patterns. It also advances the verbosity baseline with
// the speech that produced the signals.
func (d *Detector) UpdateProfile(playerID int, signals []Signal, speech *perception.EnhancedSpeech) {
	profile := d.profiles[playerID]
	if profile == nil {
		return
	}

	for _, sig := range signals {
		profile.DeceptionScore = clamp(profile.DeceptionScore+sig.Weight, 0, 100)
		profile.Signals = append(profile.Signals, sig)

		pattern := patternFor(sig.Kind)
		if pattern != "" && !contains(profile.Patterns, pattern) {
			profile.Patterns = append(profile.Patterns, pattern)
		}
	}

	if speech != nil {
		profile.speechCount++
		profile.totalRunes += utf8.RuneCountInString(speech.Content)
	}
	profile.LastUpdated = time.Now()

	if len(signals) > 0 {
		logging.DeceptionDebug("player %d deception score %.1f (+%d signals)", playerID, profile.DeceptionScore, len(signals))
	}
}

// GenerateContext summarizes the top suspects by deception score, excluding
// self. Empty when nobody has accumulated a notable score.
func (d *Detector) GenerateContext(alive []int, selfID int) string {
	type scored struct {
		id    int
		score float64
	}
	var ranked []scored
	for _, id := range alive {
		if id == selfID {
			continue
		}
		if p := d.profiles[id]; p != nil && p.DeceptionScore > 0 {
			ranked = append(ranked, scored{id, p.DeceptionScore})
		}
	}
	if len(ranked) == 0 {
		return ""
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := d.cfg.TopN
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	var parts []string
	for _, r := range ranked[:n] {
		p := d.profiles[r.id]
		part := fmt.Sprintf("%d号(欺骗指数%.0f", r.id, r.score)
		if len(p.Patterns) > 0 {
			part += "，" + strings.Join(p.Patterns, "/")
		}
		parts = append(parts, part+")")
	}
	return "【欺骗检测】" + strings.Join(parts, "、") + "。"
}

func patternFor(kind SignalKind) string {
	switch kind {
	case SignalContradiction:
		return "前后矛盾"
	case SignalVoteMismatch:
		return "言行不一"
	case SignalVerbosityAnomaly:
		return "发言异常"
	case SignalHedging:
		return "措辞闪烁"
	}
	return ""
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
