// Package roles maps the closed role enum onto per-role strategy variants.
// Each variant renders persona, night-action, day-speech, and vote
// guidance for prompt assembly; unknown role values fall back to a
// villager-like variant instead of failing.
package roles

import (
	"fmt"

	"wolfmind/internal/types"
)

// Strategy is the fixed interface every role variant implements. The
// returned strings are prompt fragments; NightAction returns "" for roles
// with no night phase.
type Strategy interface {
	Role() types.Role
	Persona() string
	NightAction(state *types.GameState, selfID int) string
	DaySpeech(state *types.GameState, selfID int) string
	VoteGuidance(state *types.GameState, selfID int) string
}

var registry = map[types.Role]Strategy{
	types.RoleWerewolf: werewolfStrategy{},
	types.RoleSeer:     seerStrategy{},
	types.RoleWitch:    witchStrategy{},
	types.RoleGuard:    guardStrategy{},
	types.RoleHunter:   hunterStrategy{},
	types.RoleVillager: villagerStrategy{},
}

// ForRole returns the strategy variant for a role. Unknown or unexpected
// values get the villager-like fallback.
func ForRole(role types.Role) Strategy {
	if s, ok := registry[role]; ok {
		return s
	}
	return villagerStrategy{}
}

// ===== VILLAGER (also the fallback) =====

type villagerStrategy struct{}

func (villagerStrategy) Role() types.Role { return types.RoleVillager }

func (villagerStrategy) Persona() string {
	return "你是村民，没有特殊能力。白天认真听发言，找出逻辑漏洞。"
}

func (villagerStrategy) NightAction(*types.GameState, int) string { return "" }

func (villagerStrategy) DaySpeech(state *types.GameState, selfID int) string {
	return "梳理目前的身份声明和投票记录，指出你认为最可疑的玩家并说明理由。"
}

func (villagerStrategy) VoteGuidance(state *types.GameState, selfID int) string {
	return "跟随已验证的信息投票，优先投被查杀的玩家。"
}

// ===== WEREWOLF =====

type werewolfStrategy struct{}

func (werewolfStrategy) Role() types.Role { return types.RoleWerewolf }

func (werewolfStrategy) Persona() string {
	return "你是狼人。白天伪装成好人，夜间与同伴选择击杀目标。"
}

func (werewolfStrategy) NightAction(state *types.GameState, selfID int) string {
	return "选择今晚的击杀目标。优先考虑已跳预言家或发言有威胁的玩家。"
}

func (werewolfStrategy) DaySpeech(*types.GameState, int) string {
	return "发言贴近好人视角，不要暴露队友。必要时可以对跳神职搅乱局面。"
}

func (werewolfStrategy) VoteGuidance(*types.GameState, int) string {
	return "把票投向好人阵营的核心，但避免和队友投票过于一致。"
}

// ===== SEER =====

type seerStrategy struct{}

func (seerStrategy) Role() types.Role { return types.RoleSeer }

func (seerStrategy) Persona() string {
	return "你是预言家，每晚可以查验一名玩家的阵营。"
}

func (seerStrategy) NightAction(state *types.GameState, selfID int) string {
	checked := make(map[int]bool)
	for _, c := range state.NightActions.ChecksBySeer(selfID) {
		checked[c.TargetID] = true
	}
	var unchecked int
	for _, p := range state.Players {
		if p.IsAlive && p.ID != selfID && !checked[p.ID] {
			unchecked++
		}
	}
	return fmt.Sprintf("选择今晚的查验目标（尚有%d名存活玩家未查验）。优先查验发言可疑或位置关键的玩家。", unchecked)
}

func (seerStrategy) DaySpeech(state *types.GameState, selfID int) string {
	if len(state.NightActions.ChecksBySeer(selfID)) > 0 {
		return "如果局势需要，公布你的查验结果：查杀或金水，并给出起跳理由。"
	}
	return "暂无查验信息时谨慎发言，避免过早暴露身份。"
}

func (seerStrategy) VoteGuidance(*types.GameState, int) string {
	return "优先投你亲自查杀的玩家，带领好人聚票。"
}

// ===== WITCH =====

type witchStrategy struct{}

func (witchStrategy) Role() types.Role { return types.RoleWitch }

func (witchStrategy) Persona() string {
	return "你是女巫，拥有一瓶解药和一瓶毒药，每种全场只能用一次。"
}

func (witchStrategy) NightAction(state *types.GameState, selfID int) string {
	w := state.NightActions.Witch
	switch {
	case len(w.SavedIDs) == 0 && len(w.PoisonedIDs) == 0:
		return "解药和毒药都未使用。决定是否救下今晚的遇袭者，或对高度可疑的玩家用毒。"
	case len(w.SavedIDs) == 0:
		return "解药尚未使用。决定是否救下今晚的遇袭者。"
	case len(w.PoisonedIDs) == 0:
		return "毒药尚未使用。决定是否对高度可疑的玩家用毒。"
	default:
		return "两瓶药已用完，今晚无法行动。"
	}
}

func (witchStrategy) DaySpeech(*types.GameState, int) string {
	return "必要时用用药信息为好人提供银水或验尸信息，但注意隐藏身份。"
}

func (witchStrategy) VoteGuidance(*types.GameState, int) string {
	return "结合夜间信息投票，你知道谁被袭击过。"
}

// ===== GUARD =====

type guardStrategy struct{}

func (guardStrategy) Role() types.Role { return types.RoleGuard }

func (guardStrategy) Persona() string {
	return "你是守卫，每晚可以守护一名玩家，不能连续两晚守护同一人。"
}

func (guardStrategy) NightAction(state *types.GameState, selfID int) string {
	if last := state.NightActions.LastGuardTarget(); last != 0 {
		return fmt.Sprintf("选择今晚的守护目标（昨晚守护了%d号，今晚不能重复）。", last)
	}
	return "选择今晚的守护目标，优先保护可能的神职。"
}

func (guardStrategy) DaySpeech(*types.GameState, int) string {
	return "以普通村民视角发言，守卫身份通常不需要起跳。"
}

func (guardStrategy) VoteGuidance(*types.GameState, int) string {
	return "正常跟随好人逻辑投票。"
}

// ===== HUNTER =====

type hunterStrategy struct{}

func (hunterStrategy) Role() types.Role { return types.RoleHunter }

func (hunterStrategy) Persona() string {
	return "你是猎人，出局时可以开枪带走一名玩家（被毒死除外）。"
}

func (hunterStrategy) NightAction(*types.GameState, int) string { return "" }

func (hunterStrategy) DaySpeech(*types.GameState, int) string {
	return "可以适度表明强势身份威慑狼人，但避免与真神职抢身份。"
}

func (hunterStrategy) VoteGuidance(*types.GameState, int) string {
	return "记住最可疑的目标，你的枪是好人最后的底牌。"
}
