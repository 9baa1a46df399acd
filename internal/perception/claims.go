package perception

import (
	"regexp"
	"strconv"
	"strings"

	"wolfmind/internal/types"
)

// ClaimKind tags one structured signal extracted from raw speech.
type ClaimKind string

const (
	// ClaimRole: the speaker asserts their own role.
	ClaimRole ClaimKind = "claim_role"
	// ClaimAccuse: the speaker names a target as a wolf (includes 查杀).
	ClaimAccuse ClaimKind = "accuse"
	// ClaimGoldWater: the speaker, as a claimed seer, confirms a target good.
	ClaimGoldWater ClaimKind = "gold_water"
	// ClaimKillConfirm: the speaker, as a claimed seer, confirms a target wolf.
	ClaimKillConfirm ClaimKind = "kill_confirm"
	// ClaimVouch: the speaker vouches for a target without seer authority.
	ClaimVouch ClaimKind = "vouch"
)

// Claim is one extracted structured signal.
type Claim struct {
	Kind     ClaimKind  `json:"kind"`
	Role     types.Role `json:"role,omitempty"`   // for ClaimRole
	TargetID int        `json:"target_id,omitempty"`
}

var (
	// Seat references: "3号", "三号" is not handled - the generation layer
	// always writes arabic digits. English: "player 3".
	seatPattern = regexp.MustCompile(`(\d+)\s*号|[Pp]layer\s+(\d+)`)

	// Self role claims, Chinese and English phrasing.
	selfClaimPattern = regexp.MustCompile(`我是\s*(狼人|预言家|女巫|守卫|猎人|村民)|I\s+am\s+the\s+(seer|witch|guard|hunter|villager|werewolf)`)

	// Kill confirmation by a claimed seer: "查杀3号", "3号查杀", "昨晚查验3号是狼".
	killConfirmPattern = regexp.MustCompile(`查杀\s*(\d+)\s*号?|(\d+)\s*号?\s*(?:是)?查杀|查验\s*(\d+)\s*号?.{0,6}是狼`)

	// Gold water: "3号金水", "金水3号", "查验3号是好人".
	goldWaterPattern = regexp.MustCompile(`(\d+)\s*号?\s*(?:是)?金水|金水\s*(\d+)\s*号?|查验\s*(\d+)\s*号?.{0,6}(?:是好人|不是狼)`)

	// Plain accusation: "3号是狼", "我觉得5号是狼人", "player 3 is a wolf".
	accusePattern = regexp.MustCompile(`(\d+)\s*号?\s*(?:肯定|应该|就|绝对)?是狼|[Pp]layer\s+(\d+)\s+is\s+(?:a\s+)?(?:were)?wolf`)

	// Vouching: "3号是好人", "我相信5号", "player 3 is good".
	vouchPattern = regexp.MustCompile(`(\d+)\s*号?\s*(?:肯定|应该|就)?是好人|我相信\s*(\d+)\s*号?|[Pp]layer\s+(\d+)\s+is\s+good`)
)

var englishRoleNames = map[string]types.Role{
	"seer":     types.RoleSeer,
	"witch":    types.RoleWitch,
	"guard":    types.RoleGuard,
	"hunter":   types.RoleHunter,
	"villager": types.RoleVillager,
	"werewolf": types.RoleWerewolf,
}

// ExtractClaims pulls structured claims out of one speech. Absent or
// ambiguous text degrades to no claims; it never fails.
func ExtractClaims(content string, knownIDs map[int]bool) []Claim {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var claims []Claim

	if m := selfClaimPattern.FindStringSubmatch(content); m != nil {
		role := types.Role(m[1])
		if m[1] == "" {
			role = englishRoleNames[strings.ToLower(m[2])]
		}
		if role != "" {
			claims = append(claims, Claim{Kind: ClaimRole, Role: role})
		}
	}

	claimedSeer := false
	for _, c := range claims {
		if c.Kind == ClaimRole && c.Role == types.RoleSeer {
			claimedSeer = true
		}
	}

	// Kill confirmations are seer-flavored accusations; they carry weight
	// even when the seer claim is implicit (查杀 is seer vocabulary).
	for _, id := range matchTargets(killConfirmPattern, content, knownIDs) {
		claims = append(claims, Claim{Kind: ClaimKillConfirm, TargetID: id})
	}
	for _, id := range matchTargets(goldWaterPattern, content, knownIDs) {
		claims = append(claims, Claim{Kind: ClaimGoldWater, TargetID: id})
	}

	// Plain accusations, minus targets already covered by 查杀.
	confirmed := make(map[int]bool)
	for _, c := range claims {
		if c.Kind == ClaimKillConfirm {
			confirmed[c.TargetID] = true
		}
	}
	for _, id := range matchTargets(accusePattern, content, knownIDs) {
		if !confirmed[id] {
			claims = append(claims, Claim{Kind: ClaimAccuse, TargetID: id})
		}
	}

	vouched := make(map[int]bool)
	for _, c := range claims {
		if c.Kind == ClaimGoldWater {
			vouched[c.TargetID] = true
		}
	}
	for _, id := range matchTargets(vouchPattern, content, knownIDs) {
		if !vouched[id] {
			kind := ClaimVouch
			if claimedSeer {
				kind = ClaimGoldWater
			}
			claims = append(claims, Claim{Kind: kind, TargetID: id})
		}
	}

	return claims
}

// matchTargets collects unique, known player ids from all submatch groups.
func matchTargets(re *regexp.Regexp, content string, knownIDs map[int]bool) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		for _, group := range m[1:] {
			if group == "" {
				continue
			}
			id, err := strconv.Atoi(group)
			if err != nil || id <= 0 || seen[id] {
				continue
			}
			if knownIDs != nil && !knownIDs[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// NamedTargets returns every seat number mentioned in the text, claims or not.
func NamedTargets(content string, knownIDs map[int]bool) []int {
	return matchTargets(seatPattern, content, knownIDs)
}
