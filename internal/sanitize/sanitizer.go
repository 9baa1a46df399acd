// Package sanitize deterministically repairs the self-reported belief
// table a generation call returns, so it never references nonexistent
// players or out-of-pool roles. Resolution is an ordered rule list: exact
// pool match, then substring scan, then category hints, then the unknown
// sentinel. No fuzzy matching.
package sanitize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"wolfmind/internal/logging"
	"wolfmind/internal/types"
)

var digitRun = regexp.MustCompile(`\d+`)

// goodHints mark free text implying a good-aligned role.
var goodHints = []string{"好人", "村民", "平民", "神"}

// Result carries the repaired table and whether anything was rewritten.
type Result struct {
	Table   types.IdentityTable
	Changed bool
}

// Sanitize repairs an identity table against the known players and the
// configured role pool. Pure: the input table is never mutated. Without a
// configured pool the input is returned unchanged; the sanitizer never
// guesses without ground truth.
func Sanitize(table types.IdentityTable, players []types.Player, setup types.GameSetup) Result {
	if len(setup.RolePool) == 0 {
		return Result{Table: table}
	}

	known := make(map[int]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
	}
	pool := poolRoles(setup)

	out := make(types.IdentityTable, len(table))
	changed := false

	for rawKey, entry := range table {
		id, ok := extractPlayerID(rawKey)
		if !ok || !known[id] {
			changed = true
			logging.Sanitizer("dropped belief entry with unresolvable key %q", rawKey)
			continue
		}
		key := strconv.Itoa(id)
		if key != rawKey {
			changed = true
		}

		clean := entry
		if suspect := normalizeSuspect(entry.Suspect, pool); suspect != entry.Suspect {
			clean.Suspect = suspect
			changed = true
		}
		if conf := clampConfidence(entry.Confidence); !sameConfidence(conf, entry.Confidence) {
			clean.Confidence = conf
			changed = true
		}
		out[key] = clean
	}

	return Result{Table: out, Changed: changed}
}

// extractPlayerID takes the first run of digits in the raw key.
func extractPlayerID(key string) (int, bool) {
	match := digitRun.FindString(key)
	if match == "" {
		return 0, false
	}
	id, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return id, true
}

// poolRoles returns the configured role names in deterministic order.
func poolRoles(setup types.GameSetup) []string {
	roles := make([]string, 0, len(setup.RolePool))
	for role, count := range setup.RolePool {
		if count > 0 {
			roles = append(roles, string(role))
		}
	}
	sort.Strings(roles)
	return roles
}

// normalizeSuspect maps free text onto configured roles. Ordered rules:
// exact match keeps the text, substring scan collects pool roles named in
// the text, category hints map onto the unique candidate or preserve
// ambiguity with an "或" join, and anything left becomes the sentinel.
func normalizeSuspect(text string, pool []string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return string(types.RoleUnknown)
	}

	for _, role := range pool {
		if trimmed == role {
			return trimmed
		}
	}

	var matches []string
	for _, role := range pool {
		if strings.Contains(trimmed, role) {
			matches = append(matches, role)
		}
	}
	if len(matches) > 0 {
		return strings.Join(matches, "或")
	}

	if containsAny(trimmed, goodHints) {
		var candidates []string
		for _, role := range pool {
			if !types.Role(role).IsWolf() {
				candidates = append(candidates, role)
			}
		}
		if len(candidates) > 0 {
			return strings.Join(candidates, "或")
		}
	}
	if strings.Contains(trimmed, "狼") {
		var candidates []string
		for _, role := range pool {
			if types.Role(role).IsWolf() {
				candidates = append(candidates, role)
			}
		}
		if len(candidates) > 0 {
			return strings.Join(candidates, "或")
		}
	}

	return string(types.RoleUnknown)
}

// clampConfidence clamps to an integer in [0,100]. A missing value stays
// missing rather than being defaulted.
func clampConfidence(c *int) *int {
	if c == nil {
		return nil
	}
	v := *c
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

func sameConfidence(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
