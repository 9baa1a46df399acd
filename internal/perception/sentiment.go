package perception

import "strings"

// Sentiment is a coarse classification of one speech's stance.
type Sentiment string

const (
	SentimentAccusation Sentiment = "accusation"
	SentimentDefense    Sentiment = "defense"
	SentimentSupport    Sentiment = "support"
	SentimentNeutral    Sentiment = "neutral"
)

var (
	accusationMarkers = []string{
		"是狼", "查杀", "怀疑", "可疑", "投他", "出局", "票他",
		"is a wolf", "suspicious", "vote him", "vote her", "vote them",
	}
	defenseMarkers = []string{
		"我不是", "冤枉", "不是狼", "为什么怀疑我", "我是好人",
		"i am not", "i'm not", "not a wolf", "innocent",
	}
	supportMarkers = []string{
		"金水", "是好人", "我相信", "支持", "保", "信任",
		"is good", "i believe", "i trust", "protect",
	}
)

// ClassifySentiment labels a speech by keyword evidence. Claims already
// extracted take precedence: a kill-confirm is always an accusation.
func ClassifySentiment(content string, claims []Claim) Sentiment {
	for _, c := range claims {
		switch c.Kind {
		case ClaimKillConfirm, ClaimAccuse:
			return SentimentAccusation
		}
	}

	lower := strings.ToLower(content)
	score := func(markers []string) int {
		n := 0
		for _, m := range markers {
			n += strings.Count(lower, m)
		}
		return n
	}

	acc, def, sup := score(accusationMarkers), score(defenseMarkers), score(supportMarkers)
	// Defense phrasing embeds accusation vocabulary ("我不是狼"), so it is
	// checked first when it outweighs raw accusation hits.
	switch {
	case def > 0 && def >= acc:
		return SentimentDefense
	case acc > sup && acc > 0:
		return SentimentAccusation
	case sup > 0:
		return SentimentSupport
	default:
		return SentimentNeutral
	}
}
