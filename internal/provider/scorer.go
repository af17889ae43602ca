package provider

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// ScoreWeights controls how much each signal contributes to a candidate's
// score. All weights are non-negative; raising any one of them can only
// raise or hold steady the score of a candidate matching that signal,
// never lower it (the monotonicity property the scorer is tested against).
type ScoreWeights struct {
	LanguageMatch    int
	SubtitleTypeMatch int
	ReleaseMatch     int
	HearingImpaired  int
}

// DefaultScoreWeights mirrors the relative importance a default install
// should give each signal. The four weights sum to 1000; a positive
// per-provider modifier can push the raw total past that, and Score clamps
// the result to [0, 1000].
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		LanguageMatch:     400,
		SubtitleTypeMatch: 300,
		ReleaseMatch:      200,
		HearingImpaired:   100,
	}
}

const (
	minProviderModifier = -100
	maxProviderModifier = 100
	maxScore            = 1000
)

// Score computes a candidate's integer score in [0, 1000] against query,
// using weights and a per-provider modifier clamped to [-100, 100].
func Score(candidate Candidate, query VideoQuery, weights ScoreWeights, providerModifier int) int {
	total := 0

	if strings.EqualFold(candidate.Language, query.Language) {
		total += weights.LanguageMatch
	}
	if strings.EqualFold(candidate.SubtitleType, query.SubtitleType) {
		total += weights.SubtitleTypeMatch
	}
	total += int(float64(weights.ReleaseMatch) * releaseMatchRatio(candidate.ReleaseInfo, query))
	if candidate.HearingImpaired == query.HearingImpaired {
		total += weights.HearingImpaired
	}

	modifier := providerModifier
	if modifier > maxProviderModifier {
		modifier = maxProviderModifier
	}
	if modifier < minProviderModifier {
		modifier = minProviderModifier
	}
	total += modifier

	if total < 0 {
		total = 0
	}
	if total > maxScore {
		total = maxScore
	}
	return total
}

// releaseMatchRatio is a crude token-overlap ratio between the candidate's
// free-text release info and the query's title, used only to nudge score,
// never to gate admission. Japanese titles are additionally romanized
// before tokenizing: fansub release names are almost always Latin-script
// even when the resolved metadata title is in Japanese, so matching only
// the raw title would silently lose every anime query's release signal.
func releaseMatchRatio(releaseInfo string, query VideoQuery) float64 {
	if releaseInfo == "" || query.Title == "" {
		return 0
	}
	releaseLower := strings.ToLower(releaseInfo)
	titleTokens := strings.Fields(strings.ToLower(query.Title))
	if romanized := romanizeJapanese(query.Title); romanized != "" {
		titleTokens = append(titleTokens, strings.Fields(strings.ToLower(romanized))...)
	}
	if len(titleTokens) == 0 {
		return 0
	}
	matched := 0
	for _, tok := range titleTokens {
		if strings.Contains(releaseLower, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(titleTokens))
}

// romanizeJapanese transliterates a title containing Hiragana, Katakana, or
// Han script into Latin characters, returning "" when the title has none.
func romanizeJapanese(title string) string {
	hasJapanese := false
	for _, r := range title {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			hasJapanese = true
			break
		}
	}
	if !hasJapanese {
		return ""
	}
	romanized := strings.TrimSpace(unidecode.Unidecode(title))
	return strings.Join(strings.Fields(romanized), " ")
}

// Rank sorts candidates by descending score, breaking ties stably by
// (provider priority ascending, external ID ascending) so repeated runs over
// the same input always produce the same winner.
func Rank(candidates []Candidate, priorityOf func(providerName string) int) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		pi, pj := priorityOf(candidates[i].ProviderName), priorityOf(candidates[j].ProviderName)
		if pi != pj {
			return pi < pj
		}
		return candidates[i].ExternalID < candidates[j].ExternalID
	})
}
