package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMonotonicPerWeight(t *testing.T) {
	query := VideoQuery{Language: "eng", SubtitleType: "full"}
	candidate := Candidate{Language: "eng", SubtitleType: "full"}

	low := Score(candidate, query, ScoreWeights{LanguageMatch: 100}, 0)
	high := Score(candidate, query, ScoreWeights{LanguageMatch: 200}, 0)
	assert.GreaterOrEqual(t, high, low)
}

func TestScoreClampedToRange(t *testing.T) {
	query := VideoQuery{Language: "eng", SubtitleType: "full"}
	candidate := Candidate{Language: "eng", SubtitleType: "full"}
	s := Score(candidate, query, DefaultScoreWeights(), 1000)
	assert.LessOrEqual(t, s, maxScore)
	assert.GreaterOrEqual(t, s, 0)

	sLow := Score(candidate, query, ScoreWeights{}, -1000)
	assert.Equal(t, 0, sLow)
}

func TestScoreRewardsHearingImpairedAlignment(t *testing.T) {
	query := VideoQuery{Language: "eng", SubtitleType: "full", HearingImpaired: true}
	aligned := Candidate{Language: "eng", SubtitleType: "full", HearingImpaired: true}
	misaligned := Candidate{Language: "eng", SubtitleType: "full", HearingImpaired: false}

	weights := ScoreWeights{HearingImpaired: 100}
	assert.Greater(t, Score(aligned, query, weights, 0), Score(misaligned, query, weights, 0))
}

func TestRankStableTieBreak(t *testing.T) {
	candidates := []Candidate{
		{ProviderName: "b", ExternalID: "2", Score: 500},
		{ProviderName: "a", ExternalID: "1", Score: 500},
		{ProviderName: "a", ExternalID: "0", Score: 500},
	}
	priority := map[string]int{"a": 1, "b": 2}
	Rank(candidates, func(name string) int { return priority[name] })

	assert.Equal(t, "0", candidates[0].ExternalID)
	assert.Equal(t, "1", candidates[1].ExternalID)
	assert.Equal(t, "b", candidates[2].ProviderName)
}
