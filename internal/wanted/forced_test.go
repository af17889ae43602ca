package wanted

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Abrechen2/sublarr-sub006/internal/provider"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

func TestClassifyForcedPrefersExplicitSubtitleType(t *testing.T) {
	c := provider.Candidate{SubtitleType: "forced", ReleaseInfo: "plain release, no markers"}
	assert.True(t, classifyForced(c, nil))

	c = provider.Candidate{SubtitleType: "full", ReleaseInfo: "Forced.Signs.Included"}
	assert.False(t, classifyForced(c, nil))
}

func TestClassifyForcedFallsBackToReleaseInfo(t *testing.T) {
	assert.True(t, classifyForced(provider.Candidate{ReleaseInfo: "Movie.2020.FORCED.srt"}, nil))
	assert.True(t, classifyForced(provider.Candidate{ReleaseInfo: "Anime.S01.Signs.ass"}, nil))
	assert.False(t, classifyForced(provider.Candidate{ReleaseInfo: "Movie.2020.WEB-DL.srt"}, nil))
}

func TestClassifyForcedFallsBackToASSStyleHint(t *testing.T) {
	withForcedStyle := &subtitle.Subtitle{
		Format: subtitle.FormatASS,
		Styles: []subtitle.StyleDef{{Name: "Forced"}},
	}
	assert.True(t, classifyForced(provider.Candidate{}, withForcedStyle))

	withoutForcedStyle := &subtitle.Subtitle{
		Format: subtitle.FormatASS,
		Styles: []subtitle.StyleDef{{Name: "Default"}},
	}
	assert.False(t, classifyForced(provider.Candidate{}, withoutForcedStyle))
}

func TestSubtitleTypeMatches(t *testing.T) {
	forced := provider.Candidate{SubtitleType: "forced"}
	full := provider.Candidate{SubtitleType: "full"}

	assert.True(t, subtitleTypeMatches(forced, true, nil))
	assert.False(t, subtitleTypeMatches(forced, false, nil))
	assert.True(t, subtitleTypeMatches(full, false, nil))
	assert.False(t, subtitleTypeMatches(full, true, nil))
}

func TestIsForcedSubtitleType(t *testing.T) {
	assert.True(t, isForcedSubtitleType("forced"))
	assert.True(t, isForcedSubtitleType("Signs"))
	assert.False(t, isForcedSubtitleType("full"))
	assert.False(t, isForcedSubtitleType(""))
}
