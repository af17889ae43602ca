package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredTracksSeparateEmitsBoth(t *testing.T) {
	prof := LanguageProfile{Requirements: []LanguageRequirement{
		{Language: "eng", Enabled: true, ForcedPreference: ForcedSeparate},
	}}
	tracks := RequiredTracks(MediaItem{OriginalLanguage: "eng"}, prof)
	assert.ElementsMatch(t, []RequiredTrack{
		{Language: "eng", SubtitleType: SubtitleTypeFull},
		{Language: "eng", SubtitleType: SubtitleTypeForced},
	}, tracks)
}

func TestRequiredTracksAutoOnlyAddsForcedWhenForeign(t *testing.T) {
	prof := LanguageProfile{Requirements: []LanguageRequirement{
		{Language: "eng", Enabled: true, ForcedPreference: ForcedAuto},
	}}

	native := RequiredTracks(MediaItem{OriginalLanguage: "eng"}, prof)
	assert.Equal(t, []RequiredTrack{{Language: "eng", SubtitleType: SubtitleTypeFull}}, native)

	foreign := RequiredTracks(MediaItem{OriginalLanguage: "jpn"}, prof)
	assert.ElementsMatch(t, []RequiredTrack{
		{Language: "eng", SubtitleType: SubtitleTypeFull},
		{Language: "eng", SubtitleType: SubtitleTypeForced},
	}, foreign)
}

// HearingImpaired is an orthogonal per-track flag, not its own subtitle_type:
// requesting it augments the full track rather than emitting a "signs"/"sdh" entry.
func TestRequiredTracksHearingImpairedIsAFlagNotASubtitleType(t *testing.T) {
	prof := LanguageProfile{Requirements: []LanguageRequirement{
		{Language: "eng", Enabled: true, ForcedPreference: ForcedDisabled, HearingImpaired: true},
	}}
	tracks := RequiredTracks(MediaItem{OriginalLanguage: "eng"}, prof)
	assert.ElementsMatch(t, []RequiredTrack{
		{Language: "eng", SubtitleType: SubtitleTypeFull, HearingImpaired: true},
	}, tracks)
}

func TestRequiredTracksSkipsDisabledRequirements(t *testing.T) {
	prof := LanguageProfile{Requirements: []LanguageRequirement{
		{Language: "eng", Enabled: false, ForcedPreference: ForcedSeparate},
	}}
	assert.Empty(t, RequiredTracks(MediaItem{OriginalLanguage: "eng"}, prof))
}
