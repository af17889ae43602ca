package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

func TestFixDuplicatesRemovesExactRepeat(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, time.Second, "Default", "hi"),
		cue(0, time.Second, "Default", "hi"),
	}}
	changed := FixDuplicates(sub)
	assert.True(t, changed)
	assert.Len(t, sub.Cues, 1)
}

func TestFixOverlapsMovesLaterCueForward(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, 2*time.Second, "Default", "a"),
		cue(time.Second, 3*time.Second, "Default", "b"),
	}}
	changed := FixOverlaps(sub)
	assert.True(t, changed)
	assert.Equal(t, 2*time.Second, sub.Cues[1].Start)
	assert.Empty(t, CheckTimingOverlaps(sub, nil))
}

func TestFixMissingStylesReassignsToDefault(t *testing.T) {
	sub := &subtitle.Subtitle{
		Format: subtitle.FormatASS,
		Styles: []subtitle.StyleDef{{Name: "Default"}},
		Cues:   []subtitle.Cue{cue(0, time.Second, "Ghost", "x")},
	}
	changed := FixMissingStyles(sub)
	assert.True(t, changed)
	assert.Equal(t, "Default", sub.Cues[0].Style)
}

func TestFixEmptyEventsRemovesBlankCues(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, time.Second, "Default", "  "),
		cue(time.Second, 2*time.Second, "Default", "kept"),
	}}
	changed := FixEmptyEvents(sub)
	assert.True(t, changed)
	assert.Len(t, sub.Cues, 1)
	assert.Equal(t, "kept", sub.Cues[0].Text)
}

func TestFixNegativeTimingSwapsStartEnd(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(2*time.Second, time.Second, "Default", "x")}}
	changed := FixNegativeTiming(sub)
	assert.True(t, changed)
	assert.True(t, sub.Cues[0].End > sub.Cues[0].Start)
}

func TestFixZeroDurationExtendsByOneSecond(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(time.Second, time.Second, "Default", "x")}}
	changed := FixZeroDuration(sub)
	assert.True(t, changed)
	assert.Equal(t, 2*time.Second, sub.Cues[0].End)
}

func TestApplyFixesIsIdempotent(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, time.Second, "Default", "hi"),
		cue(0, time.Second, "Default", "hi"),
		cue(time.Second, time.Second, "Default", "zero"),
	}}
	first := ApplyFixes(sub)
	assert.True(t, first)
	second := ApplyFixes(sub)
	assert.False(t, second, "a second pass over already-fixed content must be a no-op")
}
