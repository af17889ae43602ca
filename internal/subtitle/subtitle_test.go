package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSRTRoundTrip(t *testing.T) {
	src := "1\r\n00:00:01,000 --> 00:00:04,500\r\nHello\r\nWorld\r\n\r\n2\n00:00:05,000 --> 00:00:06,000\nSecond\n"
	sub, err := Parse([]byte(src), FormatSRT)
	require.NoError(t, err)
	require.Len(t, sub.Cues, 2)
	assert.Equal(t, time.Second, sub.Cues[0].Start)
	assert.Equal(t, 4*time.Second+500*time.Millisecond, sub.Cues[0].End)
	assert.Equal(t, "Hello\nWorld", sub.Cues[0].Text)

	out, err := Serialize(sub)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "\r")

	reparsed, err := Parse(out, FormatSRT)
	require.NoError(t, err)
	require.Len(t, reparsed.Cues, 2)
	assert.Equal(t, sub.Cues[0].Start, reparsed.Cues[0].Start)
	assert.Equal(t, sub.Cues[0].Text, reparsed.Cues[0].Text)
}

func TestShiftClampsNegativeToZero(t *testing.T) {
	sub := &Subtitle{Format: FormatSRT, Cues: []Cue{{Index: 1, Start: 2 * time.Second, End: 4 * time.Second, Text: "x"}}}
	Shift(sub, -10*time.Second)
	assert.Equal(t, time.Duration(0), sub.Cues[0].Start)
	assert.Equal(t, time.Duration(0), sub.Cues[0].End)
}

func TestTransformFramerateRoundTrip(t *testing.T) {
	sub := &Subtitle{Format: FormatSRT, Cues: []Cue{{Index: 1, Start: 10 * time.Second, End: 20 * time.Second, Text: "x"}}}
	require.NoError(t, TransformFramerate(sub, 23.976, 25))
	require.NoError(t, TransformFramerate(sub, 25, 23.976))
	assert.InDelta(t, float64(10*time.Second), float64(sub.Cues[0].Start), float64(time.Millisecond))
	assert.InDelta(t, float64(20*time.Second), float64(sub.Cues[0].End), float64(time.Millisecond))
}

func TestASSRoundTripAndForcedHint(t *testing.T) {
	src := "[Script Info]\nTitle: Test\n\n[V4+ Styles]\nFormat: Name, Fontname\nStyle: ForcedSign,Arial\n\n[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\nDialogue: 0,0:00:01.00,0:00:03.50,ForcedSign,,0,0,0,,Sign text\n"
	sub, err := Parse([]byte(src), FormatASS)
	require.NoError(t, err)
	require.Len(t, sub.Cues, 1)
	assert.Equal(t, time.Second, sub.Cues[0].Start)
	assert.Equal(t, "Sign text", sub.Cues[0].Text)
	assert.True(t, DetectForcedStyleHint(sub))

	out, err := Serialize(sub)
	require.NoError(t, err)
	reparsed, err := Parse(out, FormatASS)
	require.NoError(t, err)
	require.Len(t, reparsed.Cues, 1)
	assert.Equal(t, sub.Cues[0].Start, reparsed.Cues[0].Start)
}

func TestScaleRoundsToNearest(t *testing.T) {
	sub := &Subtitle{Format: FormatSRT, Cues: []Cue{{Index: 1, Start: 3 * time.Second, End: 6 * time.Second, Text: "x"}}}
	require.NoError(t, Scale(sub, 1.0001))
	assert.InDelta(t, float64(3*time.Second), float64(sub.Cues[0].Start), float64(time.Millisecond))
}

func TestClassifyStylesByName(t *testing.T) {
	sub := &Subtitle{
		Styles: []StyleDef{
			{Name: "Default"},
			{Name: "Signs"},
			{Name: "OP Song"},
		},
	}
	classes := ClassifyStyles(sub)
	assert.Equal(t, StyleClassDialog, classes["Default"])
	assert.Equal(t, StyleClassSigns, classes["Signs"])
	assert.Equal(t, StyleClassSongs, classes["OP Song"])
}
