package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

func cue(start, end time.Duration, style, text string) subtitle.Cue {
	return subtitle.Cue{Start: start, End: end, Style: style, Text: text}
}

func TestCheckDuplicateLines(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, time.Second, "Default", "hello"),
		cue(0, time.Second, "Default", "hello"),
	}}
	issues := CheckDuplicateLines(sub, nil)
	assert.Len(t, issues, 1)
	assert.Equal(t, "duplicate_lines", issues[0].CheckName)
}

func TestCheckTimingOverlapsSeverityThreshold(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, 2*time.Second, "Default", "a"),
		cue(1800*time.Millisecond, 3*time.Second, "Default", "b"), // 200ms overlap -> warning
	}}
	issues := CheckTimingOverlaps(sub, nil)
	assert.Len(t, issues, 1)
	assert.Equal(t, store.SeverityWarning, issues[0].Severity)

	sub2 := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, 2*time.Second, "Default", "a"),
		cue(time.Second, 3*time.Second, "Default", "b"), // 1s overlap -> error
	}}
	issues2 := CheckTimingOverlaps(sub2, nil)
	assert.Len(t, issues2, 1)
	assert.Equal(t, store.SeverityError, issues2[0].Severity)
}

func TestCheckTimingOverlapsIgnoresDifferentStyles(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{
		cue(0, 2*time.Second, "Default", "a"),
		cue(time.Second, 3*time.Second, "Signs", "b"),
	}}
	assert.Empty(t, CheckTimingOverlaps(sub, nil))
}

func TestCheckEncodingIssuesDetectsBOMAndMixedLineEndings(t *testing.T) {
	raw := []byte("\xEF\xBB\xBF1\r\nhello\nworld\n")
	issues := CheckEncodingIssues(&subtitle.Subtitle{}, raw)
	var names []string
	for _, i := range issues {
		names = append(names, i.CheckName)
	}
	assert.Contains(t, names, "encoding_issues")
	assert.GreaterOrEqual(t, len(issues), 2, "both BOM and mixed-line-ending should be flagged")
}

func TestCheckMissingStyles(t *testing.T) {
	sub := &subtitle.Subtitle{
		Format: subtitle.FormatASS,
		Styles: []subtitle.StyleDef{{Name: "Default"}},
		Cues:   []subtitle.Cue{cue(0, time.Second, "Undefined", "hi")},
	}
	issues := CheckMissingStyles(sub, nil)
	assert.Len(t, issues, 1)
}

func TestCheckEmptyEvents(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(0, time.Second, "Default", "   ")}}
	assert.Len(t, CheckEmptyEvents(sub, nil), 1)
}

func TestCheckExcessiveDuration(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(0, 11*time.Second, "Default", "x")}}
	assert.Len(t, CheckExcessiveDuration(sub, nil), 1)
}

func TestCheckNegativeTiming(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(2*time.Second, time.Second, "Default", "x")}}
	assert.Len(t, CheckNegativeTiming(sub, nil), 1)
}

func TestCheckZeroDuration(t *testing.T) {
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(time.Second, time.Second, "Default", "x")}}
	assert.Len(t, CheckZeroDuration(sub, nil), 1)
}

func TestCheckLineTooLong(t *testing.T) {
	long := make([]byte, 90)
	for i := range long {
		long[i] = 'a'
	}
	sub := &subtitle.Subtitle{Cues: []subtitle.Cue{cue(0, time.Second, "Default", string(long))}}
	assert.Len(t, CheckLineTooLong(sub, nil), 1)
}

func TestScoreClampedToZero(t *testing.T) {
	var issues []Issue
	for i := 0; i < 20; i++ {
		issues = append(issues, Issue{Severity: store.SeverityError})
	}
	assert.Equal(t, 0, Score(issues))
}

func TestScorePerfectWithNoIssues(t *testing.T) {
	assert.Equal(t, 100, Score(nil))
}
