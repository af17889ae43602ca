// Package health implements the subtitle health engine (ten pure checks,
// scoring, and six idempotent auto-fixers) and the deduplication scanner.
package health

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

// Issue is one finding from a single check against one parsed subtitle.
type Issue struct {
	CheckName string
	Severity  store.HealthSeverity
	Message   string
	CueIndex  int // 0 when the issue isn't tied to a specific cue
}

// Check is a pure function from a parsed subtitle to the issues it finds.
// Every check here is side-effect free: it never mutates sub.
type Check func(sub *subtitle.Subtitle, raw []byte) []Issue

// AllChecks is the fixed battery of ten checks run by Engine.Run.
var AllChecks = []Check{
	CheckDuplicateLines,
	CheckTimingOverlaps,
	CheckEncodingIssues,
	CheckMissingStyles,
	CheckEmptyEvents,
	CheckExcessiveDuration,
	CheckNegativeTiming,
	CheckZeroDuration,
	CheckLineTooLong,
	CheckMissingNewlines,
}

const maxLineLength = 80
const maxEventDuration = 10_000_000_000 // 10s in time.Duration units (ns)

// CheckDuplicateLines flags cues that share identical text, timing, and
// style with an earlier cue.
func CheckDuplicateLines(sub *subtitle.Subtitle, _ []byte) []Issue {
	seen := make(map[string]int)
	var issues []Issue
	for i, c := range sub.Cues {
		key := fmt.Sprintf("%d|%d|%s|%s", c.Start, c.End, c.Style, c.Text)
		if first, ok := seen[key]; ok {
			issues = append(issues, Issue{
				CheckName: "duplicate_lines", Severity: store.SeverityWarning,
				Message: fmt.Sprintf("cue %d duplicates cue %d", i+1, first+1), CueIndex: i + 1,
			})
			continue
		}
		seen[key] = i
	}
	return issues
}

// CheckTimingOverlaps flags cues sharing a style whose time ranges overlap;
// an overlap under 500ms is a warning, anything larger is an error. The
// codec doesn't track ASS layers separately, so cues are grouped by style
// alone (equivalent to comparing within a single shared layer).
func CheckTimingOverlaps(sub *subtitle.Subtitle, _ []byte) []Issue {
	byStyle := make(map[string][]int)
	for i, c := range sub.Cues {
		byStyle[c.Style] = append(byStyle[c.Style], i)
	}
	var issues []Issue
	for _, idxs := range byStyle {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				i, j := idxs[a], idxs[b]
				ci, cj := sub.Cues[i], sub.Cues[j]
				overlap := overlapDuration(ci, cj)
				if overlap <= 0 {
					continue
				}
				severity := store.SeverityWarning
				if overlap >= 500_000_000 {
					severity = store.SeverityError
				}
				issues = append(issues, Issue{
					CheckName: "timing_overlaps", Severity: severity,
					Message: fmt.Sprintf("cues %d and %d overlap by %s", i+1, j+1, overlap),
					CueIndex: i + 1,
				})
			}
		}
	}
	return issues
}

func overlapDuration(a, b subtitle.Cue) int64 {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	if end <= start {
		return 0
	}
	return int64(end - start)
}

// CheckEncodingIssues flags non-UTF-8 content, a BOM, or mixed line endings
// in the raw bytes as loaded from disk (before the codec's LF normalization).
func CheckEncodingIssues(_ *subtitle.Subtitle, raw []byte) []Issue {
	var issues []Issue
	if !utf8.Valid(raw) {
		issues = append(issues, Issue{CheckName: "encoding_issues", Severity: store.SeverityError, Message: "file is not valid UTF-8"})
	}
	if len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		issues = append(issues, Issue{CheckName: "encoding_issues", Severity: store.SeverityInfo, Message: "file begins with a UTF-8 BOM"})
	}
	hasCRLF := strings.Contains(string(raw), "\r\n")
	hasBareLF := strings.Contains(strings.ReplaceAll(string(raw), "\r\n", ""), "\n")
	if hasCRLF && hasBareLF {
		issues = append(issues, Issue{CheckName: "encoding_issues", Severity: store.SeverityWarning, Message: "file mixes CRLF and LF line endings"})
	}
	return issues
}

// CheckMissingStyles flags ASS cues referencing a style name that has no
// corresponding [V4+ Styles] definition.
func CheckMissingStyles(sub *subtitle.Subtitle, _ []byte) []Issue {
	if sub.Format != subtitle.FormatASS {
		return nil
	}
	defined := make(map[string]bool, len(sub.Styles))
	for _, s := range sub.Styles {
		defined[s.Name] = true
	}
	var issues []Issue
	for i, c := range sub.Cues {
		if c.Style != "" && !defined[c.Style] {
			issues = append(issues, Issue{
				CheckName: "missing_styles", Severity: store.SeverityError,
				Message: fmt.Sprintf("cue %d references undefined style %q", i+1, c.Style), CueIndex: i + 1,
			})
		}
	}
	return issues
}

// CheckEmptyEvents flags cues with no text after trimming whitespace.
func CheckEmptyEvents(sub *subtitle.Subtitle, _ []byte) []Issue {
	var issues []Issue
	for i, c := range sub.Cues {
		if strings.TrimSpace(c.Text) == "" {
			issues = append(issues, Issue{CheckName: "empty_events", Severity: store.SeverityWarning, Message: fmt.Sprintf("cue %d has no text", i+1), CueIndex: i + 1})
		}
	}
	return issues
}

// CheckExcessiveDuration flags a single event lasting longer than 10s.
func CheckExcessiveDuration(sub *subtitle.Subtitle, _ []byte) []Issue {
	var issues []Issue
	for i, c := range sub.Cues {
		if int64(c.End-c.Start) > maxEventDuration {
			issues = append(issues, Issue{CheckName: "excessive_duration", Severity: store.SeverityInfo, Message: fmt.Sprintf("cue %d runs %s", i+1, c.End-c.Start), CueIndex: i + 1})
		}
	}
	return issues
}

// CheckNegativeTiming flags cues whose end time precedes their start time.
func CheckNegativeTiming(sub *subtitle.Subtitle, _ []byte) []Issue {
	var issues []Issue
	for i, c := range sub.Cues {
		if c.End < c.Start {
			issues = append(issues, Issue{CheckName: "negative_timing", Severity: store.SeverityError, Message: fmt.Sprintf("cue %d ends before it starts", i+1), CueIndex: i + 1})
		}
	}
	return issues
}

// CheckZeroDuration flags cues whose start and end times are identical.
func CheckZeroDuration(sub *subtitle.Subtitle, _ []byte) []Issue {
	var issues []Issue
	for i, c := range sub.Cues {
		if c.End == c.Start {
			issues = append(issues, Issue{CheckName: "zero_duration", Severity: store.SeverityWarning, Message: fmt.Sprintf("cue %d has zero duration", i+1), CueIndex: i + 1})
		}
	}
	return issues
}

// CheckLineTooLong flags any single line within a cue's text over 80 chars.
func CheckLineTooLong(sub *subtitle.Subtitle, _ []byte) []Issue {
	var issues []Issue
	for i, c := range sub.Cues {
		for _, line := range strings.Split(c.Text, "\n") {
			if utf8.RuneCountInString(line) > maxLineLength {
				issues = append(issues, Issue{CheckName: "line_too_long", Severity: store.SeverityInfo, Message: fmt.Sprintf("cue %d has a line over %d characters", i+1, maxLineLength), CueIndex: i + 1})
				break
			}
		}
	}
	return issues
}

// CheckMissingNewlines flags ASS cues over 80 characters with no explicit
// line break (\N), a common cause of off-screen text in ASS renderers.
func CheckMissingNewlines(sub *subtitle.Subtitle, _ []byte) []Issue {
	if sub.Format != subtitle.FormatASS {
		return nil
	}
	var issues []Issue
	for i, c := range sub.Cues {
		if utf8.RuneCountInString(c.Text) > maxLineLength && !strings.Contains(c.Text, `\N`) && !strings.Contains(c.Text, `\n`) {
			issues = append(issues, Issue{CheckName: "missing_newlines", Severity: store.SeverityInfo, Message: fmt.Sprintf("cue %d has no line break", i+1), CueIndex: i + 1})
		}
	}
	return issues
}
