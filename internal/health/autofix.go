package health

import (
	"fmt"
	"os"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

// Fixer mutates a parsed subtitle in place and reports whether it changed
// anything; fixers never touch raw text, only the parsed model.
type Fixer func(sub *subtitle.Subtitle) (changed bool)

// AllFixers is the fixed set of six idempotent auto-fixers, run in order.
var AllFixers = []Fixer{
	FixDuplicates,
	FixOverlaps,
	FixMissingStyles,
	FixEmptyEvents,
	FixNegativeTiming,
	FixZeroDuration,
}

// FixDuplicates removes cues that exactly duplicate an earlier cue's text,
// timing, and style.
func FixDuplicates(sub *subtitle.Subtitle) bool {
	seen := make(map[string]bool, len(sub.Cues))
	out := sub.Cues[:0:0]
	changed := false
	for _, c := range sub.Cues {
		key := fmt.Sprintf("%d|%d|%s|%s", c.Start, c.End, c.Style, c.Text)
		if seen[key] {
			changed = true
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sub.Cues = out
	return changed
}

// FixOverlaps moves a later cue's start time forward to the previous cue's
// end time whenever two same-style cues overlap. The later cue keeps its end
// time, so it is shortened; if that end would precede the adjusted start, it
// is raised to the start.
func FixOverlaps(sub *subtitle.Subtitle) bool {
	changed := false
	lastEndByStyle := make(map[string]int64)
	for i := range sub.Cues {
		c := &sub.Cues[i]
		if lastEnd, ok := lastEndByStyle[c.Style]; ok && int64(c.Start) < lastEnd {
			c.Start = time.Duration(lastEnd)
			if c.End < c.Start {
				c.End = c.Start
			}
			changed = true
		}
		lastEndByStyle[c.Style] = int64(c.End)
	}
	return changed
}

// FixMissingStyles reassigns any cue referencing an undefined style to the
// document's default style (the first defined style, or "Default" if none
// are defined at all).
func FixMissingStyles(sub *subtitle.Subtitle) bool {
	if sub.Format != subtitle.FormatASS {
		return false
	}
	defined := make(map[string]bool, len(sub.Styles))
	for _, s := range sub.Styles {
		defined[s.Name] = true
	}
	fallback := "Default"
	if len(sub.Styles) > 0 {
		fallback = sub.Styles[0].Name
	}
	changed := false
	for i := range sub.Cues {
		if sub.Cues[i].Style != "" && !defined[sub.Cues[i].Style] {
			sub.Cues[i].Style = fallback
			changed = true
		}
	}
	return changed
}

// FixEmptyEvents removes cues with no text after trimming whitespace.
func FixEmptyEvents(sub *subtitle.Subtitle) bool {
	out := sub.Cues[:0:0]
	changed := false
	for _, c := range sub.Cues {
		if trimmedEmpty(c.Text) {
			changed = true
			continue
		}
		out = append(out, c)
	}
	sub.Cues = out
	return changed
}

func trimmedEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// FixNegativeTiming swaps start/end when a cue's end precedes its start.
func FixNegativeTiming(sub *subtitle.Subtitle) bool {
	changed := false
	for i := range sub.Cues {
		if sub.Cues[i].End < sub.Cues[i].Start {
			sub.Cues[i].Start, sub.Cues[i].End = sub.Cues[i].End, sub.Cues[i].Start
			changed = true
		}
	}
	return changed
}

// FixZeroDuration extends a zero-duration cue's end time by one second, the
// minimum readable duration, without touching the next cue's start.
func FixZeroDuration(sub *subtitle.Subtitle) bool {
	const minDuration = 1_000_000_000 // 1s
	changed := false
	for i := range sub.Cues {
		if sub.Cues[i].End == sub.Cues[i].Start {
			sub.Cues[i].End = sub.Cues[i].Start + time.Duration(minDuration)
			changed = true
		}
	}
	return changed
}

// ApplyFixes runs every fixer over sub in sequence, returning whether any
// of them changed it.
func ApplyFixes(sub *subtitle.Subtitle) bool {
	changed := false
	for _, fix := range AllFixers {
		if fix(sub) {
			changed = true
		}
	}
	return changed
}

// WriteFixed backs up the existing file to <path>.bak, re-serializes sub,
// and writes it to path. A mutation is only ever applied to the parsed
// model and re-serialized; the raw text is never patched in place.
func WriteFixed(path string, sub *subtitle.Subtitle) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	if err := os.WriteFile(path+".bak", existing, 0o644); err != nil {
		return apperr.Newf(apperr.Internal, "health: backup before fix: %w", err)
	}
	content, err := subtitle.Serialize(sub)
	if err != nil {
		return apperr.New(apperr.ContentInvalid, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return apperr.New(apperr.Internal, err)
	}
	return nil
}
