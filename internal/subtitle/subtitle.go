// Package subtitle implements the ASS/SRT codec and timing transforms:
// parsing, serialization, time shifting, and framerate retiming.
package subtitle

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Format identifies a subtitle container syntax.
type Format string

const (
	FormatSRT Format = "srt"
	FormatASS Format = "ass"
)

// Cue is a single timed subtitle line, format-agnostic.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Style string // ASS style name; empty for SRT
	Text  string
}

// Subtitle is a parsed subtitle document.
type Subtitle struct {
	Format Format
	Cues   []Cue

	// ASS-specific sections, preserved verbatim aside from the [Events] block.
	ScriptInfo string
	Styles     []StyleDef
}

// StyleDef is a single ASS [V4+ Styles] line, kept as name + raw fields so
// serialization round-trips exactly what wasn't explicitly mutated.
type StyleDef struct {
	Name   string
	Fields []string
}

// Parse decodes raw bytes into a Subtitle. Line endings are normalized to LF
// before parsing so downstream logic never has to special-case CRLF.
func Parse(data []byte, format Format) (*Subtitle, error) {
	normalized := normalizeLF(string(data))
	switch format {
	case FormatSRT:
		return parseSRT(normalized)
	case FormatASS:
		return parseASS(normalized)
	default:
		return nil, fmt.Errorf("subtitle: unsupported format %q", format)
	}
}

// Serialize encodes a Subtitle back to bytes using LF-only line endings.
func Serialize(sub *Subtitle) ([]byte, error) {
	switch sub.Format {
	case FormatSRT:
		return serializeSRT(sub), nil
	case FormatASS:
		return serializeASS(sub), nil
	default:
		return nil, fmt.Errorf("subtitle: unsupported format %q", sub.Format)
	}
}

func normalizeLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Shift moves every cue by offset. Any resulting negative timestamp is
// clamped to zero rather than allowed to go negative.
func Shift(sub *Subtitle, offset time.Duration) {
	for i := range sub.Cues {
		sub.Cues[i].Start = clampNonNegative(sub.Cues[i].Start + offset)
		sub.Cues[i].End = clampNonNegative(sub.Cues[i].End + offset)
	}
}

func clampNonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// TransformFramerate rescales every cue's timestamps from fromFPS to toFPS.
// This is the inverse of itself under (fps, fps') then (fps', fps), up to
// rounding, which is the guarantee exercised by the framerate round-trip
// property.
func TransformFramerate(sub *Subtitle, fromFPS, toFPS float64) error {
	if fromFPS <= 0 || toFPS <= 0 {
		return fmt.Errorf("subtitle: invalid framerate pair %.3f -> %.3f", fromFPS, toFPS)
	}
	ratio := fromFPS / toFPS
	for i := range sub.Cues {
		sub.Cues[i].Start = clampNonNegative(scaleDuration(sub.Cues[i].Start, ratio))
		sub.Cues[i].End = clampNonNegative(scaleDuration(sub.Cues[i].End, ratio))
	}
	return nil
}

func scaleDuration(d time.Duration, ratio float64) time.Duration {
	return time.Duration(float64(d) * ratio)
}

// Scale multiplies every cue's timestamps by factor, rounding to the
// nearest nanosecond rather than truncating. It is the building block for
// arbitrary speed adjustments (e.g. "speed this track up by 4%"), distinct
// from TransformFramerate's fromFPS/toFPS ratio framing even though both
// ultimately rescale durations.
func Scale(sub *Subtitle, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("subtitle: invalid scale factor %.4f", factor)
	}
	for i := range sub.Cues {
		sub.Cues[i].Start = clampNonNegative(roundDuration(sub.Cues[i].Start, factor))
		sub.Cues[i].End = clampNonNegative(roundDuration(sub.Cues[i].End, factor))
	}
	return nil
}

func roundDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(math.Round(float64(d) * factor))
}

// StyleClass classifies what a style is used for, distinguishing ordinary
// spoken dialogue from on-screen signs/text overlays and song lyrics.
type StyleClass string

const (
	StyleClassDialog StyleClass = "dialog"
	StyleClassSigns  StyleClass = "signs"
	StyleClassSongs  StyleClass = "songs"
)

// ClassifyStyles heuristically buckets every named style in sub into
// dialog, signs, or songs, by scanning the style name itself and, failing
// a name match, the text of cues using that style. Styles with no cues and
// no recognizable name default to dialog, the overwhelmingly common case.
func ClassifyStyles(sub *Subtitle) map[string]StyleClass {
	out := make(map[string]StyleClass, len(sub.Styles))
	cuesByStyle := make(map[string][]Cue)
	for _, c := range sub.Cues {
		cuesByStyle[c.Style] = append(cuesByStyle[c.Style], c)
	}

	for _, st := range sub.Styles {
		out[st.Name] = classifyStyleName(st.Name)
		if out[st.Name] == StyleClassDialog {
			if cls, ok := classifyStyleCues(cuesByStyle[st.Name]); ok {
				out[st.Name] = cls
			}
		}
	}
	return out
}

func classifyStyleName(name string) StyleClass {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "song"), strings.Contains(lower, "lyric"):
		return StyleClassSongs
	case strings.Contains(lower, "sign"), strings.Contains(lower, "op"), strings.Contains(lower, "ed"), strings.Contains(lower, "title"):
		return StyleClassSigns
	default:
		return StyleClassDialog
	}
}

// classifyStyleCues falls back to scanning cue text for markers a named
// style didn't reveal: italic/{\i1} runs without quotes often carry song
// lyrics, and very short cue counts with heavy formatting tags suggest
// on-screen text rather than spoken dialogue.
func classifyStyleCues(cues []Cue) (StyleClass, bool) {
	if len(cues) == 0 {
		return StyleClassDialog, false
	}
	tagged := 0
	for _, c := range cues {
		if strings.Contains(c.Text, "\\i1") || strings.Contains(c.Text, "\\k") {
			tagged++
		}
	}
	if float64(tagged)/float64(len(cues)) > 0.5 {
		return StyleClassSongs, true
	}
	return StyleClassDialog, false
}
