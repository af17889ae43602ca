package subtitle

import (
	"fmt"
	"strings"
	"time"
)

const (
	sectionScriptInfo = "[script info]"
	sectionStyles     = "[v4+ styles]"
	sectionStylesV4   = "[v4 styles]"
	sectionEvents     = "[events]"
)

// parseASS parses the [Script Info], [V4(+) Styles] and [Events] sections.
// Everything outside of [Events] is kept close to verbatim (joined back on
// serialize) since Sublarr only ever mutates timing and, occasionally,
// per-cue style assignment.
func parseASS(data string) (*Subtitle, error) {
	sub := &Subtitle{Format: FormatASS}

	var scriptInfo strings.Builder
	section := ""
	var eventsFormat []string

	lines := strings.Split(data, "\n")
	for _, raw := range lines {
		line := raw
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = lower
			if section == sectionScriptInfo {
				scriptInfo.WriteString(line)
				scriptInfo.WriteString("\n")
			}
			continue
		}

		switch section {
		case sectionScriptInfo:
			scriptInfo.WriteString(line)
			scriptInfo.WriteString("\n")
		case sectionStyles, sectionStylesV4:
			if strings.HasPrefix(trimmed, "Style:") {
				fields := splitASSFields(strings.TrimPrefix(trimmed, "Style:"))
				if len(fields) > 0 {
					sub.Styles = append(sub.Styles, StyleDef{Name: strings.TrimSpace(fields[0]), Fields: fields})
				}
			}
		case sectionEvents:
			if strings.HasPrefix(trimmed, "Format:") {
				eventsFormat = splitASSFields(strings.TrimPrefix(trimmed, "Format:"))
				for i := range eventsFormat {
					eventsFormat[i] = strings.TrimSpace(eventsFormat[i])
				}
			} else if strings.HasPrefix(trimmed, "Dialogue:") {
				cue, err := parseASSDialogue(strings.TrimPrefix(trimmed, "Dialogue:"), eventsFormat, len(sub.Cues)+1)
				if err != nil {
					return nil, err
				}
				sub.Cues = append(sub.Cues, cue)
			}
		}
	}

	sub.ScriptInfo = strings.TrimRight(scriptInfo.String(), "\n")
	return sub, nil
}

// splitASSFields splits a comma-separated ASS line on every comma. It is used
// for Format and Style lines; Dialogue lines, whose Text field may contain
// commas, are split by parseASSDialogue instead.
func splitASSFields(s string) []string {
	return strings.Split(s, ",")
}

func parseASSDialogue(s string, format []string, index int) (Cue, error) {
	textFieldIdx := indexOf(format, "Text")
	if textFieldIdx < 0 {
		textFieldIdx = 9 // standard ASS Dialogue layout
	}
	parts := strings.SplitN(s, ",", textFieldIdx+1)
	if len(parts) < textFieldIdx+1 {
		return Cue{}, fmt.Errorf("subtitle: malformed ass dialogue line")
	}

	cue := Cue{Index: index}
	for i, name := range format {
		if i >= len(parts) {
			break
		}
		val := strings.TrimSpace(parts[i])
		switch name {
		case "Start":
			d, err := parseASSTimestamp(val)
			if err != nil {
				return Cue{}, err
			}
			cue.Start = d
		case "End":
			d, err := parseASSTimestamp(val)
			if err != nil {
				return Cue{}, err
			}
			cue.End = d
		case "Style":
			cue.Style = val
		case "Text":
			cue.Text = val
		}
	}
	return cue, nil
}

func indexOf(ss []string, target string) int {
	for i, s := range ss {
		if strings.EqualFold(strings.TrimSpace(s), target) {
			return i
		}
	}
	return -1
}

// parseASSTimestamp parses H:MM:SS.cc (ASS uses centisecond precision).
func parseASSTimestamp(s string) (time.Duration, error) {
	var h, m, cs int
	var sec float64
	n, err := fmt.Sscanf(s, "%d:%d:%f", &h, &m, &sec)
	if err != nil || n != 3 {
		return 0, fmt.Errorf("subtitle: malformed ass timestamp %q", s)
	}
	cs = int((sec - float64(int(sec))) * 100)
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(int(sec))*time.Second + time.Duration(cs)*10*time.Millisecond
	return total, nil
}

func formatASSTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	cs := d / (10 * time.Millisecond)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func serializeASS(sub *Subtitle) []byte {
	var b strings.Builder

	if sub.ScriptInfo != "" {
		b.WriteString(sub.ScriptInfo)
		b.WriteString("\n\n")
	} else {
		b.WriteString("[Script Info]\n\n")
	}

	if len(sub.Styles) > 0 {
		b.WriteString("[V4+ Styles]\n")
		b.WriteString("Format: " + strings.Join(styleFormatHeader(), ", ") + "\n")
		for _, st := range sub.Styles {
			b.WriteString("Style: " + strings.Join(st.Fields, ",") + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, cue := range sub.Cues {
		style := cue.Style
		if style == "" {
			style = "Default"
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			formatASSTimestamp(cue.Start), formatASSTimestamp(cue.End), style, cue.Text)
	}

	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

// styleFormatHeader returns the canonical ASS v4+ style field names; real
// style lines are re-emitted with however many fields they were parsed with,
// so this header is informational only.
func styleFormatHeader() []string {
	return []string{
		"Name", "Fontname", "Fontsize", "PrimaryColour", "SecondaryColour",
		"OutlineColour", "BackColour", "Bold", "Italic", "Underline",
		"StrikeOut", "ScaleX", "ScaleY", "Spacing", "Angle", "BorderStyle",
		"Outline", "Shadow", "Alignment", "MarginL", "MarginR", "MarginV", "Encoding",
	}
}

// DetectForcedStyleHint is the lowest-priority signal in the forced-subtitle
// classification chain: it scans style names for a "forced" marker. The
// wanted package's classifier consults an explicit subtitle type and a
// release-name marker first and falls back to this scan; stream titles and
// disposition bits are not consulted.
func DetectForcedStyleHint(sub *Subtitle) bool {
	for _, st := range sub.Styles {
		if strings.Contains(strings.ToLower(st.Name), "forced") {
			return true
		}
	}
	for _, c := range sub.Cues {
		if strings.Contains(strings.ToLower(c.Style), "forced") {
			return true
		}
	}
	return false
}
