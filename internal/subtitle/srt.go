package subtitle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseSRT parses the classic numbered-block SRT syntax:
//
//	1
//	00:00:01,000 --> 00:00:04,000
//	Line one
//	Line two
func parseSRT(data string) (*Subtitle, error) {
	sub := &Subtitle{Format: FormatSRT}
	blocks := strings.Split(strings.Trim(data, "\n"), "\n\n")
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			continue
		}

		idxLine := 0
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			// Tolerate missing/garbled index lines by falling back to
			// positional numbering; the timing line still anchors the block.
			index = len(sub.Cues) + 1
			idxLine = -1
		}
		timingLineIdx := 1
		if idxLine == -1 {
			timingLineIdx = 0
		}
		if timingLineIdx >= len(lines) {
			continue
		}
		start, end, err := parseSRTTiming(lines[timingLineIdx])
		if err != nil {
			return nil, fmt.Errorf("subtitle: srt block %d: %w", index, err)
		}
		text := strings.Join(lines[timingLineIdx+1:], "\n")
		sub.Cues = append(sub.Cues, Cue{Index: index, Start: start, End: end, Text: text})
	}
	return sub, nil
}

func parseSRTTiming(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timing line %q", line)
	}
	start, err := parseSRTTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := parseSRTTimestamp(strings.TrimSpace(strings.Fields(parts[1])[0]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseSRTTimestamp parses HH:MM:SS,mmm (comma or period millisecond separator).
func parseSRTTimestamp(s string) (time.Duration, error) {
	s = strings.ReplaceAll(s, ",", ".")
	var h, m int
	var sec float64
	n, err := fmt.Sscanf(s, "%d:%d:%f", &h, &m, &sec)
	if err != nil || n != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec*float64(time.Second))
	return total, nil
}

func formatSRTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func serializeSRT(sub *Subtitle) []byte {
	var b strings.Builder
	for i, cue := range sub.Cues {
		index := cue.Index
		if index == 0 {
			index = i + 1
		}
		fmt.Fprintf(&b, "%d\n", index)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTimestamp(cue.Start), formatSRTTimestamp(cue.End))
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}
