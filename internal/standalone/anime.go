package standalone

import (
	"regexp"
	"strings"
)

// knownFansubGroups is a small seed list of long-running fansub groups;
// matching a bracketed prefix against this list is one of several anime
// indicators, never the sole signal.
var knownFansubGroups = map[string]bool{
	"subsplease": true, "erai-raws": true, "horriblesubs": true,
	"judas": true, "asw": true, "ember": true,
}

var absoluteEpisodeOnlyRe = regexp.MustCompile(`(?i)(?:^|[\s._-])(\d{2,3})(?:[\s._-]|$)`)

// IsAnime runs the detection pipeline described for the standalone scanner:
// a known-group bracketed prefix, a CRC32 infix, a bare absolute-episode
// number (no season marker at all), or any other non-CRC32 bracketed prefix
// in a name without a season marker each count as a positive signal; any one
// of them is enough.
func IsAnime(name string) bool {
	if groups := bracketRe.FindAllStringSubmatch(name, -1); len(groups) > 0 {
		prefix := strings.ToLower(strings.TrimSpace(groups[0][1]))
		if knownFansubGroups[prefix] {
			return true
		}
		if len(groups) > 0 && groups[0][1] != "" && !crc32Re.MatchString("["+groups[0][1]+"]") {
			// A bracketed prefix that isn't a CRC32 tag is still a signal once
			// it appears before any season marker, which is the fansub-naming
			// convention ("[Group] Series - 01.mkv").
			if !seasonEpRe.MatchString(name) {
				return true
			}
		}
	}
	if hasCRC32Infix(name) {
		return true
	}
	if !seasonEpRe.MatchString(name) && absoluteEpisodeOnlyRe.MatchString(name) {
		return true
	}
	return false
}

// PromoteFromMetadata applies the TMDB-sourced retroactive anime heuristic:
// Animation genre plus Japanese origin country promotes a title that wasn't
// otherwise flagged anime by filename signals alone.
func PromoteFromMetadata(genres []string, originCountry string) bool {
	isJapanese := strings.EqualFold(originCountry, "JP")
	if !isJapanese {
		return false
	}
	for _, g := range genres {
		if strings.EqualFold(g, "Animation") {
			return true
		}
	}
	return false
}
