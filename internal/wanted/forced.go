package wanted

import (
	"regexp"
	"strings"

	"github.com/Abrechen2/sublarr-sub006/internal/provider"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

// forcedMarkerPattern matches the filename and release-info infixes release
// groups use to mark a forced or signs/songs-only track. It deliberately
// covers both "forced" and the anime-world "signs"/"songs" convention, since
// spec.md treats both as the item's subtitle_type ∈ {forced, signs}.
var forcedMarkerPattern = regexp.MustCompile(`(?i)\b(forced|signs([._ -]?(and|&)?[._ -]?songs)?|sdh[._ -]?forced)\b`)

// classifyForced decides whether a candidate is a forced/signs-only track,
// applying the priority chain spec.md lays out for component D: an explicit
// subtitle_type on the candidate (sourced from provider-reported disposition
// or release metadata) wins outright; failing that, the release-info/
// filename marker; failing that, an ASS style-name scan once the content has
// been downloaded and parsed. ffprobe stream disposition, the chain's
// highest-priority signal, isn't available here — providers never hand back
// a raw media file, only the subtitle — so it's sourced instead from
// whatever the provider itself classified on the candidate.
func classifyForced(candidate provider.Candidate, parsed *subtitle.Subtitle) bool {
	if candidate.SubtitleType != "" {
		return isForcedSubtitleType(candidate.SubtitleType)
	}
	if forcedMarkerPattern.MatchString(candidate.ReleaseInfo) {
		return true
	}
	if parsed != nil && parsed.Format == subtitle.FormatASS {
		return subtitle.DetectForcedStyleHint(parsed)
	}
	return false
}

func isForcedSubtitleType(t string) bool {
	return strings.EqualFold(t, "forced") || strings.EqualFold(t, "signs")
}

// subtitleTypeMatches reports whether candidate's classified subtitle_type
// agrees with the wanted item's. wantForced is true when the item's
// subtitle_type is "forced" or "signs" (provider.VideoQuery.ForcedOnly);
// candidates that disagree are dropped in the searcher's filter step,
// before any content has been downloaded, so parsed is nil at that point —
// classifyForced falls through to the release-info marker only.
func subtitleTypeMatches(candidate provider.Candidate, wantForced bool, parsed *subtitle.Subtitle) bool {
	return classifyForced(candidate, parsed) == wantForced
}
