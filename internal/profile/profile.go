// Package profile implements the language-profile policy: a pure function
// that computes the set of (language, subtitle_type) tracks a media item
// requires, given its language profile.
package profile

// SubtitleType distinguishes a full dialogue track from a forced-only or
// signs/songs (non-dialog on-screen text) track. Hearing-impaired (SDH) is
// not a fourth subtitle_type: it is an orthogonal per-track flag (see
// RequiredTrack.HearingImpaired), set from the profile's hearing_impaired
// language flag, and surfaces as the `.sdh.` filename infix at write time.
type SubtitleType string

const (
	SubtitleTypeFull   SubtitleType = "full"
	SubtitleTypeForced SubtitleType = "forced"
	SubtitleTypeSigns  SubtitleType = "signs"
)

// ForcedPreference controls how a language requirement expands into forced
// tracks alongside (or instead of) the full track.
type ForcedPreference string

const (
	// ForcedDisabled requests only the full track.
	ForcedDisabled ForcedPreference = "disabled"
	// ForcedSeparate always requests both the full and the forced track.
	ForcedSeparate ForcedPreference = "separate"
	// ForcedAuto requests the forced track in addition to the full track
	// only when the media item's original language differs from the
	// requirement's language (i.e. the audience is assumed to need forced
	// foreign-dialogue subtitles on top of a full native track).
	ForcedAuto ForcedPreference = "auto"
)

// LanguageRequirement is one entry of a LanguageProfile: a target language
// plus how forced tracks and hearing-impaired alignment should be handled
// for it.
type LanguageRequirement struct {
	Language         string
	Enabled          bool
	ForcedPreference ForcedPreference
	HearingImpaired  bool // require/prefer a hearing-impaired (SDH) track
}

// LanguageProfile groups the language requirements applied to media items
// that are assigned to it, plus the score thresholds the searcher gates
// candidate acceptance on.
type LanguageProfile struct {
	ID            int64
	Name          string
	Requirements  []LanguageRequirement
	CutoffOnFirst bool // stop searching once the first requirement is satisfied

	// AcceptanceThreshold is the minimum scorer score a candidate must reach
	// to be admitted at all.
	AcceptanceThreshold int
	// UpgradeMargin is how much higher than an existing track's score a new
	// candidate must score before it replaces it (upgrade-candidate items only).
	UpgradeMargin int
}

// MediaItem is the minimal view of a media item the policy needs: its
// original spoken language, used by ForcedAuto to detect foreign dialogue.
type MediaItem struct {
	OriginalLanguage string
}

// RequiredTrack is one (language, subtitle_type) tuple a media item needs
// under its assigned profile, with HearingImpaired carried alongside as an
// orthogonal alignment flag rather than a distinct subtitle_type.
type RequiredTrack struct {
	Language        string
	SubtitleType    SubtitleType
	HearingImpaired bool
}

// RequiredTracks is the pure policy function: given a media item and its
// language profile, it returns every (language, subtitle_type) tuple that
// must exist for the item to be considered satisfied. It has no side
// effects and performs no I/O.
func RequiredTracks(item MediaItem, prof LanguageProfile) []RequiredTrack {
	var out []RequiredTrack
	for _, req := range prof.Requirements {
		if !req.Enabled {
			continue
		}
		out = append(out, tracksForRequirement(item, req)...)
	}
	return out
}

func tracksForRequirement(item MediaItem, req LanguageRequirement) []RequiredTrack {
	isForeign := item.OriginalLanguage != "" && item.OriginalLanguage != req.Language
	full := RequiredTrack{Language: req.Language, SubtitleType: SubtitleTypeFull, HearingImpaired: req.HearingImpaired}

	switch req.ForcedPreference {
	case ForcedSeparate:
		return []RequiredTrack{full, {Language: req.Language, SubtitleType: SubtitleTypeForced}}
	case ForcedAuto:
		if isForeign {
			return []RequiredTrack{full, {Language: req.Language, SubtitleType: SubtitleTypeForced}}
		}
		return []RequiredTrack{full}
	case ForcedDisabled, "":
		return []RequiredTrack{full}
	}
	return []RequiredTrack{full}
}
