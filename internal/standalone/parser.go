// Package standalone implements the filesystem watcher and full-tree
// scanner used when Sublarr manages a directory directly instead of through
// a library-manager collaborator: event-driven + periodic-rescan file
// discovery, pure-Go filename parsing, anime detection, and metadata
// resolver ordering.
package standalone

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedName is the pure-Go equivalent of a release-name parse: the fields
// the scanner needs to group files into series/movies and hand off to a
// metadata resolver. It deliberately covers a subset of what a full release
// parser could extract — only what downstream grouping and resolution use.
type ParsedName struct {
	Title      string
	Year       int
	Season     int
	Episode    int
	IsMovie    bool
	Group      string
	IsAnime    bool
	Resolution string
}

var (
	yearRe       = regexp.MustCompile(`[.\s\(\[]((?:19|20)\d{2})[.\s\)\]]`)
	seasonEpRe   = regexp.MustCompile(`(?i)[sS](\d{1,2})[eE](\d{1,3})`)
	absoluteEpRe = regexp.MustCompile(`(?i)[-_\s](?:e|ep|episode)?\s*(\d{2,4})\s*$`)
	bracketRe    = regexp.MustCompile(`\[([^\]]+)\]`)
	crc32Re      = regexp.MustCompile(`\[([0-9A-Fa-f]{8})\]`)
	resolutionRe = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p)\b`)
)

// ParseFilename extracts a ParsedName from a release filename. When
// preferAbsoluteEpisode is set (driven by an anime determination upstream),
// a bare absolute-episode number is accepted in place of a season/episode
// pair, matching how anime releases are usually named ("Series - 143.mkv").
func ParseFilename(name string, preferAbsoluteEpisode bool) ParsedName {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	normalized := strings.ReplaceAll(base, "_", " ")

	p := ParsedName{}

	if m := resolutionRe.FindString(normalized); m != "" {
		p.Resolution = strings.ToLower(m)
	}

	if groups := bracketRe.FindAllStringSubmatch(normalized, -1); len(groups) > 0 {
		p.Group = strings.TrimSpace(groups[0][1])
	}

	if m := seasonEpRe.FindStringSubmatch(normalized); m != nil {
		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])
		p.Season, p.Episode = season, episode
		p.Title = strings.TrimSpace(normalized[:strings.Index(normalized, m[0])])
	} else if preferAbsoluteEpisode {
		if m := absoluteEpRe.FindStringSubmatch(normalized); m != nil {
			episode, _ := strconv.Atoi(m[1])
			p.Season = 1
			p.Episode = episode
			p.Title = strings.TrimSpace(normalized[:strings.Index(normalized, m[0])])
		}
	}

	if p.Title == "" {
		if m := yearRe.FindStringSubmatchIndex(normalized); m != nil {
			p.Title = strings.TrimSpace(normalized[:m[0]])
			p.IsMovie = p.Episode == 0
		}
	}

	if m := yearRe.FindStringSubmatch(normalized); m != nil {
		year, _ := strconv.Atoi(m[1])
		p.Year = year
	}

	if p.Title == "" {
		p.Title = cleanTitle(normalized)
	} else {
		p.Title = cleanTitle(p.Title)
	}

	if p.Episode == 0 && p.Season == 0 {
		p.IsMovie = true
	}

	return p
}

var titleNoiseRe = regexp.MustCompile(`[._]+`)

func cleanTitle(s string) string {
	s = titleNoiseRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParentDirectoryTitle supplies a title fallback from the immediate parent
// directory name, used when the filename itself yields no usable title
// (common for single-file releases dropped into a pre-named show folder).
func ParentDirectoryTitle(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	dir = strings.ReplaceAll(dir, ".", " ")
	return cleanTitle(dir)
}

// NormalizedGroupKey is the (title, year) grouping key standalone files are
// bucketed by so that sibling episodes resolve to the same series.
func NormalizedGroupKey(title string, year int) string {
	key := strings.ToLower(strings.Join(strings.Fields(title), " "))
	if year > 0 {
		key += "|" + strconv.Itoa(year)
	}
	return key
}

// hasCRC32Infix reports whether name carries a bracketed 8-hex-digit CRC32
// tag, a strong anime-release indicator (e.g. "[A1B2C3D4]").
func hasCRC32Infix(name string) bool {
	return crc32Re.MatchString(name)
}
