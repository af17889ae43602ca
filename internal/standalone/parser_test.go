package standalone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilenameSeasonEpisode(t *testing.T) {
	p := ParseFilename("The.Show.Name.S02E05.1080p.mkv", false)
	assert.Equal(t, "The Show Name", p.Title)
	assert.Equal(t, 2, p.Season)
	assert.Equal(t, 5, p.Episode)
	assert.Equal(t, "1080p", p.Resolution)
	assert.False(t, p.IsMovie)
}

func TestParseFilenameMovieWithYear(t *testing.T) {
	p := ParseFilename("Arrival.2016.1080p.BluRay.mkv", false)
	assert.Equal(t, "Arrival", p.Title)
	assert.Equal(t, 2016, p.Year)
	assert.True(t, p.IsMovie)
}

func TestParseFilenamePrefersAbsoluteEpisodeForAnime(t *testing.T) {
	p := ParseFilename("[SubsPlease] Series Name - 143.mkv", true)
	assert.Equal(t, 143, p.Episode)
	assert.Equal(t, 1, p.Season)
	assert.Equal(t, "SubsPlease", p.Group)
}

func TestParentDirectoryTitleFallback(t *testing.T) {
	title := ParentDirectoryTitle("/media/Some.Show.Name/episode01.mkv")
	assert.Equal(t, "Some Show Name", title)
}

func TestNormalizedGroupKeyIgnoresCaseAndSpacing(t *testing.T) {
	a := NormalizedGroupKey("The  Show", 2020)
	b := NormalizedGroupKey("the show", 2020)
	assert.Equal(t, a, b)

	c := NormalizedGroupKey("The Show", 0)
	assert.NotEqual(t, a, c, "a missing year must not collide with a group that has one")
}
