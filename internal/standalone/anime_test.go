package standalone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAnimeKnownFansubGroup(t *testing.T) {
	assert.True(t, IsAnime("[SubsPlease] Series Name - 143.mkv"))
}

func TestIsAnimeCRC32Infix(t *testing.T) {
	assert.True(t, IsAnime("Series.Name.S01E02.[1A2B3C4D].mkv"))
}

func TestIsAnimeUnknownBracketBeforeSeasonMarkerIsStillASignal(t *testing.T) {
	assert.True(t, IsAnime("[UnknownGroup] Series Name - 143.mkv"))
}

func TestIsAnimeBareAbsoluteEpisodeWithoutSeasonMarker(t *testing.T) {
	assert.True(t, IsAnime("Series Name - 143.mkv"))
}

func TestIsAnimeFalseForOrdinaryWesternRelease(t *testing.T) {
	assert.False(t, IsAnime("The.Show.Name.S02E05.1080p.WEB.mkv"))
}

func TestPromoteFromMetadataRequiresBothAnimationAndJapaneseOrigin(t *testing.T) {
	assert.True(t, PromoteFromMetadata([]string{"Animation", "Comedy"}, "JP"))
	assert.False(t, PromoteFromMetadata([]string{"Animation"}, "US"))
	assert.False(t, PromoteFromMetadata([]string{"Comedy"}, "JP"))
}
