package standalone

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
)

type fakeResolver struct {
	name    string
	err     error
	reply   collab.MediaItem
	calls   int
}

func (f *fakeResolver) Name() string { return f.name }

func (f *fakeResolver) Resolve(ctx context.Context, item collab.MediaItem) (collab.MediaItem, error) {
	f.calls++
	if f.err != nil {
		return collab.MediaItem{}, f.err
	}
	return f.reply, nil
}

func TestResolverChainUsesAnimeOrderWhenFlagged(t *testing.T) {
	anilist := &fakeResolver{name: "anilist", reply: collab.MediaItem{Title: "Resolved Anime"}}
	tmdb := &fakeResolver{name: "tmdb", reply: collab.MediaItem{Title: "Resolved TMDB"}}
	chain := NewResolverChain([]collab.MetadataResolver{anilist}, []collab.MetadataResolver{tmdb})

	got, err := chain.Resolve(context.Background(), collab.MediaItem{Title: "Series Name"}, true)
	require.NoError(t, err)
	assert.Equal(t, "Resolved Anime", got.Title)
	assert.Equal(t, 0, tmdb.calls, "the general chain must not be consulted when isAnime is true")
}

func TestResolverChainFallsThroughOnError(t *testing.T) {
	tmdb := &fakeResolver{name: "tmdb", err: fmt.Errorf("not found")}
	tvdb := &fakeResolver{name: "tvdb", reply: collab.MediaItem{Title: "Resolved TVDB"}}
	chain := NewResolverChain(nil, []collab.MetadataResolver{tmdb, tvdb})

	got, err := chain.Resolve(context.Background(), collab.MediaItem{Title: "Series Name"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Resolved TVDB", got.Title)
}

func TestResolverChainPromotesAnimeFromMetadataHeuristic(t *testing.T) {
	tmdb := &fakeResolver{name: "tmdb", reply: collab.MediaItem{
		Title: "Promoted Show", Genres: []string{"Animation"}, OriginCountry: "JP",
	}}
	chain := NewResolverChain(nil, []collab.MetadataResolver{tmdb})

	got, err := chain.Resolve(context.Background(), collab.MediaItem{Title: "Series Name"}, false)
	require.NoError(t, err)
	assert.True(t, got.IsAnime, "Animation genre + JP origin must retroactively promote to anime")
}
