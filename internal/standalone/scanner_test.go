package standalone

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

type fakeSource struct {
	files map[string][]string // root -> file paths
}

func (f *fakeSource) Watch(ctx context.Context, paths []string) (<-chan collab.FileEvent, error) {
	ch := make(chan collab.FileEvent)
	close(ch)
	return ch, nil
}

func (f *fakeSource) Walk(ctx context.Context, root string) ([]string, error) {
	return f.files[root], nil
}

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(dir, "sublarr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestScannerGroupsSiblingEpisodesIntoOneSeries(t *testing.T) {
	db := newTestDB(t)
	media := store.NewStandaloneRepository(db.Connection())
	tmdb := &fakeResolver{name: "tmdb", reply: collab.MediaItem{Title: "The Show Name"}}
	resolver := NewResolverChain(nil, []collab.MetadataResolver{tmdb})

	src := &fakeSource{files: map[string][]string{
		"/library": {
			"/library/The.Show.Name.S01E01.1080p.mkv",
			"/library/The.Show.Name.S01E02.1080p.mkv",
		},
	}}

	scanner := NewScanner(src, media, resolver, 2)
	items, err := scanner.Scan(context.Background(), []string{"/library"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "The Show Name", items[0].Title)
	assert.Equal(t, "The Show Name", items[1].Title)

	got, err := media.Get(context.Background(), store.StandaloneSeries, NormalizedGroupKey("The Show Name", 0), 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "The Show Name", got.Title)
}

func TestScannerSeparatesDifferentSeriesByGroupKey(t *testing.T) {
	db := newTestDB(t)
	media := store.NewStandaloneRepository(db.Connection())
	tmdb := &fakeResolver{name: "tmdb", reply: collab.MediaItem{Title: "Resolved"}}
	resolver := NewResolverChain(nil, []collab.MetadataResolver{tmdb})

	src := &fakeSource{files: map[string][]string{
		"/library": {
			"/library/Show.One.S01E01.mkv",
			"/library/Show.Two.S01E01.mkv",
		},
	}}

	scanner := NewScanner(src, media, resolver, 2)
	items, err := scanner.Scan(context.Background(), []string{"/library"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
