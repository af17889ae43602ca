package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDB(Config{DatabasePath: filepath.Join(dir, "sublarr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWantedItemUniquenessAndTransitions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewWantedRepository(db.Connection())

	item := &WantedItem{FilePath: "/media/show/s01e01.mkv", TargetLanguage: "eng", SubtitleType: "full"}
	require.NoError(t, repo.UpsertWantedItem(ctx, item))
	require.NotZero(t, item.ID)

	dup := &WantedItem{FilePath: "/media/show/s01e01.mkv", TargetLanguage: "eng", SubtitleType: "full"}
	require.NoError(t, repo.UpsertWantedItem(ctx, dup))
	assert.Equal(t, item.ID, dup.ID, "duplicate (file_path, language, subtitle_type) must resolve to the same row")

	require.NoError(t, repo.TransitionStatus(ctx, item.ID, []WantedStatus{StatusWanted}, StatusSearching))
	err := repo.TransitionStatus(ctx, item.ID, []WantedStatus{StatusWanted}, StatusSearching)
	assert.ErrorIs(t, err, ErrNotClaimed, "a second claim attempt from the same source status must lose the race")

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSearching, got.Status)
	assert.NotNil(t, got.ClaimedAt)
}

func TestTranslationMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTranslationMemoryRepository(db.Connection())

	entry := TranslationMemoryEntry{SourceLang: "eng", TargetLang: "spa", TextHash: "abc123", SourceText: "hello", TranslatedText: "hola"}
	require.NoError(t, repo.Upsert(ctx, entry))

	got, err := repo.Lookup(ctx, "eng", "spa", "abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hola", got.TranslatedText)

	miss, err := repo.Lookup(ctx, "eng", "spa", "doesnotexist")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestHashRepositoryDuplicateGroups(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewHashRepository(db.Connection())

	require.NoError(t, repo.Upsert(ctx, SubtitleContentHash{FilePath: "/a.srt", ContentHash: "same", SizeBytes: 10}))
	require.NoError(t, repo.Upsert(ctx, SubtitleContentHash{FilePath: "/b.srt", ContentHash: "same", SizeBytes: 10}))
	require.NoError(t, repo.Upsert(ctx, SubtitleContentHash{FilePath: "/c.srt", ContentHash: "unique", SizeBytes: 5}))

	groups, err := repo.DuplicateGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "same", groups[0].ContentHash)
	assert.Len(t, groups[0].Files, 2)
}
