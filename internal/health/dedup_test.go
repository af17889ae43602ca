package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(dir, "sublarr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestContentHashNormalizesCRLFAndWhitespace(t *testing.T) {
	a := ContentHash([]byte("1\r\nhello\r\n"))
	b := ContentHash([]byte("1\nhello\n"))
	assert.Equal(t, a, b)
}

func TestDedupScanAndDuplicateGroups(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hashes := store.NewHashRepository(db.Connection())
	dedup := NewDedup(hashes)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.srt"), []byte("1\nhello\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.srt"), []byte("1\r\nhello\r\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.srt"), []byte("1\ndifferent\n"), 0o644))

	require.NoError(t, dedup.Scan(ctx, []string{root}))

	groups, err := dedup.DuplicateGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Files, 2)
}

func TestDeleteDuplicatesRejectsIncompleteDecisions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hashes := store.NewHashRepository(db.Connection())
	dedup := NewDedup(hashes)

	root := t.TempDir()
	pathA := filepath.Join(root, "a.srt")
	pathB := filepath.Join(root, "b.srt")
	require.NoError(t, os.WriteFile(pathA, []byte("1\nhello\n"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("1\nhello\n"), 0o644))
	require.NoError(t, dedup.Scan(ctx, []string{root}))

	groups, err := dedup.DuplicateGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	err = dedup.DeleteDuplicates(ctx, groups, nil)
	assert.Error(t, err, "missing keep decision must block deletion of every group")

	_, statErrA := os.Stat(pathA)
	_, statErrB := os.Stat(pathB)
	assert.NoError(t, statErrA, "no file should be deleted when validation fails")
	assert.NoError(t, statErrB, "no file should be deleted when validation fails")
}

func TestDeleteDuplicatesKeepsSelectedFile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hashes := store.NewHashRepository(db.Connection())
	dedup := NewDedup(hashes)

	root := t.TempDir()
	pathA := filepath.Join(root, "a.srt")
	pathB := filepath.Join(root, "b.srt")
	require.NoError(t, os.WriteFile(pathA, []byte("1\nhello\n"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("1\nhello\n"), 0o644))
	require.NoError(t, dedup.Scan(ctx, []string{root}))

	groups, err := dedup.DuplicateGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	err = dedup.DeleteDuplicates(ctx, groups, []GroupDecision{{ContentHash: groups[0].ContentHash, Keep: pathA}})
	require.NoError(t, err)

	_, statErrA := os.Stat(pathA)
	_, statErrB := os.Stat(pathB)
	assert.NoError(t, statErrA)
	assert.True(t, os.IsNotExist(statErrB))
}

func TestOrphansFlagsSubtitleWithNoSiblingVideo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hashes := store.NewHashRepository(db.Connection())
	dedup := NewDedup(hashes)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "show.s01e01.mkv"), []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "show.s01e01.eng.srt"), []byte("1\nhi\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "orphan.eng.srt"), []byte("1\nbye\n"), 0o644))
	require.NoError(t, dedup.Scan(ctx, []string{root}))

	orphans, err := dedup.Orphans(ctx, []string{root})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Contains(t, orphans[0].FilePath, "orphan")
}
