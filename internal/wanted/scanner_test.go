package wanted

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
	"github.com/Abrechen2/sublarr-sub006/internal/profile"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

type fakeLibrary struct {
	items []collab.MediaItem
}

func (f *fakeLibrary) ListAllItems(ctx context.Context) ([]collab.MediaItem, error) {
	return f.items, nil
}

func (f *fakeLibrary) ListChangedSince(ctx context.Context, since time.Time) ([]collab.MediaItem, bool, error) {
	return nil, false, nil
}

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewDB(store.Config{DatabasePath: filepath.Join(dir, "sublarr.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func englishFullProfile(t *testing.T, profileRepo *store.ProfileRepository) int64 {
	t.Helper()
	id, err := profileRepo.Create(context.Background(), profile.LanguageProfile{
		Name: "English",
		Requirements: []profile.LanguageRequirement{
			{Language: "eng", Enabled: true, ForcedPreference: profile.ForcedDisabled},
		},
		AcceptanceThreshold: 60,
		UpgradeMargin:       10,
	})
	require.NoError(t, err)
	return id
}

func profileWithThresholds(acceptance, upgradeMargin int) profile.LanguageProfile {
	return profile.LanguageProfile{
		Name: "Test",
		Requirements: []profile.LanguageRequirement{
			{Language: "eng", Enabled: true, ForcedPreference: profile.ForcedDisabled},
		},
		AcceptanceThreshold: acceptance,
		UpgradeMargin:       upgradeMargin,
	}
}

func TestScannerCreatesWantedItemsFromLibrary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	wantedRepo := store.NewWantedRepository(db.Connection())
	profileRepo := store.NewProfileRepository(db.Connection())
	downloadRepo := store.NewDownloadRepository(db.Connection())

	profileID := englishFullProfile(t, profileRepo)
	lib := &fakeLibrary{items: []collab.MediaItem{
		{FilePath: "/media/movie.mkv", Title: "A Movie", Year: 2020, ProfileID: profileID},
	}}

	s := NewScanner(wantedRepo, profileRepo, downloadRepo, lib, func(collab.MediaItem, profile.RequiredTrack) bool { return false }, 1, 100)
	require.NoError(t, s.Reconcile(ctx))

	items, err := wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "eng", items[0].TargetLanguage)
	assert.Equal(t, store.StatusWanted, items[0].Status)
	assert.Equal(t, "A Movie", items[0].MediaTitle)
}

func TestScannerUpdatesObservedStateOnRescan(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	wantedRepo := store.NewWantedRepository(db.Connection())
	profileRepo := store.NewProfileRepository(db.Connection())
	downloadRepo := store.NewDownloadRepository(db.Connection())

	profileID := englishFullProfile(t, profileRepo)
	lib := &fakeLibrary{items: []collab.MediaItem{
		{FilePath: "/media/movie.mkv", Title: "Old Title", Year: 2019, ProfileID: profileID},
	}}
	s := NewScanner(wantedRepo, profileRepo, downloadRepo, lib, func(collab.MediaItem, profile.RequiredTrack) bool { return false }, 1, 100)
	require.NoError(t, s.Reconcile(ctx))

	items, err := wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	firstID := items[0].ID

	lib.items[0].Title = "New Title"
	lib.items[0].Year = 2020
	require.NoError(t, s.Reconcile(ctx))

	items, err = wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1, "rescan of the same file must update, not duplicate, the row")
	assert.Equal(t, firstID, items[0].ID)
	assert.Equal(t, "New Title", items[0].MediaTitle)
	assert.Equal(t, 2020, items[0].Year)
}

func TestScannerDeletesItemsForFilesThatDisappearOnFullScan(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	wantedRepo := store.NewWantedRepository(db.Connection())
	profileRepo := store.NewProfileRepository(db.Connection())
	downloadRepo := store.NewDownloadRepository(db.Connection())

	profileID := englishFullProfile(t, profileRepo)
	lib := &fakeLibrary{items: []collab.MediaItem{
		{FilePath: "/media/movie.mkv", Title: "A Movie", ProfileID: profileID},
	}}
	s := NewScanner(wantedRepo, profileRepo, downloadRepo, lib, func(collab.MediaItem, profile.RequiredTrack) bool { return false }, 1, 100)
	require.NoError(t, s.Reconcile(ctx))

	items, err := wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	lib.items = nil
	// Force another full scan: fullRescanEveryN=100 means cycle 2 would be
	// incremental, but the fake library's ListChangedSince always reports
	// unsupported, which the scanner treats as a fall-back-to-full-scan.
	require.NoError(t, s.Reconcile(ctx))

	items, err = wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	assert.Empty(t, items, "a file no longer present in a full scan must have its wanted items removed")
}

func TestScannerMarksUpgradeCandidateWhenExistingScoreBelowThreshold(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	wantedRepo := store.NewWantedRepository(db.Connection())
	profileRepo := store.NewProfileRepository(db.Connection())
	downloadRepo := store.NewDownloadRepository(db.Connection())

	profileID := englishFullProfile(t, profileRepo) // AcceptanceThreshold: 60
	lib := &fakeLibrary{items: []collab.MediaItem{
		{FilePath: "/media/movie.mkv", Title: "A Movie", ProfileID: profileID},
	}}
	s := NewScanner(wantedRepo, profileRepo, downloadRepo, lib, func(collab.MediaItem, profile.RequiredTrack) bool { return true }, 1, 100)
	require.NoError(t, s.Reconcile(ctx))

	items, err := wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, store.StatusFound, items[0].Status)
	assert.False(t, items[0].UpgradeCandidate, "no download recorded yet, nothing to flag")

	require.NoError(t, downloadRepo.Record(ctx, &store.SubtitleDownload{
		WantedItemID: items[0].ID,
		ProviderName: "opensubtitles",
		FilePath:     "/media/movie.eng.srt",
		Score:        40,
	}))

	require.NoError(t, s.Reconcile(ctx))

	items, err = wantedRepo.ListWanted(ctx, store.WantedFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UpgradeCandidate)
	assert.Equal(t, 40, items[0].ExistingScore)
	assert.Equal(t, "/media/movie.eng.srt", items[0].ExistingSubtitleRef)
}
