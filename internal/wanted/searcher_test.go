package wanted

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/provider"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

type fakeProvider struct {
	name       string
	candidates []provider.Candidate
	content    []byte
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query provider.VideoQuery) ([]provider.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeProvider) Download(ctx context.Context, candidate provider.Candidate) ([]byte, error) {
	return f.content, nil
}

func newTestSearcher(t *testing.T, prov provider.Provider) (*Searcher, *store.WantedRepository, *store.ProfileRepository) {
	t.Helper()
	db := newTestDB(t)
	wantedRepo := store.NewWantedRepository(db.Connection())
	downloadRepo := store.NewDownloadRepository(db.Connection())
	blacklistRepo := store.NewBlacklistRepository(db.Connection())
	profileRepo := store.NewProfileRepository(db.Connection())

	registry := provider.NewRegistry()
	registry.Register(prov.Name(), 1, func(string) provider.Provider { return prov })
	_, _ = registry.Get(prov.Name(), "")

	s := NewSearcher(wantedRepo, downloadRepo, blacklistRepo, profileRepo,
		registry, provider.NewBreakers(), []provider.Provider{prov}, nil, nil, 1, 0)
	return s, wantedRepo, profileRepo
}

func newWantedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.eng.srt")
	require.NoError(t, os.WriteFile(path, []byte("placeholder"), 0o644))
	return path
}

func TestSearchItemRejectsCandidateBelowAcceptanceThreshold(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{
		name: "opensubtitles",
		candidates: []provider.Candidate{
			{ProviderName: "opensubtitles", ExternalID: "1", Language: "eng", SubtitleType: "full"},
		},
	}
	s, wantedRepo, profileRepo := newTestSearcher(t, prov)

	profileID, err := profileRepo.Create(ctx, profileWithThresholds(1000, 0))
	require.NoError(t, err)

	item := &store.WantedItem{
		FilePath: newWantedFile(t), TargetLanguage: "eng", SubtitleType: "full", ProfileID: profileID,
	}
	require.NoError(t, wantedRepo.UpsertWantedItem(ctx, item))

	require.NoError(t, s.SearchItem(ctx, *item, provider.VideoQuery{Language: "eng", SubtitleType: "full"}))

	got, err := wantedRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status, "a candidate scoring below acceptance_threshold must not be admitted")
}

func TestSearchItemAdmitsCandidateMeetingThreshold(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{
		name: "opensubtitles",
		candidates: []provider.Candidate{
			{ProviderName: "opensubtitles", ExternalID: "1", Language: "eng", SubtitleType: "full"},
		},
		content: []byte("1\n00:00:01,000 --> 00:00:02,000\nhello\n"),
	}
	s, wantedRepo, profileRepo := newTestSearcher(t, prov)

	profileID, err := profileRepo.Create(ctx, profileWithThresholds(0, 0))
	require.NoError(t, err)

	item := &store.WantedItem{
		FilePath: newWantedFile(t), TargetLanguage: "eng", SubtitleType: "full", ProfileID: profileID,
	}
	require.NoError(t, wantedRepo.UpsertWantedItem(ctx, item))

	require.NoError(t, s.SearchItem(ctx, *item, provider.VideoQuery{Language: "eng", SubtitleType: "full"}))

	got, err := wantedRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFound, got.Status)
}

func TestSearchItemRejectsUpgradeCandidateBelowMargin(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{
		name: "opensubtitles",
		candidates: []provider.Candidate{
			{ProviderName: "opensubtitles", ExternalID: "1", Language: "eng", SubtitleType: "full"},
		},
		content: []byte("1\n00:00:01,000 --> 00:00:02,000\nhello\n"),
	}
	s, wantedRepo, profileRepo := newTestSearcher(t, prov)

	profileID, err := profileRepo.Create(ctx, profileWithThresholds(0, 1000))
	require.NoError(t, err)

	item := &store.WantedItem{
		FilePath: newWantedFile(t), TargetLanguage: "eng", SubtitleType: "full", ProfileID: profileID,
		UpgradeCandidate: true, ExistingScore: 0,
	}
	require.NoError(t, wantedRepo.UpsertWantedItem(ctx, item))
	// UpsertWantedItem does not persist the upgrade fields; mark them and
	// reload so SearchItem sees an upgrade candidate.
	require.NoError(t, wantedRepo.MarkUpgradeCandidate(ctx, item.ID, item.FilePath, 0))
	item, err = wantedRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)

	require.NoError(t, s.SearchItem(ctx, *item, provider.VideoQuery{Language: "eng", SubtitleType: "full"}))

	got, err := wantedRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status, "an upgrade candidate must beat the existing score by upgrade_margin, not merely tie or edge past it")
}

func TestSearchItemFiltersCandidateOfWrongSubtitleType(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{
		name: "opensubtitles",
		candidates: []provider.Candidate{
			{ProviderName: "opensubtitles", ExternalID: "1", Language: "eng", SubtitleType: "forced"},
		},
	}
	s, wantedRepo, profileRepo := newTestSearcher(t, prov)

	profileID, err := profileRepo.Create(ctx, profileWithThresholds(0, 0))
	require.NoError(t, err)

	item := &store.WantedItem{
		FilePath: newWantedFile(t), TargetLanguage: "eng", SubtitleType: "full", ProfileID: profileID,
	}
	require.NoError(t, wantedRepo.UpsertWantedItem(ctx, item))

	require.NoError(t, s.SearchItem(ctx, *item, provider.VideoQuery{Language: "eng", SubtitleType: "full"}))

	got, err := wantedRepo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, got.Status, "a forced-track candidate must not satisfy a full-track want")
}
