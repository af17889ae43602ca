// Package wanted implements the Wanted Scanner (reconciling a library
// snapshot into wanted items) and the Wanted Searcher (turning wanted items
// into downloaded, verified subtitle files).
package wanted

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
	"github.com/Abrechen2/sublarr-sub006/internal/profile"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// SubtitleExists abstracts the on-disk check for whether a required track
// is already satisfied, so the scanner doesn't hardcode naming rules itself.
type SubtitleExists func(item collab.MediaItem, track profile.RequiredTrack) bool

// Scanner reconciles a library snapshot against assigned language profiles,
// creating WantedItem rows for every (file, language, subtitle_type) tuple
// that isn't already satisfied on disk, updating rows whose observed media
// state changed, marking items upgrade candidates when an on-disk subtitle
// scores below the profile's acceptance threshold, and removing items whose
// file disappeared from a full library snapshot.
type Scanner struct {
	wantedRepo   *store.WantedRepository
	profileRepo  *store.ProfileRepository
	downloadRepo *store.DownloadRepository
	library      collab.LibraryManager
	exists       SubtitleExists

	poolSize         int
	fullRescanEveryN int
	cycle            int
	lastFullScan     time.Time
}

func NewScanner(wantedRepo *store.WantedRepository, profileRepo *store.ProfileRepository, downloadRepo *store.DownloadRepository, library collab.LibraryManager, exists SubtitleExists, poolSize, fullRescanEveryN int) *Scanner {
	if poolSize <= 0 {
		poolSize = 4
	}
	if fullRescanEveryN <= 0 {
		fullRescanEveryN = 6
	}
	return &Scanner{
		wantedRepo:       wantedRepo,
		profileRepo:      profileRepo,
		downloadRepo:     downloadRepo,
		library:          library,
		exists:           exists,
		poolSize:         poolSize,
		fullRescanEveryN: fullRescanEveryN,
	}
}

// Reconcile runs one scan cycle: a full library listing every
// fullRescanEveryN-th cycle, an incremental "changes since" listing
// otherwise (falling back to a full scan whenever the library manager
// reports it doesn't support incremental listing). On a full scan, any
// previously tracked, non-standalone file that's no longer present in the
// snapshot is removed.
func (s *Scanner) Reconcile(ctx context.Context) error {
	s.cycle++
	items, isFullScan, err := s.loadItems(ctx)
	if err != nil {
		return err
	}

	profiles := make(map[int64]profile.LanguageProfile)
	var profilesMu sync.Mutex
	seen := make(map[string]struct{}, len(items))
	var seenMu sync.Mutex

	p := pool.New().WithMaxGoroutines(s.poolSize).WithContext(ctx)
	for _, item := range items {
		item := item
		seenMu.Lock()
		seen[item.FilePath] = struct{}{}
		seenMu.Unlock()
		p.Go(func(c context.Context) error {
			profilesMu.Lock()
			prof, ok := profiles[item.ProfileID]
			profilesMu.Unlock()
			if !ok {
				loaded, err := s.profileRepo.Get(c, item.ProfileID)
				if err != nil || loaded == nil {
					slog.Warn("wanted.scanner.profile_lookup_failed", "file_path", item.FilePath, "profile_id", item.ProfileID)
					return nil
				}
				prof = *loaded
				profilesMu.Lock()
				profiles[item.ProfileID] = prof
				profilesMu.Unlock()
			}
			return s.reconcileItem(c, item, prof)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	if isFullScan {
		s.cleanupDisappeared(ctx, seen)
	}
	return nil
}

// loadItems returns the library snapshot for this cycle along with whether
// it was a full scan (as opposed to an incremental "changes since" listing).
// Only a full scan's result set is authoritative enough to drive deletion of
// items whose files disappeared.
func (s *Scanner) loadItems(ctx context.Context) ([]collab.MediaItem, bool, error) {
	isFullScan := (s.cycle-1)%s.fullRescanEveryN == 0 || s.lastFullScan.IsZero()
	if !isFullScan {
		changed, ok, err := s.library.ListChangedSince(ctx, s.lastFullScan)
		if err == nil && ok {
			return changed, false, nil
		}
		slog.Info("wanted.scanner.incremental_unavailable_falling_back_to_full_scan")
	}
	items, err := s.library.ListAllItems(ctx)
	if err != nil {
		return nil, false, err
	}
	s.lastFullScan = time.Now()
	return items, true, nil
}

func (s *Scanner) reconcileItem(ctx context.Context, item collab.MediaItem, prof profile.LanguageProfile) error {
	tracks := profile.RequiredTracks(profile.MediaItem{OriginalLanguage: item.OriginalLanguage}, prof)
	for _, track := range tracks {
		satisfied := s.exists != nil && s.exists(item, track)
		status := store.StatusWanted
		if satisfied {
			status = store.StatusFound
		}
		wanted := &store.WantedItem{
			FilePath:         item.FilePath,
			TargetLanguage:   track.Language,
			SubtitleType:     string(track.SubtitleType),
			MediaTitle:       item.Title,
			Year:             item.Year,
			Season:           item.Season,
			Episode:          item.Episode,
			OriginalLanguage: item.OriginalLanguage,
			IMDbID:           item.IMDbID,
			TMDbID:           item.TMDbID,
			IsAnime:          item.IsAnime,
			ProfileID:        item.ProfileID,
			Status:           status,
		}
		if err := s.wantedRepo.UpsertWantedItem(ctx, wanted); err != nil {
			slog.Error("wanted.scanner.upsert_failed", "file_path", item.FilePath, "error", err)
			continue
		}

		if satisfied {
			s.markIfBelowThreshold(ctx, wanted, prof)
		}
	}
	return nil
}

// markIfBelowThreshold inspects the most recent recorded download for an
// already-satisfied item: if its score falls below the profile's acceptance
// threshold, the item is flagged upgrade_candidate so the searcher keeps
// looking for a replacement that beats it by the profile's upgrade margin,
// instead of treating a weak existing match as permanently done.
func (s *Scanner) markIfBelowThreshold(ctx context.Context, wanted *store.WantedItem, prof profile.LanguageProfile) {
	if s.downloadRepo == nil {
		return
	}
	downloads, err := s.downloadRepo.ListForWantedItem(ctx, wanted.ID)
	if err != nil || len(downloads) == 0 {
		return
	}
	latest := downloads[0]
	if latest.Score >= prof.AcceptanceThreshold {
		return
	}
	if err := s.wantedRepo.MarkUpgradeCandidate(ctx, wanted.ID, latest.FilePath, latest.Score); err != nil {
		slog.Error("wanted.scanner.mark_upgrade_candidate_failed", "file_path", wanted.FilePath, "error", err)
	}
}

// cleanupDisappeared removes wanted items that are no longer backed by a
// file present in a full library snapshot. Standalone items are excluded:
// their lifecycle is driven by the standalone watcher, not by the
// library-manager snapshot this scan reconciles against.
func (s *Scanner) cleanupDisappeared(ctx context.Context, seen map[string]struct{}) {
	notStandalone := false
	tracked, err := s.wantedRepo.ListWanted(ctx, store.WantedFilter{Standalone: &notStandalone})
	if err != nil {
		slog.Error("wanted.scanner.cleanup_list_failed", "error", err)
		return
	}
	removed := make(map[string]struct{})
	for _, item := range tracked {
		if _, ok := seen[item.FilePath]; ok {
			continue
		}
		if _, done := removed[item.FilePath]; done {
			continue
		}
		if err := s.wantedRepo.DeleteStale(ctx, item.FilePath); err != nil {
			slog.Error("wanted.scanner.delete_stale_failed", "file_path", item.FilePath, "error", err)
			continue
		}
		removed[item.FilePath] = struct{}{}
		slog.Info("wanted.scanner.removed_stale_item", "file_path", item.FilePath)
	}
}

// FileStat is the default SubtitleExists predicate's building block,
// exported so callers can build their own naming-convention checks on top
// of it without duplicating the os.Stat call.
func FileStat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
