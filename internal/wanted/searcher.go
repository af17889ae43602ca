package wanted

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/events"
	"github.com/Abrechen2/sublarr-sub006/internal/profile"
	"github.com/Abrechen2/sublarr-sub006/internal/provider"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
)

// Searcher drives one wanted item through the admit -> fan-out -> filter ->
// score-pick -> download-verify -> translate-fallback -> persist -> emit
// pipeline.
type Searcher struct {
	wantedRepo    *store.WantedRepository
	downloadRepo  *store.DownloadRepository
	blacklistRepo *store.BlacklistRepository
	profileRepo   *store.ProfileRepository

	registry  *provider.Registry
	breakers  *provider.Breakers
	providers []provider.Provider
	weights   provider.ScoreWeights
	modifiers map[string]int

	providerPoolSize int
	maxAttempts      int
	ioDeadline       time.Duration

	bus *events.Bus

	fallback FallbackTranslator
}

// FallbackTranslator is consulted when no candidate matches the target
// language directly; it may translate from a source-language subtitle that
// was found instead. A nil FallbackTranslator disables the fallback step.
type FallbackTranslator func(ctx context.Context, query provider.VideoQuery, sourceSub *subtitle.Subtitle, sourceLang string) (*subtitle.Subtitle, error)

func NewSearcher(
	wantedRepo *store.WantedRepository,
	downloadRepo *store.DownloadRepository,
	blacklistRepo *store.BlacklistRepository,
	profileRepo *store.ProfileRepository,
	registry *provider.Registry,
	breakers *provider.Breakers,
	providers []provider.Provider,
	modifiers map[string]int,
	bus *events.Bus,
	providerPoolSize int,
	ioDeadline time.Duration,
) *Searcher {
	if providerPoolSize <= 0 || providerPoolSize > 4 {
		providerPoolSize = 4
	}
	if ioDeadline <= 0 {
		ioDeadline = 30 * time.Second
	}
	if modifiers == nil {
		modifiers = make(map[string]int)
	}
	return &Searcher{
		wantedRepo:       wantedRepo,
		downloadRepo:     downloadRepo,
		blacklistRepo:    blacklistRepo,
		profileRepo:      profileRepo,
		registry:         registry,
		breakers:         breakers,
		providers:        providers,
		weights:          provider.DefaultScoreWeights(),
		modifiers:        modifiers,
		providerPoolSize: providerPoolSize,
		maxAttempts:      5,
		ioDeadline:       ioDeadline,
	}
}

// SetFallbackTranslator wires the translate-fallback pipeline step.
func (s *Searcher) SetFallbackTranslator(fn FallbackTranslator) {
	s.fallback = fn
}

// SearchItem runs the full pipeline for a single wanted item. A non-nil
// error here is always apperr.Internal-classified; expected outcomes
// (no candidates found, every candidate blacklisted) are reported via the
// event bus, not as a returned error, so the caller's retry loop doesn't
// treat "nothing found this cycle" as a bug.
func (s *Searcher) SearchItem(ctx context.Context, item store.WantedItem, query provider.VideoQuery) error {
	// Step 1: admit.
	if err := s.wantedRepo.TransitionStatus(ctx, item.ID, []store.WantedStatus{store.StatusWanted, store.StatusFailed}, store.StatusSearching); err != nil {
		if err == store.ErrNotClaimed {
			return nil // another worker already claimed it; not an error
		}
		return apperr.New(apperr.Internal, err)
	}

	prof, err := s.profileRepo.Get(ctx, item.ProfileID)
	if err != nil {
		_ = s.wantedRepo.RecordAttempt(ctx, item.ID, err.Error())
		_ = s.wantedRepo.TransitionStatus(ctx, item.ID, []store.WantedStatus{store.StatusSearching}, store.StatusFailed)
		s.emit(ctx, events.WantedSearchFailed, item, err)
		return nil
	}
	if prof == nil {
		prof = &profile.LanguageProfile{}
	}

	query.ForcedOnly = item.SubtitleType == string(profile.SubtitleTypeForced) || item.SubtitleType == string(profile.SubtitleTypeSigns)
	for _, req := range prof.Requirements {
		if req.Language == item.TargetLanguage {
			query.HearingImpaired = req.HearingImpaired
			break
		}
	}

	candidates, err := s.runPipeline(ctx, item, query, *prof)
	if err != nil {
		_ = s.wantedRepo.RecordAttempt(ctx, item.ID, err.Error())
		_ = s.wantedRepo.TransitionStatus(ctx, item.ID, []store.WantedStatus{store.StatusSearching}, store.StatusFailed)
		s.emit(ctx, events.WantedSearchFailed, item, err)
		return nil
	}
	if len(candidates) == 0 {
		_ = s.wantedRepo.TransitionStatus(ctx, item.ID, []store.WantedStatus{store.StatusSearching}, store.StatusFailed)
		s.emit(ctx, events.WantedSearchNoResults, item, nil)
		return nil
	}

	_ = s.wantedRepo.TransitionStatus(ctx, item.ID, []store.WantedStatus{store.StatusSearching}, store.StatusFound)
	s.emit(ctx, events.WantedSearchSucceeded, item, nil)
	return nil
}

// runPipeline performs steps 2-7 and returns the candidates it actually
// persisted (empty, not an error, if nothing usable was found).
func (s *Searcher) runPipeline(ctx context.Context, item store.WantedItem, query provider.VideoQuery, prof profile.LanguageProfile) ([]provider.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.ioDeadline)
	defer cancel()

	// Step 2: fan-out.
	candidates := provider.FanOut(ctx, s.providers, query, s.breakers, s.providerPoolSize)

	// Step 3: filter candidates that are blacklisted or whose classified
	// subtitle_type disagrees with the item's. Pre-download, classifyForced
	// only has the release-info/filename signal available (parsed is nil).
	filtered := candidates[:0:0]
	for _, c := range candidates {
		blacklisted, err := s.blacklistRepo.Contains(ctx, c.ProviderName, c.ExternalID, item.FilePath)
		if err != nil {
			slog.Warn("wanted.searcher.blacklist_check_failed", "error", err)
		}
		if blacklisted {
			continue
		}
		if !subtitleTypeMatches(c, query.ForcedOnly, nil) {
			continue
		}
		filtered = append(filtered, c)
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	// Step 4: score-pick.
	for i := range filtered {
		filtered[i].Score = provider.Score(filtered[i], query, s.weights, s.modifiers[filtered[i].ProviderName])
	}
	provider.Rank(filtered, s.registry.Priority)

	threshold := prof.AcceptanceThreshold
	if filtered[0].Score < threshold {
		return nil, nil
	}
	if item.UpgradeCandidate && filtered[0].Score <= item.ExistingScore+prof.UpgradeMargin {
		return nil, nil
	}

	// Step 5: download-verify, walking the ranked list until one verifies.
	for _, candidate := range filtered {
		if candidate.Score < threshold {
			break // ranked descending; nothing further can clear the bar either
		}
		content, err := s.downloadWithRetry(ctx, candidate)
		if err != nil {
			if apperr.KindOf(err) == apperr.PermanentExternal {
				_ = s.blacklistRepo.Add(ctx, &store.BlacklistEntry{
					ProviderName: candidate.ProviderName, ExternalID: candidate.ExternalID,
					FilePath: item.FilePath, Reason: err.Error(),
				})
			}
			continue
		}
		format := subtitleFormatForPath(item.FilePath)
		parsed, err := subtitle.Parse(content, format)
		if err != nil || len(parsed.Cues) == 0 {
			_ = s.blacklistRepo.Add(ctx, &store.BlacklistEntry{
				ProviderName: candidate.ProviderName, ExternalID: candidate.ExternalID,
				FilePath: item.FilePath, Reason: "content failed to parse",
			})
			continue
		}
		if !subtitleTypeMatches(candidate, query.ForcedOnly, parsed) {
			continue
		}

		if err := writeWithBackup(item.FilePath, content); err != nil {
			return nil, apperr.New(apperr.Internal, err)
		}

		download := &store.SubtitleDownload{
			WantedItemID: item.ID, ProviderName: candidate.ProviderName,
			ExternalID: candidate.ExternalID, FilePath: item.FilePath, Score: candidate.Score,
		}
		if err := s.downloadRepo.Record(ctx, download); err != nil {
			slog.Warn("wanted.searcher.record_download_failed", "error", err)
		}
		return []provider.Candidate{candidate}, nil
	}

	// Step 6: translate-fallback, only reached if nothing verified directly.
	// Re-fan-out without a language constraint to find a subtitle in any
	// source language, then hand the parsed result to the configured
	// translator instead of admitting a raw untranslated track.
	if s.fallback != nil {
		if result, err := s.translateFallback(ctx, item, query); err == nil && result != nil {
			return result, nil
		}
	}

	return nil, nil
}

// translateFallback re-searches with no language constraint, downloads and
// parses the top-ranked candidate in whatever language it's in, translates
// it via s.fallback, and persists the translated result exactly like a
// direct match would be.
func (s *Searcher) translateFallback(ctx context.Context, item store.WantedItem, query provider.VideoQuery) ([]provider.Candidate, error) {
	sourceQuery := query
	sourceQuery.Language = ""

	candidates := provider.FanOut(ctx, s.providers, sourceQuery, s.breakers, s.providerPoolSize)
	filtered := candidates[:0:0]
	for _, c := range candidates {
		blacklisted, _ := s.blacklistRepo.Contains(ctx, c.ProviderName, c.ExternalID, item.FilePath)
		if !blacklisted && subtitleTypeMatches(c, query.ForcedOnly, nil) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	for i := range filtered {
		filtered[i].Score = provider.Score(filtered[i], sourceQuery, s.weights, s.modifiers[filtered[i].ProviderName])
	}
	provider.Rank(filtered, s.registry.Priority)

	for _, candidate := range filtered {
		if candidate.Language == "" || strings.EqualFold(candidate.Language, query.Language) {
			continue // nothing to translate from
		}
		content, err := s.downloadWithRetry(ctx, candidate)
		if err != nil {
			continue
		}
		parsed, err := subtitle.Parse(content, subtitleFormatForPath(item.FilePath))
		if err != nil || len(parsed.Cues) == 0 {
			continue
		}

		translated, err := s.fallback(ctx, query, parsed, candidate.Language)
		if err != nil || translated == nil {
			continue
		}

		out, err := subtitle.Serialize(translated)
		if err != nil {
			return nil, apperr.New(apperr.Internal, err)
		}
		if err := writeWithBackup(item.FilePath, out); err != nil {
			return nil, apperr.New(apperr.Internal, err)
		}

		download := &store.SubtitleDownload{
			WantedItemID: item.ID, ProviderName: candidate.ProviderName + ":translated",
			ExternalID: candidate.ExternalID, FilePath: item.FilePath, Score: candidate.Score,
		}
		if err := s.downloadRepo.Record(ctx, download); err != nil {
			slog.Warn("wanted.searcher.record_download_failed", "error", err)
		}
		return []provider.Candidate{candidate}, nil
	}
	return nil, nil
}

func subtitleFormatForPath(path string) subtitle.Format {
	if len(path) > 4 && strings.EqualFold(path[len(path)-4:], ".ass") {
		return subtitle.FormatASS
	}
	return subtitle.FormatSRT
}

// downloadWithRetry retries transient failures with exponential backoff and
// jitter, bounded by s.maxAttempts; permanent failures return immediately.
func (s *Searcher) downloadWithRetry(ctx context.Context, candidate provider.Candidate) ([]byte, error) {
	var content []byte
	provIdx := -1
	for i, p := range s.providers {
		if p.Name() == candidate.ProviderName {
			provIdx = i
			break
		}
	}
	if provIdx < 0 {
		return nil, apperr.Newf(apperr.PermanentExternal, "provider %q not wired", candidate.ProviderName)
	}
	prov := s.providers[provIdx]

	err := retry.Do(
		func() error {
			data, err := prov.Download(ctx, candidate)
			if err != nil {
				return err
			}
			content = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.maxAttempts)),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(func(err error) bool { return apperr.IsRetryable(err) }),
	)
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Searcher) emit(ctx context.Context, event events.Name, item store.WantedItem, cause error) {
	if s.bus == nil {
		return
	}
	payload := map[string]any{"wanted_item_id": item.ID, "file_path": item.FilePath, "language": item.TargetLanguage}
	if cause != nil {
		payload["error"] = cause.Error()
	}
	s.bus.Publish(ctx, event, payload)
}

// writeWithBackup backs up an existing file to <path>.bak (overwriting any
// previous backup) before writing new content, so a failed or bad download
// can always be reverted by hand.
func writeWithBackup(path string, content []byte) error {
	if existing, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", existing, 0o644); err != nil {
			return fmt.Errorf("subtitle: backup before overwrite: %w", err)
		}
	}
	return os.WriteFile(path, bytes.TrimSpace(content), 0o644)
}
