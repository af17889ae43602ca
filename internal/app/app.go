// Package app constructs and wires every Sublarr component from loaded
// settings: store, event bus, scheduler, HTTP API, and the source-mode
// specific collaborators (library manager or filesystem watcher). There is
// exactly one construction path; nothing here is a package-level
// singleton, so tests and the CLI's one-shot subcommands can each build
// their own App against a throwaway database.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/backup"
	"github.com/Abrechen2/sublarr-sub006/internal/collab"
	"github.com/Abrechen2/sublarr-sub006/internal/config"
	"github.com/Abrechen2/sublarr-sub006/internal/events"
	"github.com/Abrechen2/sublarr-sub006/internal/health"
	"github.com/Abrechen2/sublarr-sub006/internal/httpapi"
	"github.com/Abrechen2/sublarr-sub006/internal/profile"
	"github.com/Abrechen2/sublarr-sub006/internal/provider"
	"github.com/Abrechen2/sublarr-sub006/internal/scheduler"
	"github.com/Abrechen2/sublarr-sub006/internal/standalone"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
	"github.com/Abrechen2/sublarr-sub006/internal/translation"
	"github.com/Abrechen2/sublarr-sub006/internal/wanted"
)

// App holds every constructed component, keyed by the name of the module
// it backs so main's subcommands can reach straight into the piece they
// need without re-wiring anything.
type App struct {
	Settings   config.Settings
	ConfigPath string // set by the CLI after New, consulted by the scheduled backup task
	DB         *store.DB

	Wanted        *store.WantedRepository
	Downloads     *store.DownloadRepository
	Blacklist     *store.BlacklistRepository
	Profiles      *store.ProfileRepository
	FilterPresets *store.FilterPresetRepository
	Hooks         *store.HookRepository
	Notifications *store.NotificationRepository
	Cleanup       *store.CleanupRepository
	Hashes        *store.HashRepository
	HealthRepo    *store.HealthRepository
	Standalone    *store.StandaloneRepository
	MetadataCache *store.MetadataCacheRepository
	TMRepo        *store.TranslationMemoryRepository

	Bus       *events.Bus
	Scheduler *scheduler.Scheduler

	Library   collab.LibraryManager
	Resolvers *standalone.ResolverChain
	Watcher   *standalone.Watcher

	Registry *provider.Registry
	Breakers *provider.Breakers

	WantedScanner *wanted.Scanner
	Searcher      *wanted.Searcher

	HealthEngine *health.Engine
	Dedup        *health.Dedup

	Memory       *translation.Memory
	Orchestrator *translation.Orchestrator

	Router *mux.Router
}

// New constructs every component against settings. The returned App owns
// the database handle; callers must call Close when done.
func New(settings config.Settings) (*App, error) {
	db, err := store.NewDB(store.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn := db.Connection()

	a := &App{
		Settings:      settings,
		DB:            db,
		Wanted:        store.NewWantedRepository(conn),
		Downloads:     store.NewDownloadRepository(conn),
		Blacklist:     store.NewBlacklistRepository(conn),
		Profiles:      store.NewProfileRepository(conn),
		FilterPresets: store.NewFilterPresetRepository(conn),
		Hooks:         store.NewHookRepository(conn),
		Notifications: store.NewNotificationRepository(conn),
		Cleanup:       store.NewCleanupRepository(conn),
		Hashes:        store.NewHashRepository(conn),
		HealthRepo:    store.NewHealthRepository(conn),
		Standalone:    store.NewStandaloneRepository(conn),
		MetadataCache: store.NewMetadataCacheRepository(conn),
		TMRepo:        store.NewTranslationMemoryRepository(conn),
	}

	a.Bus = events.NewBus(settings.Workers.DispatcherPoolSize)
	a.Bus.SetQuietHours(events.NewQuietHoursPolicy(a.Notifications))
	a.Bus.OnDispatch(func(event events.Name, subscriber string, success bool, detail string) {
		_ = a.Notifications.AppendHistory(context.Background(), &store.NotificationHistoryEntry{
			Event:      string(event),
			Subscriber: subscriber,
			Success:    success,
			Detail:     detail,
			CreatedAt:  time.Now(),
		})
	})
	if err := a.wireSubscribers(context.Background()); err != nil {
		slog.Warn("app.subscriber_wiring_failed", "error", err)
	}

	cacheTTL := time.Duration(settings.Metadata.CacheTTLHours) * time.Hour
	tmdb := collab.NewTMDBResolver(settings.Metadata.TMDBAPIKey, "en-US", a.MetadataCache, cacheTTL)
	tvdb := collab.NewTVDBResolver(settings.Metadata.TVDBAPIKey)
	anilist := collab.NewAniListResolver(settings.Metadata.AniListURL)
	a.Resolvers = standalone.NewResolverChain(
		[]collab.MetadataResolver{anilist, tmdb, tvdb},
		[]collab.MetadataResolver{tmdb, tvdb},
	)

	a.Registry = provider.NewRegistry()
	a.Breakers = provider.NewBreakers()
	providers, modifiers := a.buildProviders(settings.Providers)

	if settings.Source.Mode == config.SourceModeLibraryManager {
		a.Library = collab.NewSonarrRadarrClient(settings.Source.LibraryManager.BaseURL, settings.Source.LibraryManager.APIKey)
	} else {
		debounce := time.Duration(settings.Source.Standalone.DebounceSeconds) * time.Second
		a.Watcher = standalone.NewWatcher(debounce)
		standaloneScanner := standalone.NewScanner(a.Watcher, a.Standalone, a.Resolvers, settings.Workers.ScannerPoolSize)
		a.Library = &standaloneLibrary{scanner: standaloneScanner, roots: settings.Source.Standalone.WatchPaths}
	}

	a.WantedScanner = wanted.NewScanner(a.Wanted, a.Profiles, a.Downloads, a.Library, subtitleSidecarExists, settings.Workers.ScannerPoolSize, settings.Source.Standalone.FullRescanEveryN)

	a.Searcher = wanted.NewSearcher(
		a.Wanted, a.Downloads, a.Blacklist, a.Profiles,
		a.Registry, a.Breakers, providers, modifiers,
		a.Bus,
		settings.Workers.SearcherProviderPool,
		time.Duration(settings.Workers.IODeadlineSeconds)*time.Second,
	)

	a.Memory = translation.NewMemory(a.TMRepo)
	a.Orchestrator = translation.NewOrchestrator(a.Memory, settings.Translation.BatchSize, settings.Workers.TranslationPoolSize, settings.Translation.SimilarityThresh)
	a.Searcher.SetFallbackTranslator(a.translateFallback)

	a.HealthEngine = health.NewEngine(a.HealthRepo)
	a.Dedup = health.NewDedup(a.Hashes)

	a.Scheduler = scheduler.New(a.Bus, 30*time.Second)
	a.registerScheduledTasks()

	a.Router = mux.NewRouter()
	httpapi.Register(a.Router, a.buildHandlers())

	return a, nil
}

// buildProviders registers a generic RESTProvider factory for every
// configured, enabled provider entry, then resolves the concrete instances
// and per-provider score modifiers the searcher scores candidates with.
// Sublarr specifies provider behavioral contracts, not vendor wire
// protocols, so every configured provider is driven through the same
// RESTProvider shape, distinguished only by name/BaseURL/APIKey.
func (a *App) buildProviders(configured []config.ProviderSettings) ([]provider.Provider, map[string]int) {
	providers := make([]provider.Provider, 0, len(configured))
	modifiers := make(map[string]int, len(configured))
	for _, ps := range configured {
		ps := ps
		if !ps.Enabled {
			continue
		}
		a.Registry.Register(ps.Name, ps.Priority, func(apiKey string) provider.Provider {
			return provider.NewRESTProvider(ps.Name, ps.BaseURL)
		})
		p, ok := a.Registry.Get(ps.Name, ps.APIKey)
		if !ok {
			continue
		}
		providers = append(providers, p)
		modifiers[ps.Name] = ps.ScoreModifier
	}
	return providers, modifiers
}

// standaloneLibrary adapts the filesystem-watch scanner to the
// collab.LibraryManager contract so wanted.Scanner runs the same
// reconciliation logic regardless of source mode; ListChangedSince always
// reports unsupported since the filesystem scanner only knows how to walk
// its configured roots wholesale.
type standaloneLibrary struct {
	scanner *standalone.Scanner
	roots   []string
}

func (l *standaloneLibrary) ListAllItems(ctx context.Context) ([]collab.MediaItem, error) {
	return l.scanner.Scan(ctx, l.roots)
}

func (l *standaloneLibrary) ListChangedSince(ctx context.Context, since time.Time) ([]collab.MediaItem, bool, error) {
	return nil, false, nil
}

// subtitleSidecarExists is the default on-disk check: a sidecar named
// "<media base name>.<language>.srt" next to the media file or inside a
// "Subtitles" or "Subs" subdirectory of the media file's directory.
func subtitleSidecarExists(item collab.MediaItem, track profile.RequiredTrack) bool {
	dir := filepath.Dir(item.FilePath)
	name := filepath.Base(item.FilePath)
	name = name[:len(name)-len(filepath.Ext(name))]
	sidecar := fmt.Sprintf("%s.%s.srt", name, track.Language)
	for _, sub := range []string{"", "Subtitles", "Subs"} {
		if wanted.FileStat(filepath.Join(dir, sub, sidecar)) {
			return true
		}
	}
	return false
}

// buildHandlers assembles the httpapi.Handlers bundle from the already
// constructed repositories and services.
func (a *App) buildHandlers() httpapi.Handlers {
	jobs := httpapi.NewTranslationJobStore(time.Hour)
	return httpapi.Handlers{
		Wanted:        httpapi.NewWantedHandler(a.Wanted, a.Blacklist, a.Scheduler),
		FilterPresets: httpapi.NewFilterPresetHandler(a.FilterPresets, a.Wanted),
		Translation:   httpapi.NewTranslationHandler(jobs, a.Orchestrator, a.TMRepo, a.translateBackend),
		Health:        httpapi.NewHealthHandler(),
		Tasks:         httpapi.NewTasksHandler(a.Scheduler),
		Cleanup:       httpapi.NewCleanupHandler(a.Dedup, a.Cleanup, a.Scheduler),
		Notifications: httpapi.NewNotificationsHandler(a.Notifications),
		Hooks:         httpapi.NewHooksHandler(a.Hooks, a.hookFinder),
		Search:        httpapi.NewSearchHandler(a.Wanted),
	}
}

// translateFallback adapts the orchestrator into the searcher's
// FallbackTranslator contract: every cue's text runs through the
// orchestrator against a.translateBackend, and the resulting Subtitle
// keeps sourceSub's timings and styling untouched.
func (a *App) translateFallback(ctx context.Context, query provider.VideoQuery, sourceSub *subtitle.Subtitle, sourceLang string) (*subtitle.Subtitle, error) {
	lines := make([]translation.Line, len(sourceSub.Cues))
	for i, cue := range sourceSub.Cues {
		lines[i] = translation.Line{Index: cue.Index, Text: cue.Text}
	}

	translated, err := a.Orchestrator.Translate(ctx, sourceLang, query.Language, lines, a.translateBackend)
	if err != nil {
		return nil, err
	}

	out := &subtitle.Subtitle{Format: sourceSub.Format, ScriptInfo: sourceSub.ScriptInfo, Styles: sourceSub.Styles}
	out.Cues = make([]subtitle.Cue, len(sourceSub.Cues))
	for i, cue := range sourceSub.Cues {
		out.Cues[i] = cue
		if i < len(translated) {
			out.Cues[i].Text = translated[i].Text
		}
	}
	return out, nil
}

func (a *App) hookFinder(kind string, id int64) (httpapi.HookTester, bool) {
	switch kind {
	case "hook":
		def, err := a.Hooks.GetHook(context.Background(), id)
		if err != nil || def == nil {
			return nil, false
		}
		return events.NewHookSubscriber(*def, a.Hooks), true
	case "webhook":
		webhooks, err := a.Hooks.ListWebhooks(context.Background())
		if err != nil {
			return nil, false
		}
		for _, w := range webhooks {
			if w.ID == id {
				engine := events.NewTemplateEngine(a.Notifications)
				return events.NewWebhookSubscriber(w, a.Hooks, engine), true
			}
		}
	}
	return nil, false
}

// translateBackend is the BatchTranslateFunc passed to the orchestrator.
// Sublarr specifies only the behavioral contract of translation backends,
// not their wire protocols, so this build ships no concrete vendor
// integration; it reports Configuration until a backend is wired for the
// deployment.
func (a *App) translateBackend(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	return nil, apperr.Newf(apperr.Configuration, "no translation backend configured")
}

func (a *App) wireSubscribers(ctx context.Context) error {
	hooks, err := a.Hooks.ListHooks(ctx)
	if err != nil {
		return err
	}
	for _, h := range hooks {
		if !h.Enabled {
			continue
		}
		sub := events.NewHookSubscriber(h, a.Hooks)
		for _, evName := range h.Events {
			a.Bus.Subscribe(events.Name(evName), sub)
		}
	}

	engine := events.NewTemplateEngine(a.Notifications)
	webhooks, err := a.Hooks.ListWebhooks(ctx)
	if err != nil {
		return err
	}
	for _, w := range webhooks {
		if !w.Enabled {
			continue
		}
		sub := events.NewWebhookSubscriber(w, a.Hooks, engine)
		for _, evName := range w.Events {
			a.Bus.Subscribe(events.Name(evName), sub)
		}
	}
	return nil
}

func (a *App) registerScheduledTasks() {
	s := a.Settings.Scheduler

	a.Scheduler.Register("wanted_scan", scheduler.TriggerableFunc(a.WantedScanner.Reconcile),
		time.Duration(s.WantedScanIntervalMinutes)*time.Minute)

	a.Scheduler.Register("wanted_search", scheduler.TriggerableFunc(a.runSearchCycle),
		time.Duration(s.WantedSearchIntervalMinutes)*time.Minute)

	a.Scheduler.Register("health_batch", scheduler.TriggerableFunc(a.runHealthBatch),
		time.Duration(s.HealthBatchIntervalMinutes)*time.Minute)

	if a.Settings.Dedup.Enabled {
		a.Scheduler.Register("dedup_scan", scheduler.TriggerableFunc(a.runDedupScan),
			time.Duration(s.DedupScanIntervalMinutes)*time.Minute)
	}

	a.Scheduler.Register("backup", scheduler.TriggerableFunc(a.runBackup),
		time.Duration(s.BackupIntervalMinutes)*time.Minute)
}

// RunSearchCycle fetches every item in status "wanted" and runs the
// searcher pipeline against each, bounded by the configured searcher pool.
// Exported so the CLI's search-once subcommand can invoke it directly.
func (a *App) RunSearchCycle(ctx context.Context) error {
	return a.runSearchCycle(ctx)
}

func (a *App) runSearchCycle(ctx context.Context) error {
	items, err := a.Wanted.ListWanted(ctx, store.WantedFilter{Status: store.StatusWanted})
	if err != nil {
		return err
	}
	for _, item := range items {
		query := a.buildVideoQuery(item)
		if err := a.Searcher.SearchItem(ctx, item, query); err != nil {
			slog.Error("wanted_search.item_failed", "id", item.ID, "error", err)
		}
	}
	return nil
}

// buildVideoQuery enriches a VideoQuery from the wanted item's stored
// metadata (populated by the scanner from the library-manager or
// standalone-resolver tiers). When that metadata is empty — an item
// created before this scanner wiring, or a collaborator that couldn't
// resolve it — it falls back to the third tier: parsing the media
// filename itself.
func (a *App) buildVideoQuery(item store.WantedItem) provider.VideoQuery {
	title, year, season, episode, isAnime := item.MediaTitle, item.Year, item.Season, item.Episode, item.IsAnime
	if title == "" {
		parsed := standalone.ParseFilename(item.FilePath, isAnime)
		title = parsed.Title
		year = parsed.Year
		season = parsed.Season
		episode = parsed.Episode
		isAnime = isAnime || parsed.IsAnime
	}

	return provider.VideoQuery{
		MediaPath:    item.FilePath,
		Title:        title,
		Year:         year,
		Season:       season,
		Episode:      episode,
		IMDbID:       item.IMDbID,
		TMDbID:       item.TMDbID,
		Language:     item.TargetLanguage,
		SubtitleType: item.SubtitleType,
		IsAnime:      isAnime,
	}
}

// runDedupScan resolves the roots to walk before delegating to the dedup
// engine. Standalone mode has an explicit WatchPaths setting; library-
// manager mode has no analogous root-path config, so its roots are derived
// from the distinct parent directories of the wanted items on file.
func (a *App) runDedupScan(ctx context.Context) error {
	if a.Settings.Source.Mode != config.SourceModeStandalone {
		roots, err := a.dedupRootsFromWantedItems(ctx)
		if err != nil {
			return err
		}
		return a.Dedup.Scan(ctx, roots)
	}
	return a.Dedup.Scan(ctx, a.Settings.Source.Standalone.WatchPaths)
}

func (a *App) dedupRootsFromWantedItems(ctx context.Context) ([]string, error) {
	items, err := a.Wanted.ListWanted(ctx, store.WantedFilter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var roots []string
	for _, item := range items {
		dir := filepath.Dir(item.FilePath)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		roots = append(roots, dir)
	}
	return roots, nil
}

// runHealthBatch checks the most recently downloaded subtitle for every
// item in status "found", up to health.Engine's batch cap.
func (a *App) runHealthBatch(ctx context.Context) error {
	items, err := a.Wanted.ListWanted(ctx, store.WantedFilter{Status: store.StatusFound, Limit: 50})
	if err != nil {
		return err
	}

	files := make([]string, 0, len(items))
	for _, item := range items {
		downloads, err := a.Downloads.ListForWantedItem(ctx, item.ID)
		if err != nil || len(downloads) == 0 {
			continue
		}
		files = append(files, downloads[len(downloads)-1].FilePath)
	}
	if len(files) == 0 {
		return nil
	}
	_, err = a.HealthEngine.RunBatch(ctx, files, subtitleFormatFromPath)
	return err
}

func subtitleFormatFromPath(path string) subtitle.Format {
	if strings.EqualFold(filepath.Ext(path), ".ass") {
		return subtitle.FormatASS
	}
	return subtitle.FormatSRT
}

// runBackup writes a timestamped archive next to the database file. It is
// a no-op (not an error) when ConfigPath hasn't been set, since a one-shot
// subcommand running against a throwaway App never schedules this task.
func (a *App) runBackup(ctx context.Context) error {
	if a.ConfigPath == "" {
		return nil
	}
	dir := filepath.Join(filepath.Dir(a.Settings.Database.Path), "backups")
	dest := filepath.Join(dir, fmt.Sprintf("sublarr-%d.zip", time.Now().Unix()))
	return backup.Create(dest, a.Settings.Database.Path, a.ConfigPath)
}

// Serve runs the HTTP API and scheduler until ctx is cancelled, then shuts
// both down within the configured grace period.
func (a *App) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.Settings.Server.Host, a.Settings.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	a.Scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Settings.ShutdownGrace())
	defer cancel()

	a.Scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.DB.Close()
}
