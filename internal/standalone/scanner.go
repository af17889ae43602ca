package standalone

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/Abrechen2/sublarr-sub006/internal/collab"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// Scanner walks configured directories, groups files into candidate
// series/movies, resolves metadata for each group, and persists the result
// to standalone_media(_files) so the wanted scanner can reconcile it like
// any library-manager-sourced item.
type Scanner struct {
	source   collab.FilesystemSource
	media    *store.StandaloneRepository
	resolver *ResolverChain
	poolSize int
}

func NewScanner(source collab.FilesystemSource, media *store.StandaloneRepository, resolver *ResolverChain, poolSize int) *Scanner {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Scanner{source: source, media: media, resolver: resolver, poolSize: poolSize}
}

// group is one candidate series/movie: the (normalized_title, year) bucket
// plus every file path that parsed into it.
type group struct {
	key     string
	title   string
	year    int
	isMovie bool
	isAnime bool
	files   []fileAssignment
}

type fileAssignment struct {
	path    string
	season  int
	episode int
}

// Scan walks every root, parses and groups filenames, resolves metadata per
// group, and persists the result. It returns the resolved media items so
// the caller can feed them straight into the wanted scanner's reconciler.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]collab.MediaItem, error) {
	groups := make(map[string]*group)
	for _, root := range roots {
		paths, err := s.source.Walk(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			s.assign(groups, path)
		}
	}

	items := make([]collab.MediaItem, 0, len(groups))
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(s.poolSize).WithContext(ctx)
	for _, g := range groups {
		g := g
		p.Go(func(c context.Context) error {
			resolved, err := s.resolveGroup(c, g)
			if err != nil {
				slog.Warn("standalone.scanner.resolve_failed", "title", g.title, "error", err)
				return nil
			}
			mu.Lock()
			items = append(items, resolved...)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Scanner) assign(groups map[string]*group, path string) {
	// A first pass without anime-preference tells us whether the filename
	// carries anime indicators at all; IsAnime inspects the raw name, not
	// the parse result, since fansub tags live outside the parsed title.
	isAnime := IsAnime(path)
	parsed := ParseFilename(path, isAnime)
	title := parsed.Title
	if title == "" {
		title = ParentDirectoryTitle(path)
	}
	key := NormalizedGroupKey(title, parsed.Year)

	g, ok := groups[key]
	if !ok {
		g = &group{key: key, title: title, year: parsed.Year, isMovie: parsed.IsMovie, isAnime: isAnime}
		groups[key] = g
	}
	if isAnime {
		g.isAnime = true
	}
	g.files = append(g.files, fileAssignment{path: path, season: parsed.Season, episode: parsed.Episode})
}

func (s *Scanner) resolveGroup(ctx context.Context, g *group) ([]collab.MediaItem, error) {
	kind := store.StandaloneSeries
	if g.isMovie {
		kind = store.StandaloneMovie
	}

	seed := collab.MediaItem{Title: g.title, Year: g.year, IsAnime: g.isAnime}
	resolved, err := s.resolver.Resolve(ctx, seed, g.isAnime)
	if err != nil {
		resolved = seed // metadata resolution failing must not block a wanted-subtitle entry
	}

	media := &store.StandaloneMedia{
		Kind: kind, NormalizedTitle: g.key, Year: g.year, Title: resolved.Title,
		IsAnime: resolved.IsAnime, ResolverName: "", ExternalID: resolved.IMDbID,
	}
	if err := s.media.UpsertMedia(ctx, media); err != nil {
		return nil, err
	}

	items := make([]collab.MediaItem, 0, len(g.files))
	for _, f := range g.files {
		if err := s.media.AssignFile(ctx, media.ID, f.path, f.season, f.episode); err != nil {
			slog.Warn("standalone.scanner.assign_file_failed", "path", f.path, "error", err)
			continue
		}
		items = append(items, collab.MediaItem{
			FilePath: f.path, Title: resolved.Title, Year: resolved.Year,
			Season: f.season, Episode: f.episode, OriginalLanguage: resolved.OriginalLanguage,
			IMDbID: resolved.IMDbID, TMDbID: resolved.TMDbID, IsAnime: resolved.IsAnime,
		})
	}
	return items, nil
}
