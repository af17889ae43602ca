package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

// TMDBResolver resolves MediaItem metadata (genres, origin country, IDs)
// against the TMDB search API, caching raw responses through the shared
// metadata cache so repeat lookups for the same title don't re-hit the API
// inside the cache TTL.
type TMDBResolver struct {
	apiKey   string
	language string
	httpc    *http.Client
	cache    *store.MetadataCacheRepository
	cacheTTL time.Duration
}

func NewTMDBResolver(apiKey, language string, cache *store.MetadataCacheRepository, cacheTTL time.Duration) *TMDBResolver {
	if language == "" {
		language = "en-US"
	}
	return &TMDBResolver{
		apiKey:   apiKey,
		language: language,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (r *TMDBResolver) Name() string { return "tmdb" }

type tmdbSearchResponse struct {
	Results []tmdbResult `json:"results"`
}

type tmdbResult struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Name             string   `json:"name"`
	ReleaseDate      string   `json:"release_date"`
	FirstAirDate     string   `json:"first_air_date"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
	GenreIDs         []int    `json:"genre_ids"`
}

// animationGenreID is TMDB's fixed genre id for Animation, used by the
// standalone scanner's retroactive anime-promotion heuristic.
const animationGenreID = 16

func (r *TMDBResolver) Resolve(ctx context.Context, item MediaItem) (MediaItem, error) {
	if r.apiKey == "" {
		return item, apperr.Newf(apperr.Configuration, "tmdb: api key not configured")
	}

	endpoint := "search/movie"
	if item.Season > 0 || item.Episode > 0 {
		endpoint = "search/tv"
	}

	cacheKey := fmt.Sprintf("tmdb:%s:%s:%d", endpoint, item.Title, item.Year)
	body, err := r.fetch(ctx, cacheKey, endpoint, item)
	if err != nil {
		return item, err
	}

	var parsed tmdbSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return item, apperr.New(apperr.PermanentExternal, err)
	}
	if len(parsed.Results) == 0 {
		return item, apperr.Newf(apperr.PermanentExternal, "tmdb: no match for %q", item.Title)
	}

	best := parsed.Results[0]
	resolved := item
	resolved.TMDbID = best.ID
	resolved.OriginalLanguage = best.OriginalLanguage
	if len(best.OriginCountry) > 0 {
		resolved.OriginCountry = best.OriginCountry[0]
	}
	resolved.Genres = genreNames(best.GenreIDs)
	return resolved, nil
}

func (r *TMDBResolver) fetch(ctx context.Context, cacheKey, endpoint string, item MediaItem) ([]byte, error) {
	if r.cache != nil {
		if entry, err := r.cache.Get(ctx, cacheKey); err == nil && entry != nil {
			return []byte(entry.ResponseBody), nil
		}
	}

	q := url.Values{}
	q.Set("api_key", r.apiKey)
	q.Set("language", r.language)
	q.Set("query", item.Title)
	if item.Year > 0 {
		q.Set("year", strconv.Itoa(item.Year))
	}
	reqURL := fmt.Sprintf("%s/%s?%s", tmdbBaseURL, endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.Internal, err)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperr.Newf(apperr.TransientExternal, "tmdb: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, apperr.Newf(apperr.PermanentExternal, "tmdb: status %d", resp.StatusCode)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, apperr.New(apperr.TransientExternal, err)
	}
	body := []byte(buf.String())

	if r.cache != nil && r.cacheTTL > 0 {
		_ = r.cache.Set(ctx, store.MetadataCacheEntry{
			CacheKey:     cacheKey,
			Provider:     "tmdb",
			ResponseBody: string(body),
			CachedAt:     time.Now(),
			ExpiresAt:    time.Now().Add(r.cacheTTL),
		})
	}
	return body, nil
}

// genreNames maps TMDB's small, stable genre-id set to names; only the ones
// the anime-promotion heuristic and general UI care about are included.
func genreNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == animationGenreID {
			names = append(names, "Animation")
			continue
		}
		names = append(names, strconv.Itoa(id))
	}
	return names
}
