package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

const defaultAniListURL = "https://graphql.anilist.co"

// AniListResolver is the anime-first metadata resolver, consulted before
// TMDB/TVDB for any MediaItem the filename parser flagged as anime.
type AniListResolver struct {
	endpoint string
	httpc    *http.Client
}

func NewAniListResolver(endpoint string) *AniListResolver {
	if endpoint == "" {
		endpoint = defaultAniListURL
	}
	return &AniListResolver{endpoint: endpoint, httpc: &http.Client{Timeout: 15 * time.Second}}
}

func (r *AniListResolver) Name() string { return "anilist" }

const animeSearchQuery = `query ($search: String) {
  Media(search: $search, type: ANIME) {
    title { romaji english }
    countryOfOrigin
    genres
    startDate { year }
  }
}`

type aniListRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type aniListResponse struct {
	Data struct {
		Media struct {
			Title struct {
				Romaji  string `json:"romaji"`
				English string `json:"english"`
			} `json:"title"`
			CountryOfOrigin string   `json:"countryOfOrigin"`
			Genres          []string `json:"genres"`
			StartDate       struct {
				Year int `json:"year"`
			} `json:"startDate"`
		} `json:"Media"`
	} `json:"data"`
}

func (r *AniListResolver) Resolve(ctx context.Context, item MediaItem) (MediaItem, error) {
	payload, err := json.Marshal(aniListRequest{
		Query:     animeSearchQuery,
		Variables: map[string]any{"search": item.Title},
	})
	if err != nil {
		return item, apperr.New(apperr.Internal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return item, apperr.New(apperr.Internal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return item, apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return item, apperr.Newf(apperr.TransientExternal, "anilist: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return item, apperr.Newf(apperr.PermanentExternal, "anilist: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return item, apperr.New(apperr.TransientExternal, err)
	}

	var parsed aniListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return item, apperr.New(apperr.PermanentExternal, err)
	}
	if parsed.Data.Media.Title.Romaji == "" && parsed.Data.Media.Title.English == "" {
		return item, apperr.Newf(apperr.PermanentExternal, "anilist: no match for %q", item.Title)
	}

	resolved := item
	resolved.IsAnime = true
	resolved.OriginCountry = parsed.Data.Media.CountryOfOrigin
	resolved.Genres = parsed.Data.Media.Genres
	if parsed.Data.Media.StartDate.Year > 0 {
		resolved.Year = parsed.Data.Media.StartDate.Year
	}
	if title := parsed.Data.Media.Title.English; title != "" {
		resolved.Title = title
	} else if title := parsed.Data.Media.Title.Romaji; title != "" {
		resolved.Title = title
	}
	return resolved, nil
}
