package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

// SonarrRadarrClient is the LibraryManager implementation for a
// Sonarr/Radarr-like upstream: API-key auth over a local base URL, JSON
// responses keyed by the familiar series/movie/episodeFile shape.
type SonarrRadarrClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewSonarrRadarrClient(baseURL, apiKey string) *SonarrRadarrClient {
	return &SonarrRadarrClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type libraryItemDTO struct {
	Title            string `json:"title"`
	Year             int    `json:"year"`
	TvdbID           int    `json:"tvdbId"`
	ImdbID           string `json:"imdbId"`
	OriginalLanguage struct {
		Name string `json:"name"`
	} `json:"originalLanguage"`
	Path        string `json:"path"`
	SeasonCount int    `json:"seasonNumber"`
}

// ListAllItems returns every movie/series the upstream manages, translated
// into the collaborator-agnostic MediaItem shape. Sonarr/Radarr don't
// report episode-level file paths from this endpoint; ListChangedSince
// carries the per-file granularity the scanner actually upserts against.
func (c *SonarrRadarrClient) ListAllItems(ctx context.Context) ([]MediaItem, error) {
	body, err := c.get(ctx, "/api/v3/series")
	if err != nil {
		return nil, err
	}
	var dtos []libraryItemDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, apperr.New(apperr.PermanentExternal, err)
	}

	items := make([]MediaItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, MediaItem{
			FilePath:         d.Path,
			Title:            d.Title,
			Year:             d.Year,
			TMDbID:           d.TvdbID,
			IMDbID:           d.ImdbID,
			OriginalLanguage: d.OriginalLanguage.Name,
		})
	}
	return items, nil
}

// ListChangedSince asks the upstream for items touched after `since`; many
// Sonarr/Radarr deployments don't expose this cheaply, so a non-2xx or
// unparseable response is treated as "unsupported" rather than an error —
// the caller falls back to a full ListAllItems scan.
func (c *SonarrRadarrClient) ListChangedSince(ctx context.Context, since time.Time) ([]MediaItem, bool, error) {
	q := url.Values{}
	q.Set("since", since.UTC().Format(time.RFC3339))
	body, err := c.get(ctx, "/api/v3/history/since?"+q.Encode())
	if err != nil {
		if apperr.KindOf(err) == apperr.PermanentExternal {
			return nil, false, nil
		}
		return nil, false, err
	}

	var dtos []libraryItemDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, false, nil
	}

	items := make([]MediaItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, MediaItem{FilePath: d.Path, Title: d.Title, Year: d.Year})
	}
	return items, true, nil
}

func (c *SonarrRadarrClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperr.New(apperr.Internal, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, apperr.Newf(apperr.TransientExternal, "library manager: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, apperr.Newf(apperr.PermanentExternal, "library manager: status %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.New(apperr.PermanentExternal, err)
	}
	return body, nil
}
