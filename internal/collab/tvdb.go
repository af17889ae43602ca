package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

const tvdbBaseURL = "https://api4.thetvdb.com/v4"

// TVDBResolver is the fallback resolver consulted when TMDB has no match;
// TVDB v4 requires a short-lived bearer token obtained via apikey login.
type TVDBResolver struct {
	apiKey string
	httpc  *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewTVDBResolver(apiKey string) *TVDBResolver {
	return &TVDBResolver{apiKey: apiKey, httpc: &http.Client{Timeout: 15 * time.Second}}
}

func (r *TVDBResolver) Name() string { return "tvdb" }

func (r *TVDBResolver) ensureToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token != "" && time.Now().Before(r.tokenExpiry.Add(-time.Minute)) {
		return r.token, nil
	}

	payload, _ := json.Marshal(map[string]string{"apikey": r.apiKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tvdbBaseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", apperr.New(apperr.Internal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", apperr.Newf(apperr.PermanentExternal, "tvdb: login failed: %s", resp.Status)
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.New(apperr.PermanentExternal, err)
	}
	r.token = body.Data.Token
	r.tokenExpiry = time.Now().Add(23 * time.Hour)
	return r.token, nil
}

type tvdbSearchResponse struct {
	Data []struct {
		ID              string   `json:"tvdb_id"`
		Name            string   `json:"name"`
		Year            string   `json:"year"`
		Country         string   `json:"country"`
		Genres          []string `json:"genres"`
		PrimaryLanguage string   `json:"primary_language"`
	} `json:"data"`
}

func (r *TVDBResolver) Resolve(ctx context.Context, item MediaItem) (MediaItem, error) {
	if r.apiKey == "" {
		return item, apperr.Newf(apperr.Configuration, "tvdb: api key not configured")
	}

	token, err := r.ensureToken(ctx)
	if err != nil {
		return item, err
	}

	q := url.Values{}
	q.Set("query", item.Title)
	q.Set("type", "series")
	reqURL := fmt.Sprintf("%s/search?%s", tvdbBaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return item, apperr.New(apperr.Internal, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.httpc.Do(req)
	if err != nil {
		return item, apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return item, apperr.Newf(apperr.TransientExternal, "tvdb: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return item, apperr.Newf(apperr.PermanentExternal, "tvdb: status %d", resp.StatusCode)
	}

	var parsed tvdbSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return item, apperr.New(apperr.PermanentExternal, err)
	}
	if len(parsed.Data) == 0 {
		return item, apperr.Newf(apperr.PermanentExternal, "tvdb: no match for %q", item.Title)
	}

	best := parsed.Data[0]
	resolved := item
	resolved.OriginCountry = best.Country
	resolved.Genres = best.Genres
	resolved.OriginalLanguage = best.PrimaryLanguage
	return resolved, nil
}
