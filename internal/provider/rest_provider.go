package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

// RESTProvider is a generic JSON-over-HTTP subtitle provider. Sublarr
// specifies only the behavioral contract real subtitle backends must honor
// (search takes a VideoQuery, returns scoreable Candidates; download takes a
// Candidate's opaque DownloadRef and returns file bytes) — not any one
// vendor's wire format, so this implementation targets a small common-
// denominator JSON shape (a "query" search endpoint returning a results
// array, a "download" endpoint taking the ref as a query param) that a
// concrete deployment configures per provider via BaseURL. It is modeled on
// collab.TMDBResolver's HTTP-client and status-code classification pattern.
type RESTProvider struct {
	name    string
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewRESTProvider builds a RESTProvider for name against baseURL. Configure
// must be called (the registry does this automatically via Get) before
// Search or Download will authenticate successfully.
func NewRESTProvider(name, baseURL string) *RESTProvider {
	return &RESTProvider{
		name:    name,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *RESTProvider) Name() string { return p.name }

// Configure implements Configurable.
func (p *RESTProvider) Configure(apiKey string) error {
	p.apiKey = apiKey
	return nil
}

type restSearchResponse struct {
	Results []restCandidate `json:"results"`
}

type restCandidate struct {
	ID              string `json:"id"`
	Language        string `json:"language"`
	SubtitleType    string `json:"subtitle_type"`
	ReleaseInfo     string `json:"release_info"`
	HearingImpaired bool   `json:"hearing_impaired"`
	DownloadRef     string `json:"download_ref"`
}

func (p *RESTProvider) Search(ctx context.Context, query VideoQuery) ([]Candidate, error) {
	if p.baseURL == "" {
		return nil, apperr.Newf(apperr.Configuration, "%s: base url not configured", p.name)
	}
	if p.apiKey == "" {
		return nil, apperr.Newf(apperr.Configuration, "%s: api key not configured", p.name)
	}

	q := url.Values{}
	q.Set("api_key", p.apiKey)
	q.Set("language", query.Language)
	q.Set("subtitle_type", query.SubtitleType)
	if query.Title != "" {
		q.Set("title", query.Title)
	}
	if query.Year > 0 {
		q.Set("year", strconv.Itoa(query.Year))
	}
	if query.Season > 0 {
		q.Set("season", strconv.Itoa(query.Season))
	}
	if query.Episode > 0 {
		q.Set("episode", strconv.Itoa(query.Episode))
	}
	if query.IMDbID != "" {
		q.Set("imdb_id", query.IMDbID)
	}

	body, err := p.doGet(ctx, fmt.Sprintf("%s/search?%s", p.baseURL, q.Encode()))
	if err != nil {
		return nil, err
	}

	var parsed restSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.New(apperr.PermanentExternal, err)
	}

	candidates := make([]Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		candidates = append(candidates, Candidate{
			ProviderName:    p.name,
			ProviderPriority: 0,
			ExternalID:      r.ID,
			Language:        r.Language,
			SubtitleType:    r.SubtitleType,
			ReleaseInfo:     r.ReleaseInfo,
			HearingImpaired: r.HearingImpaired,
			DownloadRef:     r.DownloadRef,
		})
	}
	return candidates, nil
}

func (p *RESTProvider) Download(ctx context.Context, candidate Candidate) ([]byte, error) {
	if p.baseURL == "" {
		return nil, apperr.Newf(apperr.Configuration, "%s: base url not configured", p.name)
	}
	q := url.Values{}
	q.Set("api_key", p.apiKey)
	q.Set("ref", candidate.DownloadRef)
	return p.doGet(ctx, fmt.Sprintf("%s/download?%s", p.baseURL, q.Encode()))
}

func (p *RESTProvider) doGet(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperr.New(apperr.Internal, err)
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperr.Newf(apperr.TransientExternal, "%s: status %d", p.name, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, apperr.Newf(apperr.PermanentExternal, "%s: status %d", p.name, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.TransientExternal, err)
	}
	return data, nil
}
