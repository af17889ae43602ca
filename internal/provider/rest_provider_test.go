package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

func TestRESTProviderSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "eng", r.URL.Query().Get("language"))
		w.Write([]byte(`{"results":[{"id":"1","language":"eng","subtitle_type":"full","release_info":"x264","hearing_impaired":true,"download_ref":"ref-1"}]}`))
	}))
	defer srv.Close()

	p := NewRESTProvider("testprov", srv.URL)
	require.NoError(t, p.Configure("secret"))

	candidates, err := p.Search(context.Background(), VideoQuery{Language: "eng", SubtitleType: "full"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "testprov", candidates[0].ProviderName)
	assert.Equal(t, "ref-1", candidates[0].DownloadRef)
	assert.True(t, candidates[0].HearingImpaired)
}

func TestRESTProviderSearchRequiresConfiguration(t *testing.T) {
	p := NewRESTProvider("testprov", "http://example.invalid")
	_, err := p.Search(context.Background(), VideoQuery{})
	assert.Equal(t, apperr.Configuration, apperr.KindOf(err))
}

func TestRESTProviderDownloadReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download", r.URL.Path)
		assert.Equal(t, "ref-1", r.URL.Query().Get("ref"))
		w.Write([]byte("subtitle-bytes"))
	}))
	defer srv.Close()

	p := NewRESTProvider("testprov", srv.URL)
	require.NoError(t, p.Configure("secret"))

	data, err := p.Download(context.Background(), Candidate{DownloadRef: "ref-1"})
	require.NoError(t, err)
	assert.Equal(t, "subtitle-bytes", string(data))
}

func TestRESTProviderClassifiesStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewRESTProvider("testprov", srv.URL)
	require.NoError(t, p.Configure("secret"))

	_, err := p.Search(context.Background(), VideoQuery{})
	assert.Equal(t, apperr.TransientExternal, apperr.KindOf(err))
}
