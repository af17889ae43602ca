package collab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
)

// PlexMediaServer is the MediaServer implementation for a local Plex
// Media Server: after Sublarr writes a subtitle next to a video file, it
// asks Plex to do a partial directory scan so the new subtitle track shows
// up without a full library rescan.
type PlexMediaServer struct {
	baseURL  string
	token    string
	sections map[string]int // absolute library path prefix -> Plex section key
	httpc    *http.Client
}

func NewPlexMediaServer(baseURL, token string, sections map[string]int) *PlexMediaServer {
	return &PlexMediaServer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		sections: sections,
		httpc:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *PlexMediaServer) setPlexHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Token", s.token)
	req.Header.Set("Accept", "application/json")
}

// RefreshItem triggers a partial scan of the directory containing filePath.
// The section is resolved by longest matching path prefix in s.sections; a
// file outside every configured section is a Configuration error rather
// than a silent no-op, since it means the adapter was wired up wrong.
func (s *PlexMediaServer) RefreshItem(ctx context.Context, filePath string) error {
	section, ok := s.resolveSection(filePath)
	if !ok {
		return apperr.Newf(apperr.Configuration, "plex: no library section configured for %q", filePath)
	}

	q := url.Values{}
	q.Set("path", filepath.Dir(filePath))
	reqURL := fmt.Sprintf("%s/library/sections/%d/refresh?%s", s.baseURL, section, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperr.New(apperr.Internal, err)
	}
	s.setPlexHeaders(req)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return apperr.New(apperr.TransientExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return apperr.Newf(apperr.TransientExternal, "plex: refresh status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return apperr.Newf(apperr.PermanentExternal, "plex: refresh status %d", resp.StatusCode)
	}
	return nil
}

func (s *PlexMediaServer) resolveSection(filePath string) (int, bool) {
	bestLen := -1
	section, ok := 0, false
	for prefix, id := range s.sections {
		if strings.HasPrefix(filePath, prefix) && len(prefix) > bestLen {
			bestLen = len(prefix)
			section, ok = id, true
		}
	}
	return section, ok
}
