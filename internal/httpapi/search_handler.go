package httpapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/translation"
)

// SearchHandler serves fuzzy suggestions over wanted items, ranked by the
// same LCS-ratio similarity translation memory uses for fuzzy matches.
type SearchHandler struct {
	wanted *store.WantedRepository
}

func NewSearchHandler(wanted *store.WantedRepository) *SearchHandler {
	return &SearchHandler{wanted: wanted}
}

type searchSuggestion struct {
	ID         int64   `json:"id"`
	FilePath   string  `json:"file_path"`
	MediaTitle string  `json:"media_title"`
	Score      float64 `json:"score"`
}

// Suggest handles GET /api/v1/search?q=.
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "q must be at least 2 characters"))
		return
	}

	items, err := h.wanted.ListWanted(r.Context(), store.WantedFilter{Limit: 1000})
	if err != nil {
		writeError(w, err)
		return
	}

	needle := translation.Normalize(q)
	suggestions := make([]searchSuggestion, 0, len(items))
	for _, it := range items {
		score := similarityScore(needle, translation.Normalize(it.MediaTitle))
		if score <= 0 {
			continue
		}
		suggestions = append(suggestions, searchSuggestion{ID: it.ID, FilePath: it.FilePath, MediaTitle: it.MediaTitle, Score: score})
	}

	sort.Slice(suggestions, func(i, j int) bool { return suggestions[i].Score > suggestions[j].Score })
	if len(suggestions) > 25 {
		suggestions = suggestions[:25]
	}

	writeJSON(w, http.StatusOK, suggestions)
}

// similarityScore gives substring matches top marks and falls back to
// translation's LCS-ratio similarity for everything else, so "Breaking Bd"
// still surfaces "Breaking Bad".
func similarityScore(needle, haystack string) float64 {
	if haystack == "" {
		return 0
	}
	if strings.Contains(haystack, needle) {
		return 1.0
	}
	return translation.Similarity(needle, haystack)
}
