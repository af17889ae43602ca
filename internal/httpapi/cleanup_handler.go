package httpapi

import (
	"context"
	"net/http"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/health"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// Deduplicator is implemented by *health.Dedup.
type Deduplicator interface {
	DuplicateGroups(ctx context.Context) ([]store.DuplicateGroup, error)
	DeleteDuplicates(ctx context.Context, groups []store.DuplicateGroup, decisions []health.GroupDecision) error
}

// CleanupHandler serves the deduplication scan, duplicate listing/deletion,
// and aggregate cleanup stats.
type CleanupHandler struct {
	dedup     Deduplicator
	cleanup   *store.CleanupRepository
	scheduler Triggerable
}

func NewCleanupHandler(dedup Deduplicator, cleanup *store.CleanupRepository, scheduler Triggerable) *CleanupHandler {
	return &CleanupHandler{dedup: dedup, cleanup: cleanup, scheduler: scheduler}
}

func (h *CleanupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	count, err := h.cleanup.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total_actions": count})
}

func (h *CleanupHandler) DedupScan(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, apperr.Newf(apperr.Internal, "dedup scanner not wired"))
		return
	}
	if err := h.scheduler.Trigger(r.Context(), "dedup_scan"); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (h *CleanupHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := h.dedup.DuplicateGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

type deleteDuplicatesRequest struct {
	Groups []struct {
		KeepID     string   `json:"keep_id"`
		DeleteIDs  []string `json:"delete_ids"`
		ContentHash string  `json:"content_hash"`
	} `json:"groups"`
}

func (h *CleanupHandler) DeleteDuplicates(w http.ResponseWriter, r *http.Request) {
	var req deleteDuplicatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}

	groups, err := h.dedup.DuplicateGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	decisions := make([]health.GroupDecision, 0, len(req.Groups))
	for _, g := range req.Groups {
		decisions = append(decisions, health.GroupDecision{ContentHash: g.ContentHash, Keep: g.KeepID})
	}

	if err := h.dedup.DeleteDuplicates(r.Context(), groups, decisions); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
