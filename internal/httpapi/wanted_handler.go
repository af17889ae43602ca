package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

const maxBatchActionIDs = 500

// Triggerable is satisfied by the scheduler; the handler never imports the
// scheduler package directly to avoid a layering cycle with cmd/sublarr.
type Triggerable interface {
	Trigger(ctx context.Context, taskName string) error
}

// WantedHandler serves the wanted-item queue endpoints.
type WantedHandler struct {
	repo      *store.WantedRepository
	blacklist *store.BlacklistRepository
	scheduler Triggerable
}

func NewWantedHandler(repo *store.WantedRepository, blacklist *store.BlacklistRepository, scheduler Triggerable) *WantedHandler {
	return &WantedHandler{repo: repo, blacklist: blacklist, scheduler: scheduler}
}

type wantedListResponse struct {
	Items   []store.WantedItem `json:"items"`
	Summary wantedSummary       `json:"summary"`
}

type wantedSummary struct {
	Total int `json:"total"`
}

// List handles GET /api/v1/wanted.
func (h *WantedHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.WantedFilter{
		Status:         store.WantedStatus(q.Get("status")),
		TargetLanguage: q.Get("subtitle_type"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	items, err := h.repo.ListWanted(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	if search != "" {
		filtered := items[:0]
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.MediaTitle), search) || strings.Contains(strings.ToLower(it.FilePath), search) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	writeJSON(w, http.StatusOK, wantedListResponse{Items: items, Summary: wantedSummary{Total: len(items)}})
}

type batchActionRequest struct {
	Action string  `json:"action"`
	IDs    []int64 `json:"ids"`
}

// BatchAction handles POST /api/v1/wanted/batch-action.
func (h *WantedHandler) BatchAction(w http.ResponseWriter, r *http.Request) {
	var req batchActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "ids must not be empty"))
		return
	}
	if len(req.IDs) > maxBatchActionIDs {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "batch action accepts at most %d ids", maxBatchActionIDs))
		return
	}

	ctx := r.Context()
	succeeded := make([]int64, 0, len(req.IDs))
	for _, id := range req.IDs {
		if err := h.applyAction(ctx, req.Action, id); err != nil {
			continue
		}
		succeeded = append(succeeded, id)
	}

	writeJSON(w, http.StatusOK, map[string]any{"action": req.Action, "applied": succeeded})
}

func (h *WantedHandler) applyAction(ctx context.Context, action string, id int64) error {
	switch action {
	case "ignore":
		return h.repo.TransitionStatus(ctx, id, nil, store.StatusIgnored)
	case "unignore":
		return h.repo.TransitionStatus(ctx, id, []store.WantedStatus{store.StatusIgnored}, store.StatusWanted)
	case "blacklist":
		item, err := h.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.Newf(apperr.ContentInvalid, "wanted item %d not found", id)
		}
		if err := h.blacklist.Add(ctx, &store.BlacklistEntry{FilePath: item.FilePath}); err != nil {
			return err
		}
		return h.repo.TransitionStatus(ctx, id, nil, store.StatusIgnored)
	case "export":
		return nil
	default:
		return apperr.Newf(apperr.ContentInvalid, "unknown action %q", action)
	}
}

// Refresh handles POST /api/v1/wanted/refresh, triggering the library scan.
func (h *WantedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.triggerTask(w, r, "wanted_scan")
}

// SearchAll handles POST /api/v1/wanted/search-all, triggering the searcher.
func (h *WantedHandler) SearchAll(w http.ResponseWriter, r *http.Request) {
	h.triggerTask(w, r, "wanted_search")
}

func (h *WantedHandler) triggerTask(w http.ResponseWriter, r *http.Request, name string) {
	if h.scheduler == nil {
		writeError(w, fmt.Errorf("scheduler not wired"))
		return
	}
	if err := h.scheduler.Trigger(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task": name, "status": "triggered"})
}
