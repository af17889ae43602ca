package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/events"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// HookTester is implemented by events.HookSubscriber/WebhookSubscriber.
type HookTester interface {
	Handle(ctx context.Context, event events.Name, payload map[string]any) error
}

// HooksHandler serves shell-hook and webhook definitions, a manual test
// trigger, and their delivery logs.
type HooksHandler struct {
	repo   *store.HookRepository
	finder func(kind string, id int64) (HookTester, bool)
}

func NewHooksHandler(repo *store.HookRepository, finder func(kind string, id int64) (HookTester, bool)) *HooksHandler {
	return &HooksHandler{repo: repo, finder: finder}
}

func (h *HooksHandler) List(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.repo.ListHooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	webhooks, err := h.repo.ListWebhooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hooks": hooks, "webhooks": webhooks})
}

// Test handles POST /api/v1/hooks/{kind}/{id}/test by dispatching a
// synthetic event at the identified subscriber.
func (h *HooksHandler) Test(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "invalid id %q", vars["id"]))
		return
	}

	sub, ok := h.finder(kind, id)
	if !ok {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "no %s with id %d", kind, id))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	if err := sub.Handle(ctx, events.Name("test_event"), map[string]any{"file_path": "/test/fixture.srt"}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}

func (h *HooksHandler) Logs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	id, _ := strconv.ParseInt(vars["id"], 10, 64)
	logs, err := h.repo.ListLogs(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
