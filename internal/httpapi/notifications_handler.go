package httpapi

import (
	"net/http"
	"strconv"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// NotificationsHandler serves templates, quiet-hours rules and delivery
// history for the notification system.
type NotificationsHandler struct {
	repo *store.NotificationRepository
}

func NewNotificationsHandler(repo *store.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{repo: repo}
}

func (h *NotificationsHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.repo.ListTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *NotificationsHandler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	var t store.NotificationTemplate
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if err := h.repo.UpsertTemplate(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *NotificationsHandler) ListQuietHours(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repo.ListQuietHours(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *NotificationsHandler) PutQuietHours(w http.ResponseWriter, r *http.Request) {
	var rule store.QuietHoursRule
	if err := decodeJSON(r, &rule); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if err := h.repo.UpsertQuietHours(r.Context(), rule); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *NotificationsHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	history, err := h.repo.ListHistory(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
