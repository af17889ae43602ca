package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handlers bundles every resource handler Register mounts. Each field may
// be nil in a minimal build (e.g. the translate endpoints when translation
// is disabled); Register only mounts the routes for non-nil handlers.
type Handlers struct {
	Wanted        *WantedHandler
	FilterPresets *FilterPresetHandler
	Translation   *TranslationHandler
	Health        *HealthHandler
	Tasks         *TasksHandler
	Cleanup       *CleanupHandler
	Notifications *NotificationsHandler
	Hooks         *HooksHandler
	Search        *SearchHandler
}

// Register mounts Sublarr's REST surface onto r under /api/v1.
func Register(r *mux.Router, h Handlers) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(corsMiddleware)

	if h.Wanted != nil {
		api.HandleFunc("/wanted", h.Wanted.List).Methods(http.MethodGet)
		api.HandleFunc("/wanted/batch-action", h.Wanted.BatchAction).Methods(http.MethodPost)
		api.HandleFunc("/wanted/refresh", h.Wanted.Refresh).Methods(http.MethodPost)
		api.HandleFunc("/wanted/search-all", h.Wanted.SearchAll).Methods(http.MethodPost)
	}

	if h.Search != nil {
		api.HandleFunc("/search", h.Search.Suggest).Methods(http.MethodGet)
	}

	if h.FilterPresets != nil {
		api.HandleFunc("/filter-presets", h.FilterPresets.List).Methods(http.MethodGet)
		api.HandleFunc("/filter-presets", h.FilterPresets.Create).Methods(http.MethodPost)
		api.HandleFunc("/filter-presets/{id}", h.FilterPresets.Update).Methods(http.MethodPut)
		api.HandleFunc("/filter-presets/{id}", h.FilterPresets.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/filter-presets/{id}/evaluate", h.FilterPresets.Evaluate).Methods(http.MethodGet)
	}

	if h.Translation != nil {
		api.HandleFunc("/translate", h.Translation.Translate).Methods(http.MethodPost)
		api.HandleFunc("/translate/{id}", h.Translation.JobStatus).Methods(http.MethodGet)
		api.HandleFunc("/translation-memory/stats", h.Translation.MemoryStats).Methods(http.MethodGet)
		api.HandleFunc("/translation-memory/cache", h.Translation.ClearMemoryCache).Methods(http.MethodDelete)
	}

	if h.Health != nil {
		api.HandleFunc("/health", h.Health.Shallow).Methods(http.MethodGet)
		api.HandleFunc("/health/detailed", h.Health.Detailed).Methods(http.MethodGet)
	}

	if h.Tasks != nil {
		api.HandleFunc("/tasks", h.Tasks.List).Methods(http.MethodGet)
		api.HandleFunc("/tasks/{name}/run", h.Tasks.Run).Methods(http.MethodPost)
	}

	if h.Cleanup != nil {
		api.HandleFunc("/cleanup/stats", h.Cleanup.Stats).Methods(http.MethodGet)
		api.HandleFunc("/cleanup/dedup-scan", h.Cleanup.DedupScan).Methods(http.MethodPost)
		api.HandleFunc("/duplicates", h.Cleanup.Duplicates).Methods(http.MethodGet)
		api.HandleFunc("/duplicates/delete", h.Cleanup.DeleteDuplicates).Methods(http.MethodPost)
	}

	if h.Notifications != nil {
		api.HandleFunc("/notifications/templates", h.Notifications.ListTemplates).Methods(http.MethodGet)
		api.HandleFunc("/notifications/templates", h.Notifications.PutTemplate).Methods(http.MethodPost, http.MethodPut)
		api.HandleFunc("/notifications/quiet-hours", h.Notifications.ListQuietHours).Methods(http.MethodGet)
		api.HandleFunc("/notifications/quiet-hours", h.Notifications.PutQuietHours).Methods(http.MethodPost, http.MethodPut)
		api.HandleFunc("/notifications/history", h.Notifications.ListHistory).Methods(http.MethodGet)
	}

	if h.Hooks != nil {
		api.HandleFunc("/hooks", h.Hooks.List).Methods(http.MethodGet)
		api.HandleFunc("/hooks/{kind}/{id}/test", h.Hooks.Test).Methods(http.MethodPost)
		api.HandleFunc("/hooks/{kind}/{id}/logs", h.Hooks.Logs).Methods(http.MethodGet)
	}
}
