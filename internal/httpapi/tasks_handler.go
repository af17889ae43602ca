package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Abrechen2/sublarr-sub006/internal/scheduler"
)

// TaskState is the JSON view of a scheduler.TaskState.
type TaskState struct {
	Name      string `json:"name"`
	Running   bool   `json:"running"`
	LastRun   string `json:"last_run,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Interval  string `json:"interval,omitempty"`
}

// TasksHandler serves the scheduler's task list and manual-trigger endpoint.
type TasksHandler struct {
	scheduler *scheduler.Scheduler
}

func NewTasksHandler(s *scheduler.Scheduler) *TasksHandler {
	return &TasksHandler{scheduler: s}
}

func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := h.scheduler.States()
	out := make([]TaskState, len(raw))
	for i, t := range raw {
		state := TaskState{Name: t.Name, Running: t.Running, LastError: t.LastError, Interval: t.Interval.String()}
		if !t.LastRun.IsZero() {
			state.LastRun = t.LastRun.Format(timeFormat)
		}
		if !t.NextRun.IsZero() {
			state.NextRun = t.NextRun.Format(timeFormat)
		}
		out[i] = state
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TasksHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.scheduler.Trigger(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"task": name, "status": "triggered"})
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
