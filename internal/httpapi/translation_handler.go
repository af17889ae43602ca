package httpapi

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
	"github.com/Abrechen2/sublarr-sub006/internal/subtitle"
	"github.com/Abrechen2/sublarr-sub006/internal/translation"
)

// TranslationHandler serves the async translate endpoint and translation
// memory administration.
type TranslationHandler struct {
	jobs        *TranslationJobStore
	orchestrator *translation.Orchestrator
	memoryRepo  *store.TranslationMemoryRepository
	backend     translation.BatchTranslateFunc
}

func NewTranslationHandler(jobs *TranslationJobStore, orchestrator *translation.Orchestrator, memoryRepo *store.TranslationMemoryRepository, backend translation.BatchTranslateFunc) *TranslationHandler {
	return &TranslationHandler{jobs: jobs, orchestrator: orchestrator, memoryRepo: memoryRepo, backend: backend}
}

type translateRequest struct {
	FilePath   string `json:"file_path"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Backend    string `json:"backend"`
}

// Translate handles POST /api/v1/translate: it queues the file for
// translation and returns a job id immediately.
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if req.FilePath == "" || req.SourceLang == "" || req.TargetLang == "" {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "file_path, source_lang and target_lang are required"))
		return
	}

	job := h.jobs.Create(req.FilePath)
	go h.run(job.ID, req)

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID, "status": string(TranslationJobQueued)})
}

// JobStatus handles GET /api/v1/translate/{id}.
func (h *TranslationHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, ok := h.jobs.Get(id)
	if !ok {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "no translation job %q", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *TranslationHandler) run(jobID string, req translateRequest) {
	h.jobs.Update(jobID, func(j *TranslationJob) { j.Status = TranslationJobRunning })

	ctx := context.Background()
	raw, err := os.ReadFile(req.FilePath)
	if err != nil {
		h.fail(jobID, err)
		return
	}
	sub, err := subtitle.Parse(raw, formatOf(req.FilePath))
	if err != nil {
		h.fail(jobID, err)
		return
	}

	lines := make([]translation.Line, len(sub.Cues))
	for i, cue := range sub.Cues {
		lines[i] = translation.Line{Index: i, Text: cue.Text}
	}

	translated, err := h.orchestrator.Translate(ctx, req.SourceLang, req.TargetLang, lines, h.backend)
	if err != nil {
		h.fail(jobID, err)
		return
	}
	for i, line := range translated {
		sub.Cues[i].Text = line.Text
	}

	out, err := subtitle.Serialize(sub)
	if err != nil {
		h.fail(jobID, err)
		return
	}
	if err := os.WriteFile(req.FilePath, out, 0o644); err != nil {
		h.fail(jobID, err)
		return
	}

	h.jobs.Update(jobID, func(j *TranslationJob) { j.Status = TranslationJobComplete })
}

func formatOf(path string) subtitle.Format {
	if strings.HasSuffix(strings.ToLower(path), ".ass") {
		return subtitle.FormatASS
	}
	return subtitle.FormatSRT
}

func (h *TranslationHandler) fail(jobID string, err error) {
	h.jobs.Update(jobID, func(j *TranslationJob) {
		j.Status = TranslationJobFailed
		j.Error = err.Error()
	})
}

// MemoryStats handles GET /api/v1/translation-memory/stats.
func (h *TranslationHandler) MemoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.memoryRepo.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ClearMemoryCache handles DELETE /api/v1/translation-memory/cache.
func (h *TranslationHandler) ClearMemoryCache(w http.ResponseWriter, r *http.Request) {
	if err := h.memoryRepo.DeleteAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
