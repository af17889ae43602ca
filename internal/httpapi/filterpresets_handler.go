package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Abrechen2/sublarr-sub006/internal/apperr"
	"github.com/Abrechen2/sublarr-sub006/internal/filterquery"
	"github.com/Abrechen2/sublarr-sub006/internal/store"
)

// FilterPresetHandler serves saved filter presets over the wanted_items
// condition-tree field allow-list; Create/Update reject a condition tree
// referencing a field outside filterquery.WantedItemFields with a 400, and
// Evaluate compiles the saved tree to list the items it currently matches.
type FilterPresetHandler struct {
	repo   *store.FilterPresetRepository
	wanted *store.WantedRepository
}

func NewFilterPresetHandler(repo *store.FilterPresetRepository, wanted *store.WantedRepository) *FilterPresetHandler {
	return &FilterPresetHandler{repo: repo, wanted: wanted}
}

func (h *FilterPresetHandler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *FilterPresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p store.FilterPreset
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if _, _, err := filterquery.Compile(p.ConditionTree, filterquery.WantedItemFields); err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.Create(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Evaluate handles GET /api/v1/filter-presets/{id}/evaluate, compiling the
// preset's saved condition tree and returning the wanted items it matches.
func (h *FilterPresetHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	preset, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if preset == nil {
		writeError(w, apperr.Newf(apperr.ContentInvalid, "no filter preset with id %d", id))
		return
	}

	where, args, err := filterquery.Compile(preset.ConditionTree, filterquery.WantedItemFields)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.wanted.ListByCondition(r.Context(), where, args, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FilterPresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var p store.FilterPreset
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, apperr.New(apperr.ContentInvalid, err))
		return
	}
	if _, _, err := filterquery.Compile(p.ConditionTree, filterquery.WantedItemFields); err != nil {
		writeError(w, err)
		return
	}
	p.ID = id
	if err := h.repo.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *FilterPresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func idParam(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.ContentInvalid, "invalid id %q", raw)
	}
	return id, nil
}
