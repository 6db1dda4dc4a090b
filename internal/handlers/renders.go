package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"clipforge/internal/database"
	"clipforge/internal/logging"
	"clipforge/internal/render"
	"clipforge/internal/timeline"
)

// RenderRequest submits a render. When Snapshot is omitted the stored
// project snapshot is rendered instead, so the export button works
// without re-uploading the timeline.
type RenderRequest struct {
	CompositionID string             `json:"compositionId"`
	ProjectID     int64              `json:"projectId,omitempty"`
	Format        string             `json:"format"`
	Codec         string             `json:"codec,omitempty"`
	Snapshot      *timeline.Snapshot `json:"snapshot,omitempty"`
}

func (h *Handlers) SubmitRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Format == "" {
		http.Error(w, "Format is required", http.StatusBadRequest)
		return
	}

	var snapshot timeline.Snapshot
	switch {
	case req.Snapshot != nil:
		snapshot = *req.Snapshot
	case req.ProjectID != 0:
		project, err := h.db.GetProject(req.ProjectID)
		if errors.Is(err, database.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to load project", http.StatusInternalServerError)
			return
		}
		if err := json.Unmarshal([]byte(project.Snapshot), &snapshot); err != nil {
			http.Error(w, "Stored snapshot is corrupt", http.StatusInternalServerError)
			return
		}
	default:
		http.Error(w, "Either snapshot or projectId is required", http.StatusBadRequest)
		return
	}

	id, err := h.render.Submit(render.Request{
		CompositionID: req.CompositionID,
		ProjectID:     req.ProjectID,
		Snapshot:      snapshot,
		Format:        req.Format,
		Codec:         req.Codec,
	})
	if errors.Is(err, render.ErrUnknownFormat) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "Failed to submit render", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (h *Handlers) PollRender(w http.ResponseWriter, r *http.Request) {
	job, err := h.render.Poll(mux.Vars(r)["id"])
	if errors.Is(err, render.ErrUnknownJob) {
		http.Error(w, "Render not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to poll render", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handlers) ListRenders(w http.ResponseWriter, r *http.Request) {
	renders, err := h.db.ListRenders()
	if err != nil {
		http.Error(w, "Failed to list renders", http.StatusInternalServerError)
		return
	}
	if renders == nil {
		renders = []database.RenderRecord{}
	}
	writeJSON(w, http.StatusOK, renders)
}

func (h *Handlers) DeleteRender(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := h.db.GetRender(id)
	if errors.Is(err, database.ErrNoRows) {
		http.Error(w, "Render not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get render", http.StatusInternalServerError)
		return
	}
	if rec.OutputPath != "" {
		if err := os.Remove(rec.OutputPath); err != nil && !os.IsNotExist(err) {
			logging.Warn("Failed to remove render output %s: %v", rec.OutputPath, err)
		}
	}
	if err := h.db.DeleteRender(id); err != nil {
		http.Error(w, "Failed to delete render", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// ServeRenderFile streams a finished render's output.
func (h *Handlers) ServeRenderFile(w http.ResponseWriter, r *http.Request) {
	path, err := h.render.OutputPath(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Render output not available", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// ListPresets returns the configured export presets.
func (h *Handlers) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.render.Presets())
}
