package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"clipforge/internal/database"
	"clipforge/internal/timeline"
)

type TemplateRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Snapshot    timeline.Snapshot `json:"snapshot"`
}

func (h *Handlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}
	rows := req.Snapshot.VisibleRows
	if rows <= 0 {
		rows = timeline.DefaultVisibleRows
	}
	if err := req.Snapshot.Overlays.Validate(rows); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := json.Marshal(req.Snapshot)
	if err != nil {
		http.Error(w, "Failed to serialize snapshot", http.StatusInternalServerError)
		return
	}
	id, err := h.db.CreateTemplate(req.Name, req.Description, string(snapshot))
	if err != nil {
		http.Error(w, "Failed to create template", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.db.ListTemplates()
	if err != nil {
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}
	if templates == nil {
		templates = []database.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handlers) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	tmpl, err := h.db.GetTemplate(id)
	if errors.Is(err, database.ErrNoRows) {
		http.Error(w, "Template not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get template", http.StatusInternalServerError)
		return
	}
	var snapshot timeline.Snapshot
	if err := json.Unmarshal([]byte(tmpl.Snapshot), &snapshot); err != nil {
		http.Error(w, "Stored template is corrupt", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": tmpl,
		"snapshot": snapshot,
	})
}

func (h *Handlers) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid template id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteTemplate(id); err != nil {
		http.Error(w, "Failed to delete template", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}
