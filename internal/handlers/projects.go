package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clipforge/internal/database"
	"clipforge/internal/timeline"
)

// ProjectRequest is the create/update payload: project metadata plus the
// full timeline snapshot.
type ProjectRequest struct {
	Name     string            `json:"name"`
	Snapshot timeline.Snapshot `json:"snapshot"`
}

// decodeSnapshot validates a snapshot before it is allowed anywhere near
// the store: the timeline engines assume persisted collections already
// satisfy the at-rest invariants.
func decodeSnapshot(r *http.Request) (*ProjectRequest, error) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	rows := req.Snapshot.VisibleRows
	if rows <= 0 {
		rows = timeline.DefaultVisibleRows
		req.Snapshot.VisibleRows = rows
	}
	if err := req.Snapshot.Overlays.Validate(rows); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSnapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	snapshot, err := json.Marshal(req.Snapshot)
	if err != nil {
		http.Error(w, "Failed to serialize snapshot", http.StatusInternalServerError)
		return
	}
	id, err := h.db.CreateProject(req.Name, req.Snapshot.AspectRatio, req.Snapshot.DurationInFrames, string(snapshot))
	if err != nil {
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.ListProjects()
	if err != nil {
		http.Error(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}
	if projects == nil {
		projects = []database.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	project, err := h.db.GetProject(id)
	if errors.Is(err, database.ErrNoRows) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get project", http.StatusInternalServerError)
		return
	}

	var snapshot timeline.Snapshot
	if err := json.Unmarshal([]byte(project.Snapshot), &snapshot); err != nil {
		http.Error(w, "Stored snapshot is corrupt", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project":  project,
		"snapshot": snapshot,
	})
}

func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	req, err := decodeSnapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snapshot, err := json.Marshal(req.Snapshot)
	if err != nil {
		http.Error(w, "Failed to serialize snapshot", http.StatusInternalServerError)
		return
	}
	err = h.db.UpdateProject(id, req.Name, req.Snapshot.AspectRatio, req.Snapshot.DurationInFrames, string(snapshot))
	if errors.Is(err, database.ErrNoRows) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update project", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteProject(id); err != nil {
		http.Error(w, "Failed to delete project", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// SaveAutosave stores the latest autosave snapshot for a project. The
// client drives the schedule; the server only keeps the most recent blob.
func (h *Handlers) SaveAutosave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	req, err := decodeSnapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snapshot, err := json.Marshal(req.Snapshot)
	if err != nil {
		http.Error(w, "Failed to serialize snapshot", http.StatusInternalServerError)
		return
	}
	if err := h.db.SaveAutosave(id, string(snapshot)); err != nil {
		http.Error(w, "Failed to save autosave", http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// GetAutosave returns the latest autosave snapshot, or null when the
// project has never autosaved.
func (h *Handlers) GetAutosave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	raw, savedAt, err := h.db.GetAutosave(id)
	if err != nil {
		http.Error(w, "Failed to get autosave", http.StatusInternalServerError)
		return
	}
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"snapshot": nil})
		return
	}
	var snapshot timeline.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		http.Error(w, "Stored autosave is corrupt", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snapshot,
		"savedAt":  savedAt.UTC().Format(time.RFC3339),
	})
}
