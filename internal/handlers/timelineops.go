package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"clipforge/internal/database"
	"clipforge/internal/metrics"
	"clipforge/internal/overlay"
	"clipforge/internal/timeline"
)

// TimelineOpRequest applies one mutation operation to a stored project's
// snapshot server-side. The client normally runs the engines locally;
// this endpoint is the authoritative fallback the panels use for
// operations that touch server resources (detach-audio) or for thin
// clients.
type TimelineOpRequest struct {
	Op string `json:"op"`

	OverlayID int64         `json:"overlayId,omitempty"`
	Frame     int           `json:"frame,omitempty"`
	From      int           `json:"from,omitempty"`
	Row       int           `json:"row,omitempty"`
	RowB      int           `json:"rowB,omitempty"`
	GapStart  int           `json:"gapStart,omitempty"`
	GapEnd    int           `json:"gapEnd,omitempty"`
	Edge      timeline.Edge `json:"edge,omitempty"`
}

// ApplyTimelineOp loads the project snapshot into an editor, applies one
// operation, and persists the result. The whole request is atomic: a
// rejected operation leaves the stored snapshot untouched and returns
// 409 with the reason.
func (h *Handlers) ApplyTimelineOp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid project id", http.StatusBadRequest)
		return
	}
	var req TimelineOpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	project, err := h.db.GetProject(id)
	if errors.Is(err, database.ErrNoRows) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load project", http.StatusInternalServerError)
		return
	}
	var snapshot timeline.Snapshot
	if err := json.Unmarshal([]byte(project.Snapshot), &snapshot); err != nil {
		http.Error(w, "Stored snapshot is corrupt", http.StatusInternalServerError)
		return
	}

	editor := timeline.NewEditor(snapshot.DurationInFrames)
	editor.SetPushOnDrag(h.pushOnDrag)
	editor.Restore(snapshot)

	opErr := h.applyOp(r, editor, &req)
	status := "ok"
	if opErr != nil {
		status = "rejected"
	}
	metrics.TimelineOpsTotal.WithLabelValues(req.Op, status).Inc()
	if opErr != nil {
		http.Error(w, opErr.Error(), http.StatusConflict)
		return
	}

	updated := editor.Snapshot()
	raw, err := json.Marshal(updated)
	if err != nil {
		http.Error(w, "Failed to serialize snapshot", http.StatusInternalServerError)
		return
	}
	if err := h.db.UpdateProject(id, project.Name, updated.AspectRatio, updated.DurationInFrames, string(raw)); err != nil {
		http.Error(w, "Failed to persist snapshot", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshot": updated})
}

func (h *Handlers) applyOp(r *http.Request, editor *timeline.Editor, req *TimelineOpRequest) error {
	switch req.Op {
	case "split":
		return editor.Split(req.OverlayID, req.Frame)
	case "duplicate":
		return editor.Duplicate(req.OverlayID)
	case "delete":
		editor.Delete(req.OverlayID)
		return nil
	case "delete-row":
		editor.RemoveRow(req.Row)
		return nil
	case "remove-gap":
		return editor.RemoveGap(req.Row, req.GapStart, req.GapEnd)
	case "swap-rows":
		editor.SwapRows(req.Row, req.RowB)
		return nil
	case "move":
		return editor.Move(req.OverlayID, req.From, req.Row)
	case "resize":
		return editor.Resize(req.OverlayID, req.Edge, req.Frame)
	case "detach-audio":
		return h.detachAudio(r, editor, req.OverlayID)
	default:
		return fmt.Errorf("unknown timeline op %q", req.Op)
	}
}

// detachAudio runs both phases of audio detachment: the synchronous
// placeholder insert, then extraction with the never-fail fallback, then
// resolve-by-id. The extraction result (or the bundled clip) always lands
// in the placeholder before the snapshot is persisted.
func (h *Handlers) detachAudio(r *http.Request, editor *timeline.Editor, id int64) error {
	src, ok := editor.Overlays().ByID(id)
	if !ok {
		return overlay.ErrNotFound
	}
	placeholderID, err := editor.DetachAudio(id)
	if err != nil {
		return err
	}

	audioSrc := h.extractor.Fallback()
	if h.ffmpeg && src.Src != "" {
		audioSrc, _ = h.extractor.ExtractOrFallback(r.Context(), h.assetPath(src.Src))
	}
	return editor.ResolveDetachedAudio(placeholderID, audioSrc)
}
