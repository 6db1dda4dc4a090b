package timeline

import (
	"clipforge/internal/overlay"
)

// Editing view defaults. The pixel projection is
// pixel = frame * zoom * basePixelsPerFrame.
const (
	basePixelsPerFrame = 2.0
	defaultRowHeight   = 44.0
	defaultZoom        = 1.0
	// DefaultSnapThreshold is the snap window in frames.
	DefaultSnapThreshold = 5
	// historyLimit caps the undo stack.
	historyLimit = 100
)

// Snapshot is the serializable shape of a project's editing state. It is
// the de facto persisted format: it must round-trip losslessly through
// save and load.
type Snapshot struct {
	ProjectName      string             `json:"projectName"`
	AspectRatio      string             `json:"aspectRatio"`
	DurationInFrames int                `json:"durationInFrames"`
	FPS              int                `json:"fps"`
	VisibleRows      int                `json:"visibleRows"`
	Overlays         overlay.Collection `json:"overlays"`
}

// Editor is the timeline container: the single owner of the overlay
// collection and the ambient view state (visible rows, zoom, playhead,
// selection). All mutations flow through it, which is what makes the
// single-writer guarantee hold; it is not safe for concurrent use and is
// meant to be driven from one goroutine.
//
// It is the composition root only: the algorithms live in the engine
// functions of this package, and undo history is kept as full-collection
// snapshots thanks to the immutable-update discipline.
type Editor struct {
	overlays    overlay.Collection
	visibleRows int

	projectName      string
	aspectRatio      string
	durationInFrames int

	zoom          float64
	rowHeight     float64
	playhead      int
	selected      int64
	snapThreshold int
	pushOnDrag    bool

	drag Drag
	undo []overlay.Collection
	redo []overlay.Collection
}

// NewEditor creates an empty editor with the given timeline length.
func NewEditor(durationInFrames int) *Editor {
	return &Editor{
		visibleRows:      DefaultVisibleRows,
		durationInFrames: durationInFrames,
		zoom:             defaultZoom,
		rowHeight:        defaultRowHeight,
		snapThreshold:    DefaultSnapThreshold,
	}
}

// Overlays returns the committed collection. Callers must treat it as
// read-only; all mutation goes through the editor.
func (e *Editor) Overlays() overlay.Collection { return e.overlays }

// VisibleRows returns the current row count.
func (e *Editor) VisibleRows() int { return e.visibleRows }

// DurationInFrames returns the timeline length.
func (e *Editor) DurationInFrames() int { return e.durationInFrames }

// SetProject sets the project metadata carried into snapshots.
func (e *Editor) SetProject(name, aspectRatio string) {
	e.projectName = name
	e.aspectRatio = aspectRatio
}

// SetPushOnDrag toggles the optional push-on-drag behaviour. Off by
// default; committed state keeps the no-overlap guarantee either way.
func (e *Editor) SetPushOnDrag(enabled bool) { e.pushOnDrag = enabled }

// SetSnapThreshold sets the snap window in frames.
func (e *Editor) SetSnapThreshold(frames int) { e.snapThreshold = frames }

// Zoom returns the current zoom scale.
func (e *Editor) Zoom() float64 { return e.zoom }

// SetZoom sets the zoom scale, ignoring non-positive values.
func (e *Editor) SetZoom(zoom float64) {
	if zoom > 0 {
		e.zoom = zoom
	}
}

// PixelsPerFrame returns the current time-to-pixel projection factor.
func (e *Editor) PixelsPerFrame() float64 { return e.zoom * basePixelsPerFrame }

// FrameToPixel projects a frame position to a pixel offset at the current
// zoom.
func (e *Editor) FrameToPixel(frame int) float64 { return float64(frame) * e.PixelsPerFrame() }

// PixelToFrame projects a pixel offset back to a frame position.
func (e *Editor) PixelToFrame(px float64) int { return int(px / e.PixelsPerFrame()) }

// Playhead returns the current playhead frame.
func (e *Editor) Playhead() int { return e.playhead }

// SetPlayhead moves the playhead, clamped to the timeline bounds.
func (e *Editor) SetPlayhead(frame int) {
	e.playhead = clamp(frame, 0, e.durationInFrames)
}

// Select marks an overlay as selected; zero clears the selection.
func (e *Editor) Select(id int64) { e.selected = id }

// Selected returns the selected overlay id, zero when none.
func (e *Editor) Selected() int64 { return e.selected }

// Add inserts a new overlay. Its id, start, and row are assigned here:
// the id from the collection's monotonic counter, the position from the
// positioning engine. Returns the assigned id.
func (e *Editor) Add(o overlay.Overlay) int64 {
	o.ID = e.overlays.NextID()
	p := FindPlacement(e.overlays, e.visibleRows, e.durationInFrames, o.DurationInFrames)
	o.From = p.From
	o.Row = p.Row
	o.IsDragging = false
	e.pushHistory()
	e.overlays = append(e.overlays.Clone(), o)
	return o.ID
}

// Split cuts an overlay at the given absolute frame.
func (e *Editor) Split(id int64, frame int) error {
	return e.apply(Split(e.overlays, id, frame))
}

// SplitAtPlayhead cuts an overlay at the current playhead position.
func (e *Editor) SplitAtPlayhead(id int64) error {
	return e.Split(id, e.playhead)
}

// Duplicate clones an overlay into the next free slot.
func (e *Editor) Duplicate(id int64) error {
	return e.apply(Duplicate(e.overlays, id, e.visibleRows, e.durationInFrames))
}

// Delete removes an overlay by id.
func (e *Editor) Delete(id int64) {
	if e.overlays.IndexOf(id) < 0 {
		return
	}
	e.pushHistory()
	e.overlays = Delete(e.overlays, id)
	if e.selected == id {
		e.selected = 0
	}
}

// AddRow grows the visible row count, capped at MaxRows.
func (e *Editor) AddRow() { e.visibleRows = GrowRows(e.visibleRows) }

// RemoveRow deletes a row: its overlays are removed and the rows above
// collapse down by one. The timeline keeps at least one row.
func (e *Editor) RemoveRow(row int) {
	if row < 0 || row >= e.visibleRows || e.visibleRows <= 1 {
		return
	}
	e.pushHistory()
	col := DeleteRow(e.overlays, row)
	out := col.Clone()
	for i := range out {
		if out[i].Row > row {
			out[i].Row--
		}
	}
	e.overlays = out
	e.visibleRows--
}

// RemoveGap closes an empty range in one row.
func (e *Editor) RemoveGap(row, gapStart, gapEnd int) error {
	return e.apply(RemoveGap(e.overlays, row, gapStart, gapEnd))
}

// SwapRows exchanges two rows.
func (e *Editor) SwapRows(a, b int) {
	if a == b || a < 0 || b < 0 || a >= e.visibleRows || b >= e.visibleRows {
		return
	}
	e.pushHistory()
	e.overlays = SwapRows(e.overlays, a, b)
}

// Move relocates an overlay directly (outside a drag).
func (e *Editor) Move(id int64, from, row int) error {
	return e.apply(Move(e.overlays, id, from, row, e.visibleRows, e.pushOnDrag))
}

// Resize drags one edge of an overlay directly (outside a drag).
func (e *Editor) Resize(id int64, edge Edge, frame int) error {
	return e.apply(Resize(e.overlays, id, edge, frame))
}

// DetachAudio runs the synchronous half of audio detachment and returns
// the placeholder overlay's id. The caller resolves it later via
// ResolveDetachedAudio with either the extracted source or a fallback.
func (e *Editor) DetachAudio(id int64) (int64, error) {
	col, placeholder, rows, err := DetachAudio(e.overlays, id, e.visibleRows, e.durationInFrames)
	if err != nil {
		return 0, err
	}
	e.pushHistory()
	e.overlays = col
	e.visibleRows = rows
	return placeholder, nil
}

// ResolveDetachedAudio completes audio detachment by filling in the
// placeholder's source. Not a history point: it finishes an operation
// already recorded by DetachAudio.
func (e *Editor) ResolveDetachedAudio(id int64, src string) error {
	col, err := ResolveDetachedAudio(e.overlays, id, src)
	if err != nil {
		return err
	}
	e.overlays = col
	return nil
}

// BeginDrag starts a pointer drag on the given overlay. Returns false if
// the overlay does not exist or another drag is active.
func (e *Editor) BeginDrag(id int64, action Action, x, y float64) bool {
	o, ok := e.overlays.ByID(id)
	if !ok {
		return false
	}
	return e.drag.Begin(o, action, x, y, DragConfig{
		PixelsPerFrame: e.PixelsPerFrame(),
		RowHeight:      e.rowHeight,
		SnapThreshold:  e.snapThreshold,
		PushOnDrag:     e.pushOnDrag,
	})
}

// DragTo feeds a pointer-move tick into the active drag.
func (e *Editor) DragTo(x, y float64) {
	e.drag.Update(e.overlays, x, y, e.playhead, e.visibleRows)
}

// EndDrag commits the active drag. On an invariant violation the
// collection is left exactly as it was before the drag began.
func (e *Editor) EndDrag() error {
	if !e.drag.Active() {
		return nil
	}
	before := e.overlays
	col, err := e.drag.Commit(e.overlays, e.visibleRows)
	if err != nil {
		return err
	}
	if sameCollection(before, col) {
		return nil
	}
	e.undo = appendHistory(e.undo, before)
	e.redo = nil
	e.overlays = col
	return nil
}

// CancelDrag abandons the active drag, discarding the ghost.
func (e *Editor) CancelDrag() { e.drag.Cancel() }

// Dragging reports whether a drag is in progress.
func (e *Editor) Dragging() bool { return e.drag.Active() }

// Ghost returns the active drag's preview position.
func (e *Editor) Ghost() (Ghost, bool) { return e.drag.Ghost() }

// AlignmentLines returns the snap guides engaged on the last drag tick.
func (e *Editor) AlignmentLines() []AlignmentLine { return e.drag.Lines() }

// Undo reverts the last committed mutation. Returns false when the
// history is empty.
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	e.redo = append(e.redo, e.overlays)
	e.overlays = e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	return true
}

// Redo reapplies the last undone mutation.
func (e *Editor) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	e.undo = appendHistory(e.undo, e.overlays)
	e.overlays = e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	return true
}

// Snapshot produces the serializable editing state for persistence.
func (e *Editor) Snapshot() Snapshot {
	return Snapshot{
		ProjectName:      e.projectName,
		AspectRatio:      e.aspectRatio,
		DurationInFrames: e.durationInFrames,
		FPS:              FPS,
		VisibleRows:      e.visibleRows,
		Overlays:         e.overlays.Clone(),
	}
}

// Restore replaces the whole editing state from a snapshot (project load,
// template apply). The previous collection becomes an undo point.
func (e *Editor) Restore(s Snapshot) {
	e.pushHistory()
	e.projectName = s.ProjectName
	e.aspectRatio = s.AspectRatio
	if s.DurationInFrames > 0 {
		e.durationInFrames = s.DurationInFrames
	}
	if s.VisibleRows > 0 {
		e.visibleRows = clamp(s.VisibleRows, 1, MaxRows)
	}
	e.overlays = s.Overlays.Clone()
	e.selected = 0
	e.playhead = clamp(e.playhead, 0, e.durationInFrames)
}

// apply is the common tail of engine-backed mutations: record a history
// point only when the operation succeeded and actually changed something.
func (e *Editor) apply(col overlay.Collection, err error) error {
	if err != nil {
		return err
	}
	if sameCollection(e.overlays, col) {
		return nil
	}
	e.undo = appendHistory(e.undo, e.overlays)
	e.redo = nil
	e.overlays = col
	return nil
}

func (e *Editor) pushHistory() {
	e.undo = appendHistory(e.undo, e.overlays)
	e.redo = nil
}

func appendHistory(stack []overlay.Collection, col overlay.Collection) []overlay.Collection {
	stack = append(stack, col)
	if len(stack) > historyLimit {
		stack = stack[len(stack)-historyLimit:]
	}
	return stack
}

func sameCollection(a, b overlay.Collection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].From != b[i].From ||
			a[i].Row != b[i].Row || a[i].DurationInFrames != b[i].DurationInFrames {
			return false
		}
	}
	return true
}
