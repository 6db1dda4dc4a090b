package timeline

import (
	"fmt"
	"math"

	"clipforge/internal/overlay"
)

// Action is what a pointer-down over an overlay initiates.
type Action string

const (
	ActionMove        Action = "move"
	ActionResizeStart Action = "resize-start"
	ActionResizeEnd   Action = "resize-end"
)

// DragState is the interaction state machine's current state.
type DragState int

const (
	DragIdle DragState = iota
	DragActive
)

// rowSnapTolerance is how close (in rows) the pointer must be to a row
// center before a cross-row move engages.
const rowSnapTolerance = 0.4

// Drag tracks one in-progress pointer operation from pointer-down to
// pointer-up or cancel. It owns the ghost preview and never touches the
// overlay collection itself; the committed mutation happens in Commit.
//
// Ghost position is recomputed from scratch every tick from the original
// overlay snapshot plus the raw pointer delta, so a dropped or late tick
// cannot accumulate error.
type Drag struct {
	state  DragState
	action Action
	origin overlay.Overlay // snapshot at pointer-down
	startX float64
	startY float64

	pixelsPerFrame float64
	rowHeight      float64
	snapThreshold  int
	push           bool

	ghost       Ghost
	lines       []AlignmentLine
	pushOffsets map[int64]int
}

// DragConfig carries the view-dependent scale factors for one drag.
type DragConfig struct {
	PixelsPerFrame float64
	RowHeight      float64
	SnapThreshold  int // frames
	PushOnDrag     bool
}

// Begin starts a drag for the given overlay and action at pointer position
// (x, y) in pixels. A pointer-down while another drag is active is
// ignored; the return value reports whether the drag started.
func (d *Drag) Begin(o overlay.Overlay, action Action, x, y float64, cfg DragConfig) bool {
	if d.state != DragIdle {
		return false
	}
	if cfg.PixelsPerFrame <= 0 || cfg.RowHeight <= 0 {
		return false
	}
	d.state = DragActive
	d.action = action
	d.origin = o.Clone()
	d.startX = x
	d.startY = y
	d.pixelsPerFrame = cfg.PixelsPerFrame
	d.rowHeight = cfg.RowHeight
	d.snapThreshold = cfg.SnapThreshold
	d.push = cfg.PushOnDrag
	d.ghost = Ghost{ID: o.ID, From: o.From, Row: o.Row, DurationInFrames: o.DurationInFrames}
	d.lines = nil
	d.pushOffsets = nil
	return true
}

// Update recomputes the ghost for the current pointer position. It is a
// no-op when idle. Visible state (ghost, alignment lines, push offsets)
// is replaced wholesale each tick.
func (d *Drag) Update(col overlay.Collection, x, y float64, playhead, visibleRows int) {
	if d.state != DragActive {
		return
	}
	deltaFrames := int(math.Round((x - d.startX) / d.pixelsPerFrame))

	g := Ghost{ID: d.origin.ID, From: d.origin.From, Row: d.origin.Row, DurationInFrames: d.origin.DurationInFrames}
	d.lines = nil

	switch d.action {
	case ActionMove:
		g.From = d.origin.From + deltaFrames
		if g.From < 0 {
			g.From = 0
		}
		rowPos := float64(d.origin.Row) + (y-d.startY)/d.rowHeight
		if row, ok := SnapRow(rowPos, rowSnapTolerance, visibleRows); ok {
			g.Row = row
		}
		res := Snap(g, col, playhead, d.snapThreshold)
		g = res.Ghost
		d.lines = res.Lines
		if g.From < 0 {
			g.From = 0
		}

	case ActionResizeStart:
		frame := d.origin.From + deltaFrames
		frame, line := SnapEdge(frame, EdgeStart, g, col, playhead, d.snapThreshold)
		frame = clamp(frame, 0, d.origin.End()-MinDurationFrames)
		g.From = frame
		g.DurationInFrames = d.origin.End() - frame
		if line != nil {
			d.lines = []AlignmentLine{*line}
		}

	case ActionResizeEnd:
		end := d.origin.End() + deltaFrames
		end, line := SnapEdge(end, EdgeEnd, g, col, playhead, d.snapThreshold)
		if end < d.origin.From+MinDurationFrames {
			end = d.origin.From + MinDurationFrames
		}
		g.DurationInFrames = end - d.origin.From
		if line != nil {
			d.lines = []AlignmentLine{*line}
		}
	}

	d.ghost = g
	if d.push && d.action == ActionMove {
		d.pushOffsets = PushOffsets(col, g)
	} else {
		d.pushOffsets = nil
	}
}

// Commit atomically applies the pending operation and returns the new
// collection. Either the full mutation applies or, on failure, the input
// collection is returned unchanged along with the error. The drag returns
// to idle and the ghost is discarded in both cases.
func (d *Drag) Commit(col overlay.Collection, visibleRows int) (overlay.Collection, error) {
	if d.state != DragActive {
		return col, fmt.Errorf("commit: no active drag")
	}
	g := d.ghost
	action := d.action
	push := d.push
	d.reset()

	switch action {
	case ActionMove:
		return Move(col, g.ID, g.From, g.Row, visibleRows, push)
	case ActionResizeStart:
		return Resize(col, g.ID, EdgeStart, g.From)
	case ActionResizeEnd:
		return Resize(col, g.ID, EdgeEnd, g.End())
	}
	return col, fmt.Errorf("commit: unknown action %q", action)
}

// Cancel abandons the drag without committing. The ghost is discarded and
// the collection is untouched.
func (d *Drag) Cancel() {
	d.reset()
}

// Active reports whether a drag is in progress.
func (d *Drag) Active() bool {
	return d.state == DragActive
}

// Ghost returns the current preview position; ok is false when idle.
func (d *Drag) Ghost() (Ghost, bool) {
	return d.ghost, d.state == DragActive
}

// Lines returns the alignment lines engaged on the last tick.
func (d *Drag) Lines() []AlignmentLine {
	return d.lines
}

// PushPreview returns the live push offsets for the last tick, keyed by
// overlay id. Empty unless push-on-drag is enabled.
func (d *Drag) PushPreview() map[int64]int {
	return d.pushOffsets
}

func (d *Drag) reset() {
	d.state = DragIdle
	d.action = ""
	d.origin = overlay.Overlay{}
	d.ghost = Ghost{}
	d.lines = nil
	d.pushOffsets = nil
}
