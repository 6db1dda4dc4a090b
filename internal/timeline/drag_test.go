package timeline

import (
	"testing"

	"clipforge/internal/overlay"
)

func testDragConfig() DragConfig {
	return DragConfig{PixelsPerFrame: 2.0, RowHeight: 44.0, SnapThreshold: 0}
}

func TestDragBegin(t *testing.T) {
	o := overlay.Overlay{ID: 1, From: 100, DurationInFrames: 50, Row: 0}

	var d Drag
	if !d.Begin(o, ActionMove, 200, 22, testDragConfig()) {
		t.Fatal("Begin should succeed from idle")
	}
	if !d.Active() {
		t.Error("Drag should be active after Begin")
	}
	g, ok := d.Ghost()
	if !ok || g.From != 100 || g.Row != 0 || g.DurationInFrames != 50 {
		t.Errorf("Ghost should mirror the overlay at pointer-down, got %+v", g)
	}
}

func TestDragSecondPointerDownIgnored(t *testing.T) {
	o := overlay.Overlay{ID: 1, From: 100, DurationInFrames: 50, Row: 0}
	other := overlay.Overlay{ID: 2, From: 300, DurationInFrames: 50, Row: 1}

	var d Drag
	d.Begin(o, ActionMove, 200, 22, testDragConfig())
	if d.Begin(other, ActionMove, 600, 66, testDragConfig()) {
		t.Error("Second pointer-down while active should be ignored")
	}
	g, _ := d.Ghost()
	if g.ID != 1 {
		t.Errorf("Active drag should still belong to overlay 1, got %d", g.ID)
	}
}

func TestDragBeginRejectsBadScale(t *testing.T) {
	o := overlay.Overlay{ID: 1, From: 0, DurationInFrames: 50, Row: 0}

	var d Drag
	if d.Begin(o, ActionMove, 0, 0, DragConfig{PixelsPerFrame: 0, RowHeight: 44}) {
		t.Error("Begin should reject a zero pixels-per-frame scale")
	}
	if d.Begin(o, ActionMove, 0, 0, DragConfig{PixelsPerFrame: 2, RowHeight: 0}) {
		t.Error("Begin should reject a zero row height")
	}
}

func TestDragMoveTick(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionMove, 200, 22, testDragConfig())

	// 60 pixels right at 2 px/frame is 30 frames.
	d.Update(col, 260, 22, 0, DefaultVisibleRows)
	g, _ := d.Ghost()
	if g.From != 130 || g.Row != 0 {
		t.Errorf("Expected ghost at {130, 0}, got {%d, %d}", g.From, g.Row)
	}

	// One row down: 44 pixels.
	d.Update(col, 260, 66, 0, DefaultVisibleRows)
	g, _ = d.Ghost()
	if g.Row != 1 {
		t.Errorf("Expected ghost in row 1, got %d", g.Row)
	}
}

func TestDragRecomputesFromOrigin(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionMove, 200, 22, testDragConfig())

	// Wander far right, then return to the start: the ghost must land back
	// on the original position, not accumulate drift.
	d.Update(col, 500, 22, 0, DefaultVisibleRows)
	d.Update(col, 350, 22, 0, DefaultVisibleRows)
	d.Update(col, 200, 22, 0, DefaultVisibleRows)
	g, _ := d.Ghost()
	if g.From != 100 || g.Row != 0 {
		t.Errorf("Expected ghost back at {100, 0}, got {%d, %d}", g.From, g.Row)
	}
}

func TestDragGhostMayOverlapUntilCommit(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionMove, 0, 22, testDragConfig())
	d.Update(col, 220, 22, 0, DefaultVisibleRows) // ghost at [110, 160), inside overlay 2
	g, _ := d.Ghost()
	if g.From != 110 {
		t.Fatalf("Expected ghost at 110, got %d", g.From)
	}

	// The committed result still honours the no-overlap invariant.
	out, err := d.Commit(col, DefaultVisibleRows)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := out.Validate(DefaultVisibleRows); err != nil {
		t.Errorf("Committed collection violates invariants: %v", err)
	}
}

func TestDragCommitMove(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionMove, 200, 22, testDragConfig())
	d.Update(col, 300, 110, 0, DefaultVisibleRows) // +50 frames, +2 rows

	out, err := d.Commit(col, DefaultVisibleRows)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	moved, _ := out.ByID(1)
	if moved.From != 150 || moved.Row != 2 {
		t.Errorf("Expected overlay at {150, 2}, got {%d, %d}", moved.From, moved.Row)
	}
	if d.Active() {
		t.Error("Drag should be idle after commit")
	}
	if _, ok := d.Ghost(); ok {
		t.Error("Ghost should be discarded after commit")
	}
}

func TestDragCommitResize(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionResizeEnd, 300, 22, testDragConfig())
	d.Update(col, 340, 22, 0, DefaultVisibleRows) // end +20 frames

	out, err := d.Commit(col, DefaultVisibleRows)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	o, _ := out.ByID(1)
	if o.From != 100 || o.End() != 170 {
		t.Errorf("Expected [100, 170), got [%d, %d)", o.From, o.End())
	}
}

func TestDragResizeStartFloor(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	d.Begin(col[0], ActionResizeStart, 200, 22, testDragConfig())
	d.Update(col, 1000, 22, 0, DefaultVisibleRows) // drag start way past the end

	g, _ := d.Ghost()
	if g.DurationInFrames != MinDurationFrames {
		t.Errorf("Expected ghost clamped to %d frame, got %d", MinDurationFrames, g.DurationInFrames)
	}
	if g.End() != 150 {
		t.Errorf("End must stay fixed while resizing the start, got %d", g.End())
	}
}

func TestDragCancelLeavesCollectionUntouched(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 200, DurationInFrames: 50, Row: 1},
	}
	before := col.Clone()

	var d Drag
	d.Begin(col[0], ActionMove, 200, 22, testDragConfig())
	d.Update(col, 700, 110, 0, DefaultVisibleRows)
	d.Cancel()

	if d.Active() {
		t.Error("Drag should be idle after cancel")
	}
	if len(col) != len(before) {
		t.Fatal("Collection length changed")
	}
	for i := range col {
		if col[i].From != before[i].From || col[i].Row != before[i].Row ||
			col[i].DurationInFrames != before[i].DurationInFrames {
			t.Errorf("Overlay %d changed after cancel: %+v", col[i].ID, col[i])
		}
	}
}

func TestDragCommitWithoutBegin(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
	}

	var d Drag
	if _, err := d.Commit(col, DefaultVisibleRows); err == nil {
		t.Error("Commit without an active drag should fail")
	}
}

func TestDragUpdateWhileIdleIsNoop(t *testing.T) {
	var d Drag
	d.Update(nil, 100, 100, 0, DefaultVisibleRows)
	if _, ok := d.Ghost(); ok {
		t.Error("Idle drag should have no ghost")
	}
}

func TestDragSnapEngagesDuringMove(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 200, DurationInFrames: 50, Row: 1},
	}

	cfg := testDragConfig()
	cfg.SnapThreshold = 5

	var d Drag
	d.Begin(col[0], ActionMove, 0, 22, testDragConfig())
	d.Cancel()
	d.Begin(col[0], ActionMove, 0, 22, cfg)

	// 396 px is 198 frames: within 2 of overlay 2's start.
	d.Update(col, 396, 22, 1000, DefaultVisibleRows)
	g, _ := d.Ghost()
	if g.From != 200 {
		t.Errorf("Expected ghost snapped to 200, got %d", g.From)
	}
	if len(d.Lines()) != 1 || d.Lines()[0].SourceID != 2 {
		t.Errorf("Expected alignment line from overlay 2, got %+v", d.Lines())
	}
}

func TestDragPushPreview(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 100, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 50, Row: 0},
	}

	cfg := testDragConfig()
	cfg.PushOnDrag = true

	var d Drag
	d.Begin(col[0], ActionMove, 0, 22, cfg)
	d.Update(col, 100, 22, 1000, DefaultVisibleRows) // ghost [50, 150)

	offsets := d.PushPreview()
	if got := offsets[2]; got != 50 {
		t.Errorf("Expected push preview offset 50 for overlay 2, got %d", got)
	}

	d.Cancel()
	if d.PushPreview() != nil {
		t.Error("Push preview should be discarded on cancel")
	}
}
