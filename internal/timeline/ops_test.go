package timeline

import (
	"errors"
	"testing"

	"clipforge/internal/overlay"
)

func TestSplit(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeVideo, From: 0, DurationInFrames: 100, Row: 0, VideoStartTime: 10},
	}

	out, err := Split(col, 1, 40)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 overlays after split, got %d", len(out))
	}

	first, second := out[0], out[1]
	if first.From != 0 || first.DurationInFrames != 40 {
		t.Errorf("First half = {%d, %d}, want {0, 40}", first.From, first.DurationInFrames)
	}
	if second.From != 40 || second.DurationInFrames != 60 {
		t.Errorf("Second half = {%d, %d}, want {40, 60}", second.From, second.DurationInFrames)
	}
	if second.ID == first.ID {
		t.Error("Second half must have a fresh id")
	}
	if second.Row != first.Row {
		t.Error("Both halves must stay in the same row")
	}
	if second.VideoStartTime != 50 {
		t.Errorf("Expected second half videoStartTime=50 for continuous playback, got %d", second.VideoStartTime)
	}
	if first.End() != second.From {
		t.Error("Halves must be contiguous")
	}

	// Input untouched.
	if col[0].DurationInFrames != 100 {
		t.Error("Split modified its input collection")
	}
}

func TestSplitOutOfRange(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 10, DurationInFrames: 50, Row: 0},
	}

	for _, frame := range []int{10, 60, 0, 100} {
		if _, err := Split(col, 1, frame); !errors.Is(err, ErrBadSplit) {
			t.Errorf("Split at %d: expected ErrBadSplit, got %v", frame, err)
		}
	}
	if _, err := Split(col, 99, 30); !errors.Is(err, overlay.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestSplitSoundOffset(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeSound, From: 100, DurationInFrames: 80, Row: 2, StartFromSound: 5},
	}

	out, err := Split(col, 1, 130)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if out[1].StartFromSound != 35 {
		t.Errorf("Expected startFromSound=35, got %d", out[1].StartFromSound)
	}
}

func TestDuplicate(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeImage, From: 0, DurationInFrames: 60, Row: 0, Src: "/assets/a.png"},
		{ID: 2, From: 60, DurationInFrames: 60, Row: 0},
	}

	out, err := Duplicate(col, 1, DefaultVisibleRows, 900)
	if err != nil {
		t.Fatalf("Duplicate failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("Expected 3 overlays, got %d", len(out))
	}

	dup := out[2]
	if dup.ID != 3 {
		t.Errorf("Expected fresh id 3, got %d", dup.ID)
	}
	if dup.Src != "/assets/a.png" || dup.DurationInFrames != 60 {
		t.Error("Duplicate must copy the payload and duration")
	}
	if err := out.Validate(DefaultVisibleRows); err != nil {
		t.Errorf("Collection invalid after duplicate: %v", err)
	}
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 10, Row: 0},
	}

	out := Delete(col, 42)
	if len(out) != 1 {
		t.Errorf("Expected 1 overlay after deleting unknown id, got %d", len(out))
	}
	out = Delete(col, 1)
	if len(out) != 0 {
		t.Errorf("Expected empty collection, got %d overlays", len(out))
	}
}

func TestDeleteRow(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 10, Row: 0},
		{ID: 2, From: 0, DurationInFrames: 10, Row: 1},
		{ID: 3, From: 20, DurationInFrames: 10, Row: 1},
	}

	out := DeleteRow(col, 1)
	if len(out) != 1 || out[0].ID != 1 {
		t.Errorf("Expected only overlay 1 to survive, got %+v", out)
	}
}

func TestRemoveGap(t *testing.T) {
	// [0,50) and [80,120); closing [50,80) pulls the second back to 50.
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 80, DurationInFrames: 40, Row: 0},
	}

	out, err := RemoveGap(col, 0, 50, 80)
	if err != nil {
		t.Fatalf("RemoveGap failed: %v", err)
	}
	moved, _ := out.ByID(2)
	if moved.From != 50 || moved.End() != 90 {
		t.Errorf("Expected overlay 2 at [50, 90), got [%d, %d)", moved.From, moved.End())
	}
	kept, _ := out.ByID(1)
	if kept.From != 0 {
		t.Error("Overlays before the gap must not move")
	}
	if err := out.Validate(DefaultVisibleRows); err != nil {
		t.Errorf("Collection invalid after gap removal: %v", err)
	}
}

func TestRemoveGapOccupied(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 60, Row: 0},
		{ID: 2, From: 80, DurationInFrames: 40, Row: 0},
	}

	if _, err := RemoveGap(col, 0, 50, 80); !errors.Is(err, ErrRangeOccupied) {
		t.Errorf("Expected ErrRangeOccupied, got %v", err)
	}
	if _, err := RemoveGap(col, 0, 80, 80); err == nil {
		t.Error("Expected error for empty range")
	}
}

func TestRemoveGapOtherRowsUntouched(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 40, Row: 0},
		{ID: 3, From: 70, DurationInFrames: 40, Row: 1},
	}

	out, err := RemoveGap(col, 0, 50, 100)
	if err != nil {
		t.Fatalf("RemoveGap failed: %v", err)
	}
	other, _ := out.ByID(3)
	if other.From != 70 {
		t.Errorf("Gap removal leaked into row 1: from=%d", other.From)
	}
}

func TestMove(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 50, Row: 0},
	}

	out, err := Move(col, 1, 200, 1, DefaultVisibleRows, false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	moved, _ := out.ByID(1)
	if moved.From != 200 || moved.Row != 1 {
		t.Errorf("Expected overlay at {200, 1}, got {%d, %d}", moved.From, moved.Row)
	}
	// Input untouched.
	orig, _ := col.ByID(1)
	if orig.From != 0 || orig.Row != 0 {
		t.Error("Move modified its input collection")
	}
}

func TestMoveRowOutOfRange(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
	}

	if _, err := Move(col, 1, 0, DefaultVisibleRows, DefaultVisibleRows, false); !errors.Is(err, overlay.ErrRowRange) {
		t.Errorf("Expected ErrRowRange, got %v", err)
	}
	if _, err := Move(col, 1, 0, -1, DefaultVisibleRows, false); !errors.Is(err, overlay.ErrRowRange) {
		t.Errorf("Expected ErrRowRange for negative row, got %v", err)
	}
}

func TestMoveClampsOnCollision(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 300, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 100, Row: 0},
	}

	// Requested landing [120, 170) sits inside overlay 2. The nearest fit
	// is [50, 100), packed against overlay 2's left edge (distance 70,
	// closer than the right edge at 200).
	out, err := Move(col, 1, 120, 0, DefaultVisibleRows, false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	moved, _ := out.ByID(1)
	if moved.From != 50 {
		t.Errorf("Expected clamp to 50, got %d", moved.From)
	}
	if err := out.Validate(DefaultVisibleRows); err != nil {
		t.Errorf("Collection invalid after clamped move: %v", err)
	}
}

func TestMoveNegativeFromClampsToZero(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	out, err := Move(col, 1, -30, 0, DefaultVisibleRows, false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	moved, _ := out.ByID(1)
	if moved.From != 0 {
		t.Errorf("Expected from=0, got %d", moved.From)
	}
}

func TestMovePushShiftsNeighbours(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 300, DurationInFrames: 60, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 100, Row: 0},
		{ID: 3, From: 200, DurationInFrames: 50, Row: 0},
	}

	// Drop overlay 1 at 150, on top of overlay 2's back half. With push
	// enabled the later overlays cascade right instead of clamping.
	out, err := Move(col, 1, 150, 0, DefaultVisibleRows, true)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	moved, _ := out.ByID(1)
	if moved.From != 150 {
		t.Errorf("Pushed move should keep the requested position, got %d", moved.From)
	}
	if err := out.Validate(DefaultVisibleRows); err != nil {
		t.Errorf("Collection invalid after pushed move: %v", err)
	}
}

func TestResize(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 100, Row: 0},
	}

	out, err := Resize(col, 1, EdgeStart, 130)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ := out.ByID(1)
	if o.From != 130 || o.End() != 200 {
		t.Errorf("Expected [130, 200), got [%d, %d)", o.From, o.End())
	}

	out, err = Resize(col, 1, EdgeEnd, 170)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ = out.ByID(1)
	if o.From != 100 || o.End() != 170 {
		t.Errorf("Expected [100, 170), got [%d, %d)", o.From, o.End())
	}
}

func TestResizeMinimumDuration(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 100, DurationInFrames: 50, Row: 0},
	}

	// Dragging the start past the end clamps to one frame.
	out, err := Resize(col, 1, EdgeStart, 500)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ := out.ByID(1)
	if o.DurationInFrames != MinDurationFrames || o.End() != 150 {
		t.Errorf("Expected 1-frame overlay ending at 150, got [%d, %d)", o.From, o.End())
	}

	out, err = Resize(col, 1, EdgeEnd, 0)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ = out.ByID(1)
	if o.From != 100 || o.DurationInFrames != MinDurationFrames {
		t.Errorf("Expected 1-frame overlay starting at 100, got [%d, %d)", o.From, o.End())
	}
}

func TestResizeClampsAtNeighbours(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 50, Row: 0},
		{ID: 3, From: 200, DurationInFrames: 50, Row: 0},
	}

	// Start edge of the middle overlay cannot cross overlay 1's end.
	out, err := Resize(col, 2, EdgeStart, 10)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ := out.ByID(2)
	if o.From != 50 {
		t.Errorf("Expected start clamped to 50, got %d", o.From)
	}

	// End edge cannot cross overlay 3's start.
	out, err = Resize(col, 2, EdgeEnd, 400)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	o, _ = out.ByID(2)
	if o.End() != 200 {
		t.Errorf("Expected end clamped to 200, got %d", o.End())
	}
}

func TestResizeUnknownEdge(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 50, Row: 0},
	}
	if _, err := Resize(col, 1, Edge("middle"), 10); err == nil {
		t.Error("Expected error for unknown edge")
	}
}

func TestSwapRows(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 10, Row: 0},
		{ID: 2, From: 0, DurationInFrames: 10, Row: 2},
		{ID: 3, From: 50, DurationInFrames: 10, Row: 1},
	}

	out := SwapRows(col, 0, 2)
	a, _ := out.ByID(1)
	b, _ := out.ByID(2)
	c, _ := out.ByID(3)
	if a.Row != 2 || b.Row != 0 || c.Row != 1 {
		t.Errorf("Unexpected rows after swap: %d, %d, %d", a.Row, b.Row, c.Row)
	}
	if a.From != 0 || b.From != 0 || c.From != 50 {
		t.Error("Swap must not change time spans")
	}
}

func TestDetachAudio(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeVideo, From: 60, DurationInFrames: 120, Row: 0, VideoStartTime: 30},
	}

	out, placeholderID, rows, err := DetachAudio(col, 1, DefaultVisibleRows, 900)
	if err != nil {
		t.Fatalf("DetachAudio failed: %v", err)
	}
	if rows != DefaultVisibleRows {
		t.Errorf("Row count should not grow when space exists, got %d", rows)
	}

	src, _ := out.ByID(1)
	if !src.AudioDetached {
		t.Error("Source video should be marked audioDetached")
	}

	ph, ok := out.ByID(placeholderID)
	if !ok {
		t.Fatal("Placeholder not found")
	}
	if ph.Type != overlay.TypeSound || !ph.IsLoading {
		t.Errorf("Expected loading sound placeholder, got type=%s loading=%v", ph.Type, ph.IsLoading)
	}
	if ph.From != 60 || ph.DurationInFrames != 120 || ph.Row != 1 {
		t.Errorf("Expected placeholder at {60, row 1} spanning 120, got {%d, row %d} spanning %d",
			ph.From, ph.Row, ph.DurationInFrames)
	}
	if ph.StartFromSound != 30 {
		t.Errorf("Expected placeholder to inherit source offset 30, got %d", ph.StartFromSound)
	}

	// Second detach on the same overlay is rejected.
	if _, _, _, err := DetachAudio(out, 1, DefaultVisibleRows, 900); !errors.Is(err, ErrNotDetachable) {
		t.Errorf("Expected ErrNotDetachable on repeat, got %v", err)
	}
}

func TestDetachAudioGrowsRows(t *testing.T) {
	// Source sits in the bottom visible row; detaching needs one more.
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeVideo, From: 0, DurationInFrames: 100, Row: 3},
	}

	out, placeholderID, rows, err := DetachAudio(col, 1, DefaultVisibleRows, 900)
	if err != nil {
		t.Fatalf("DetachAudio failed: %v", err)
	}
	if rows != DefaultVisibleRows+1 {
		t.Errorf("Expected row count to grow to %d, got %d", DefaultVisibleRows+1, rows)
	}
	ph, _ := out.ByID(placeholderID)
	if ph.Row != 4 {
		t.Errorf("Expected placeholder in new row 4, got %d", ph.Row)
	}
}

func TestDetachAudioFallbackPlacement(t *testing.T) {
	// The row below the source is occupied at the same span, so the
	// placeholder falls back to the positioning engine.
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeVideo, From: 0, DurationInFrames: 100, Row: 0},
		{ID: 2, Type: overlay.TypeSound, From: 0, DurationInFrames: 100, Row: 1},
	}

	out, placeholderID, _, err := DetachAudio(col, 1, DefaultVisibleRows, 900)
	if err != nil {
		t.Fatalf("DetachAudio failed: %v", err)
	}
	ph, _ := out.ByID(placeholderID)
	if ph.Row == 1 && ph.From == 0 {
		t.Error("Placeholder landed on top of overlay 2")
	}
	if err := out.Validate(DefaultVisibleRows + 1); err != nil {
		t.Errorf("Collection invalid after fallback placement: %v", err)
	}
}

func TestDetachAudioRejectsNonVideo(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeText, From: 0, DurationInFrames: 100, Row: 0},
	}

	if _, _, _, err := DetachAudio(col, 1, DefaultVisibleRows, 900); !errors.Is(err, ErrNotDetachable) {
		t.Errorf("Expected ErrNotDetachable, got %v", err)
	}
}

func TestResolveDetachedAudio(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, Type: overlay.TypeVideo, From: 0, DurationInFrames: 100, Row: 0, AudioDetached: true},
		{ID: 2, Type: overlay.TypeSound, From: 0, DurationInFrames: 100, Row: 1, IsLoading: true},
	}

	out, err := ResolveDetachedAudio(col, 2, "/audio/extracted.m4a")
	if err != nil {
		t.Fatalf("ResolveDetachedAudio failed: %v", err)
	}
	ph, _ := out.ByID(2)
	if ph.IsLoading {
		t.Error("Placeholder should stop loading once resolved")
	}
	if ph.Src != "/audio/extracted.m4a" {
		t.Errorf("Expected resolved src, got %q", ph.Src)
	}

	if _, err := ResolveDetachedAudio(col, 1, "x"); err == nil {
		t.Error("Expected error resolving a non-sound overlay")
	}
	if _, err := ResolveDetachedAudio(col, 99, "x"); !errors.Is(err, overlay.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPushOffsets(t *testing.T) {
	col := overlay.Collection{
		{ID: 1, From: 0, DurationInFrames: 100, Row: 0},
		{ID: 2, From: 100, DurationInFrames: 50, Row: 0},
		{ID: 3, From: 300, DurationInFrames: 50, Row: 0},
	}
	// Ghost of overlay 1 lands on [50, 150): overlay 2 must shift by 50,
	// overlay 3 is far enough right to stay put.
	g := Ghost{ID: 1, From: 50, Row: 0, DurationInFrames: 100}

	offsets := PushOffsets(col, g)
	if got := offsets[2]; got != 50 {
		t.Errorf("Expected overlay 2 offset 50, got %d", got)
	}
	if _, ok := offsets[3]; ok {
		t.Error("Overlay 3 should not be displaced")
	}
}
