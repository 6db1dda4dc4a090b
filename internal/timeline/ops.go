package timeline

import (
	"errors"
	"fmt"
	"sort"

	"clipforge/internal/overlay"
)

// MinDurationFrames is the resize floor: an overlay can never shrink
// below one frame.
const MinDurationFrames = 1

// ErrBadSplit indicates a split position outside the overlay's span.
var ErrBadSplit = errors.New("split position not strictly inside overlay")

// ErrRangeOccupied indicates a remove-gap range that is not actually empty.
var ErrRangeOccupied = errors.New("gap range is occupied")

// ErrNotDetachable indicates detach-audio was requested on an overlay that
// is not a video or has already had its audio detached.
var ErrNotDetachable = errors.New("overlay audio cannot be detached")

// Move relocates one overlay to a new (from, row). When push is false and
// the target position collides, the overlay is clamped to the nearest
// position in the target row where it fits; when push is true, same-row
// overlays at or after the target are shifted right to make room. The
// input collection is never modified; an invalid target row returns it
// unchanged with an error.
func Move(col overlay.Collection, id int64, from, row, visibleRows int, push bool) (overlay.Collection, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, fmt.Errorf("move overlay %d: %w", id, overlay.ErrNotFound)
	}
	if row < 0 || row >= visibleRows {
		return col, fmt.Errorf("move overlay %d to row %d: %w", id, row, overlay.ErrRowRange)
	}
	if from < 0 {
		from = 0
	}

	out := col.Clone()
	moved := &out[idx]
	moved.From = from
	moved.Row = row
	moved.IsDragging = false

	if !out.Conflicts(*moved) {
		return out, nil
	}
	if push {
		pushRow(out, moved.ID, row)
		return out, nil
	}

	moved.From = clampIntoRow(col, id, row, from, moved.DurationInFrames)
	return out, nil
}

// Resize drags one edge of an overlay to a new frame. The start edge keeps
// the end fixed and the end edge keeps the start fixed; both are clamped
// so the overlay never drops below MinDurationFrames and never crosses
// into a same-row neighbour.
func Resize(col overlay.Collection, id int64, edge Edge, frame int) (overlay.Collection, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, fmt.Errorf("resize overlay %d: %w", id, overlay.ErrNotFound)
	}
	out := col.Clone()
	o := &out[idx]

	switch edge {
	case EdgeStart:
		lower := 0
		for _, n := range col {
			if n.ID != id && n.Row == o.Row && n.End() <= o.From && n.End() > lower {
				lower = n.End()
			}
		}
		newFrom := clamp(frame, lower, o.End()-MinDurationFrames)
		o.DurationInFrames = o.End() - newFrom
		o.From = newFrom
	case EdgeEnd:
		upper := -1
		for _, n := range col {
			if n.ID != id && n.Row == o.Row && n.From >= o.End() && (upper < 0 || n.From < upper) {
				upper = n.From
			}
		}
		newEnd := frame
		if newEnd < o.From+MinDurationFrames {
			newEnd = o.From + MinDurationFrames
		}
		if upper >= 0 && newEnd > upper {
			newEnd = upper
		}
		o.DurationInFrames = newEnd - o.From
	default:
		return col, fmt.Errorf("resize overlay %d: unknown edge %q", id, edge)
	}
	return out, nil
}

// Split cuts an overlay at an absolute frame strictly inside its span.
// The original is truncated to end at the split frame and a new overlay
// with a fresh id covers the remainder in the same row. Media payloads
// stay playback-continuous: the second half's source offset advances by
// the split offset.
func Split(col overlay.Collection, id int64, frame int) (overlay.Collection, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, fmt.Errorf("split overlay %d: %w", id, overlay.ErrNotFound)
	}
	o := col[idx]
	if frame <= o.From || frame >= o.End() {
		return col, fmt.Errorf("split overlay %d at %d: %w", id, frame, ErrBadSplit)
	}

	offset := frame - o.From
	second := o.Clone()
	second.ID = col.NextID()
	second.From = frame
	second.DurationInFrames = o.End() - frame
	switch second.Type {
	case overlay.TypeVideo:
		second.VideoStartTime += offset
	case overlay.TypeSound:
		second.StartFromSound += offset
	}

	out := col.Clone()
	out[idx].DurationInFrames = offset
	out = append(out, overlay.Overlay{})
	copy(out[idx+2:], out[idx+1:])
	out[idx+1] = second
	return out, nil
}

// Duplicate clones an overlay, assigns a fresh id, and places the copy at
// the next free slot chosen by FindPlacement.
func Duplicate(col overlay.Collection, id int64, visibleRows, timelineDuration int) (overlay.Collection, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, fmt.Errorf("duplicate overlay %d: %w", id, overlay.ErrNotFound)
	}
	dup := col[idx].Clone()
	dup.ID = col.NextID()
	p := FindPlacement(col, visibleRows, timelineDuration, dup.DurationInFrames)
	dup.From = p.From
	dup.Row = p.Row
	dup.IsDragging = false
	return append(col.Clone(), dup), nil
}

// Delete removes the overlay with the given id. Deleting an unknown id is
// a no-op.
func Delete(col overlay.Collection, id int64) overlay.Collection {
	out := make(overlay.Collection, 0, len(col))
	for _, o := range col {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}

// DeleteRow removes every overlay in the given row.
func DeleteRow(col overlay.Collection, row int) overlay.Collection {
	out := make(overlay.Collection, 0, len(col))
	for _, o := range col {
		if o.Row != row {
			out = append(out, o)
		}
	}
	return out
}

// RemoveGap closes an empty range in one row by shifting every overlay at
// or after the gap's end left by the gap size. The range must be empty;
// overlays are processed in ascending start order.
func RemoveGap(col overlay.Collection, row, gapStart, gapEnd int) (overlay.Collection, error) {
	if gapStart < 0 || gapEnd <= gapStart {
		return col, fmt.Errorf("remove gap [%d,%d): invalid range", gapStart, gapEnd)
	}
	for _, o := range col {
		if o.Row == row && o.OverlapsInterval(gapStart, gapEnd) {
			return col, fmt.Errorf("remove gap [%d,%d) in row %d: %w", gapStart, gapEnd, row, ErrRangeOccupied)
		}
	}

	size := gapEnd - gapStart
	out := col.Clone()
	var shift []*overlay.Overlay
	for i := range out {
		if out[i].Row == row && out[i].From >= gapEnd {
			shift = append(shift, &out[i])
		}
	}
	sort.Slice(shift, func(i, j int) bool { return shift[i].From < shift[j].From })
	for _, o := range shift {
		o.From -= size
	}
	return out, nil
}

// SwapRows exchanges the contents of two rows. This is a logical swap of
// row assignments; overlays keep their time spans.
func SwapRows(col overlay.Collection, a, b int) overlay.Collection {
	out := col.Clone()
	for i := range out {
		switch out[i].Row {
		case a:
			out[i].Row = b
		case b:
			out[i].Row = a
		}
	}
	return out
}

// DetachAudio is the synchronous half of the two-phase detach operation:
// it marks the source video overlay audioDetached and inserts a loading
// sound placeholder, preferring the row immediately below the source
// (growing the visible rows if needed, up to MaxRows) and falling back to
// the positioning engine when that slot is taken. The caller later
// resolves the placeholder via ResolveDetachedAudio once extraction
// finishes or fails.
//
// Returns the new collection, the placeholder's id, and the possibly
// grown visible row count.
func DetachAudio(col overlay.Collection, id int64, visibleRows, timelineDuration int) (overlay.Collection, int64, int, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, 0, visibleRows, fmt.Errorf("detach audio from overlay %d: %w", id, overlay.ErrNotFound)
	}
	src := col[idx]
	if src.Type != overlay.TypeVideo || src.AudioDetached {
		return col, 0, visibleRows, fmt.Errorf("detach audio from overlay %d: %w", id, ErrNotDetachable)
	}

	placeholder := overlay.Overlay{
		ID:               col.NextID(),
		Type:             overlay.TypeSound,
		From:             src.From,
		DurationInFrames: src.DurationInFrames,
		Row:              src.Row + 1,
		IsLoading:        true,
		StartFromSound:   src.VideoStartTime,
	}
	rows := visibleRows
	if placeholder.Row >= rows {
		rows = GrowRows(rows)
	}
	if placeholder.Row >= rows || col.Conflicts(placeholder) {
		p := FindPlacement(col, rows, timelineDuration, placeholder.DurationInFrames)
		placeholder.From = p.From
		placeholder.Row = p.Row
	}

	out := col.Clone()
	out[idx].AudioDetached = true
	out = append(out, placeholder)
	return out, placeholder.ID, rows, nil
}

// ResolveDetachedAudio replaces a loading sound placeholder, in place and
// under the same id, with its resolved audio source. Callers implement
// the never-fail policy by passing a bundled fallback clip when
// extraction failed.
func ResolveDetachedAudio(col overlay.Collection, id int64, src string) (overlay.Collection, error) {
	idx := col.IndexOf(id)
	if idx < 0 {
		return col, fmt.Errorf("resolve detached audio %d: %w", id, overlay.ErrNotFound)
	}
	if col[idx].Type != overlay.TypeSound {
		return col, fmt.Errorf("resolve detached audio %d: not a sound overlay", id)
	}
	out := col.Clone()
	out[idx].Src = src
	out[idx].IsLoading = false
	return out, nil
}

// PushOffsets computes, for preview only, how far each same-row overlay
// would be displaced if the ghost were committed with push enabled.
// Nothing is mutated; the offsets vanish when the drag ends.
func PushOffsets(col overlay.Collection, g Ghost) map[int64]int {
	offsets := make(map[int64]int)
	row := col.Row(g.Row)
	curEnd := g.End()
	for _, o := range row {
		if o.ID == g.ID || o.End() <= g.From {
			continue
		}
		if o.From < curEnd {
			offsets[o.ID] = curEnd - o.From
			curEnd = o.End() + offsets[o.ID]
		} else {
			curEnd = o.End()
		}
	}
	return offsets
}

// pushRow resolves collisions in one row after an overlay moved. The moved
// overlay is pinned at its requested position; everything it overlaps, and
// anything those displace in turn, cascades right in ascending start order.
// Mirrors the displacement PushOffsets previews during the drag.
func pushRow(col overlay.Collection, movedID int64, row int) {
	var moved *overlay.Overlay
	var others []*overlay.Overlay
	for i := range col {
		if col[i].Row != row {
			continue
		}
		if col[i].ID == movedID {
			moved = &col[i]
		} else {
			others = append(others, &col[i])
		}
	}
	if moved == nil {
		return
	}
	sort.Slice(others, func(i, j int) bool { return others[i].From < others[j].From })
	end := moved.End()
	for _, o := range others {
		if o.End() <= moved.From {
			continue
		}
		if o.From < end {
			o.From = end
		}
		end = o.End()
	}
}

// clampIntoRow finds the position nearest to the requested start where an
// overlay of the given duration fits in the row, ignoring the overlay
// itself. The open space after the row's last overlay guarantees a
// solution exists.
func clampIntoRow(col overlay.Collection, id int64, row, want, duration int) int {
	var occupied []overlay.Overlay
	for _, o := range col.Row(row) {
		if o.ID != id {
			occupied = append(occupied, o)
		}
	}
	best := 0
	bestDist := -1
	consider := func(from int) {
		if from < 0 {
			return
		}
		for _, o := range occupied {
			if o.OverlapsInterval(from, from+duration) {
				return
			}
		}
		d := abs(from - want)
		if bestDist < 0 || d < bestDist || (d == bestDist && from < best) {
			best, bestDist = from, d
		}
	}

	// Candidates: the requested spot itself, packed against each occupied
	// edge, and frame zero.
	consider(want)
	consider(0)
	for _, o := range occupied {
		consider(o.End())
		consider(o.From - duration)
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
