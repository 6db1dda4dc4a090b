package timeline

import (
	"sort"

	"clipforge/internal/overlay"
)

// FPS is the fixed project frame rate. All frame arithmetic in this
// package assumes it.
const FPS = 30

// DefaultVisibleRows is the row count a fresh timeline starts with.
const DefaultVisibleRows = 4

// MaxRows caps row-count growth.
const MaxRows = 8

// Placement is the insertion point chosen for a new overlay.
type Placement struct {
	From int `json:"from"`
	Row  int `json:"row"`
}

// FindPlacement chooses where a new overlay of the given duration should be
// inserted. It scans row-major: within each row the candidate start
// positions are frame 0 and the end of every existing overlay, tried in
// ascending time order; the first candidate whose span fits inside the
// timeline without touching an existing interval wins.
//
// When no row can take the overlay within the timeline duration, it is
// appended after the last item of the least-loaded row (the row whose
// rightmost occupied edge is smallest), so placement always terminates
// even for overlays longer than the timeline itself.
func FindPlacement(col overlay.Collection, visibleRows, timelineDuration, duration int) Placement {
	if visibleRows < 1 {
		visibleRows = 1
	}
	for row := 0; row < visibleRows; row++ {
		occupied := col.Row(row)
		candidates := []int{0}
		for _, o := range occupied {
			candidates = append(candidates, o.End())
		}
		sort.Ints(candidates)
		for _, s := range candidates {
			if s+duration > timelineDuration {
				continue
			}
			if fits(occupied, s, s+duration) {
				return Placement{From: s, Row: row}
			}
		}
	}

	// Overflow: append to the row with the smallest rightmost edge.
	best := 0
	bestEnd := col.RowEnd(0)
	for row := 1; row < visibleRows; row++ {
		if end := col.RowEnd(row); end < bestEnd {
			best, bestEnd = row, end
		}
	}
	return Placement{From: bestEnd, Row: best}
}

// GrowRows returns the row count to use after a request for one more row,
// capped at MaxRows.
func GrowRows(visibleRows int) int {
	if visibleRows >= MaxRows {
		return MaxRows
	}
	return visibleRows + 1
}

func fits(occupied []overlay.Overlay, from, end int) bool {
	for _, o := range occupied {
		if o.OverlapsInterval(from, end) {
			return false
		}
	}
	return true
}
