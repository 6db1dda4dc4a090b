package timeline

import (
	"math"

	"clipforge/internal/overlay"
)

// Edge identifies one side of an overlay's time span.
type Edge string

const (
	EdgeStart Edge = "start"
	EdgeEnd   Edge = "end"
)

// Ghost is the ephemeral preview of where a dragged or resized overlay
// would land if released now. It exists only between drag-start and
// drag-end and is discarded on commit or cancel.
type Ghost struct {
	ID               int64 `json:"id"`
	From             int   `json:"from"`
	Row              int   `json:"row"`
	DurationInFrames int   `json:"durationInFrames"`
}

// End returns the exclusive end frame of the ghost.
func (g Ghost) End() int {
	return g.From + g.DurationInFrames
}

// AlignmentLine is a snap target that actually engaged during the current
// tick, surfaced so the UI can draw a guide for it. SourceID is the
// overlay that contributed the target, or 0 for frame zero and the
// playhead.
type AlignmentLine struct {
	Frame    int   `json:"frame"`
	Edge     Edge  `json:"edge"`
	SourceID int64 `json:"sourceId,omitempty"`
}

// SnapResult carries the (possibly shifted) ghost and the alignment lines
// that engaged.
type SnapResult struct {
	Ghost Ghost           `json:"ghost"`
	Lines []AlignmentLine `json:"lines,omitempty"`
}

type snapCandidate struct {
	frame    int
	row      int // -1 for global targets (frame 0, playhead)
	sourceID int64
}

// Snap biases a moving ghost toward nearby alignment targets: the edges of
// every other overlay, frame zero, and the playhead. The leading and
// trailing edges are resolved independently; when both find a target the
// closer one wins and the whole ghost shifts so that edge aligns exactly.
// Ties prefer the earlier frame, then a same-row target over a cross-row
// one. Recomputed from scratch every pointer-move tick.
func Snap(g Ghost, col overlay.Collection, playhead, threshold int) SnapResult {
	if threshold <= 0 {
		return SnapResult{Ghost: g}
	}
	candidates := collectCandidates(g.ID, col, playhead)

	start, okStart := closest(candidates, g.From, g.Row, threshold)
	end, okEnd := closest(candidates, g.End(), g.Row, threshold)

	switch {
	case okStart && okEnd:
		// Apply the tighter of the two shifts; tie goes to the leading edge.
		if abs(end.frame-g.End()) < abs(start.frame-g.From) {
			okStart = false
		} else {
			okEnd = false
		}
	case !okStart && !okEnd:
		return SnapResult{Ghost: g}
	}

	if okStart {
		g.From = start.frame
		return SnapResult{
			Ghost: g,
			Lines: []AlignmentLine{{Frame: start.frame, Edge: EdgeStart, SourceID: start.sourceID}},
		}
	}
	g.From = end.frame - g.DurationInFrames
	return SnapResult{
		Ghost: g,
		Lines: []AlignmentLine{{Frame: end.frame, Edge: EdgeEnd, SourceID: end.sourceID}},
	}
}

// SnapEdge aligns a single edge position (used while resizing, where only
// the dragged edge may move). It returns the snapped frame and the engaged
// alignment line, or the input unchanged when nothing is within threshold.
func SnapEdge(frame int, edge Edge, g Ghost, col overlay.Collection, playhead, threshold int) (int, *AlignmentLine) {
	if threshold <= 0 {
		return frame, nil
	}
	c, ok := closest(collectCandidates(g.ID, col, playhead), frame, g.Row, threshold)
	if !ok {
		return frame, nil
	}
	return c.frame, &AlignmentLine{Frame: c.frame, Edge: edge, SourceID: c.sourceID}
}

// SnapRow resolves a fractional row position (pointer Y divided by row
// height) to a concrete row when it lies within tolerance of a row center,
// clamped to the visible range. The second return is false when the
// pointer sits between rows outside the tolerance.
func SnapRow(rowPos, tolerance float64, visibleRows int) (int, bool) {
	nearest := math.Round(rowPos)
	if math.Abs(rowPos-nearest) > tolerance {
		return 0, false
	}
	row := int(nearest)
	if row < 0 {
		row = 0
	}
	if row >= visibleRows {
		row = visibleRows - 1
	}
	return row, true
}

func collectCandidates(excludeID int64, col overlay.Collection, playhead int) []snapCandidate {
	candidates := []snapCandidate{
		{frame: 0, row: -1},
		{frame: playhead, row: -1},
	}
	for _, o := range col {
		if o.ID == excludeID {
			continue
		}
		candidates = append(candidates,
			snapCandidate{frame: o.From, row: o.Row, sourceID: o.ID},
			snapCandidate{frame: o.End(), row: o.Row, sourceID: o.ID},
		)
	}
	return candidates
}

// closest picks the candidate within threshold of pos minimizing absolute
// distance, breaking ties toward the lower frame and then toward the
// ghost's own row.
func closest(candidates []snapCandidate, pos, ghostRow, threshold int) (snapCandidate, bool) {
	var best snapCandidate
	bestDist := threshold + 1
	found := false
	for _, c := range candidates {
		d := abs(c.frame - pos)
		if d > threshold {
			continue
		}
		if !found || d < bestDist ||
			(d == bestDist && c.frame < best.frame) ||
			(d == bestDist && c.frame == best.frame && c.row == ghostRow && best.row != ghostRow) {
			best, bestDist, found = c, d, true
		}
	}
	return best, found
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
