package overlay

import (
	"errors"
	"fmt"
	"sort"
)

// Collection is the ordered set of overlays that makes up a timeline.
// All mutation follows an immutable-update discipline: operations return a
// fresh slice and never modify the input, so callers can snapshot
// collections for undo history and diff them for re-render.
type Collection []Overlay

var (
	// ErrNotFound indicates the requested overlay id is not in the collection.
	ErrNotFound = errors.New("overlay not found")
	// ErrOverlap indicates two overlays in the same row intersect in time.
	ErrOverlap = errors.New("overlays overlap within a row")
	// ErrRowRange indicates an overlay's row is outside the visible rows.
	ErrRowRange = errors.New("overlay row out of range")
	// ErrDuration indicates a non-positive duration or negative start.
	ErrDuration = errors.New("overlay has invalid time bounds")
)

// ByID returns the overlay with the given id.
func (c Collection) ByID(id int64) (Overlay, bool) {
	for _, o := range c {
		if o.ID == id {
			return o, true
		}
	}
	return Overlay{}, false
}

// IndexOf returns the position of the overlay with the given id, or -1.
func (c Collection) IndexOf(id int64) int {
	for i, o := range c {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// NextID returns an id strictly greater than every id in the collection.
// IDs are monotonic per collection; they are never reused after deletion
// within the same editing session because callers allocate before removal.
func (c Collection) NextID() int64 {
	var max int64
	for _, o := range c {
		if o.ID > max {
			max = o.ID
		}
	}
	return max + 1
}

// Row returns the overlays occupying the given row, sorted by start frame.
func (c Collection) Row(row int) []Overlay {
	var out []Overlay
	for _, o := range c {
		if o.Row == row {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// MaxRow returns the highest row index in use, or -1 for an empty collection.
func (c Collection) MaxRow() int {
	max := -1
	for _, o := range c {
		if o.Row > max {
			max = o.Row
		}
	}
	return max
}

// RowEnd returns the rightmost occupied frame in the given row (0 if empty).
func (c Collection) RowEnd(row int) int {
	end := 0
	for _, o := range c {
		if o.Row == row && o.End() > end {
			end = o.End()
		}
	}
	return end
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, o := range c {
		out[i] = o.Clone()
	}
	return out
}

// Conflicts reports whether candidate would overlap any overlay in its row,
// ignoring the overlay that shares candidate's id (the candidate's own
// previous position).
func (c Collection) Conflicts(candidate Overlay) bool {
	for _, o := range c {
		if o.ID == candidate.ID {
			continue
		}
		if o.Overlaps(candidate) {
			return true
		}
	}
	return false
}

// Validate checks the at-rest invariants: unique ids, non-negative start,
// positive duration, rows within [0, visibleRows), and no same-row overlap.
func (c Collection) Validate(visibleRows int) error {
	seen := make(map[int64]bool, len(c))
	for _, o := range c {
		if seen[o.ID] {
			return fmt.Errorf("duplicate overlay id %d", o.ID)
		}
		seen[o.ID] = true
		if o.From < 0 || o.DurationInFrames < 1 {
			return fmt.Errorf("overlay %d: %w", o.ID, ErrDuration)
		}
		if o.Row < 0 || o.Row >= visibleRows {
			return fmt.Errorf("overlay %d: %w (row %d, visible %d)", o.ID, ErrRowRange, o.Row, visibleRows)
		}
	}
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			if c[i].Overlaps(c[j]) {
				return fmt.Errorf("overlays %d and %d: %w", c[i].ID, c[j].ID, ErrOverlap)
			}
		}
	}
	return nil
}
