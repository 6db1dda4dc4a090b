// Package timeline implements the positioning, snapping, and mutation
// engines for the overlay timeline, plus the drag state machine and the
// EditorState aggregate that ties them together.
//
// All algorithms here are synchronous pure functions over an
// overlay.Collection. Mutating operations return a new collection and
// leave the input untouched; on an invariant violation they return the
// original collection unchanged together with an error, never a partially
// applied result. The no-overlap guarantee applies to committed state
// only; ghost previews during a drag may transiently overlap.
package timeline
