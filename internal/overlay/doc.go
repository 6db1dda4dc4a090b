// Package overlay defines the timeline's central entity: a time-bounded,
// row-assigned item placed on the editing timeline. The timeline engines
// operate only on the common positional fields (ID, Type, From,
// DurationInFrames, Row); everything else on the struct is payload carried
// for the renderer and the editing panels.
package overlay
