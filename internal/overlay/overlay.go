package overlay

// Type discriminates the overlay variants. It determines which payload
// fields are meaningful; the timeline engines never inspect it beyond
// equality checks.
type Type string

const (
	TypeVideo    Type = "video"
	TypeImage    Type = "image"
	TypeText     Type = "text"
	TypeSound    Type = "sound"
	TypeCaption  Type = "caption"
	TypeSticker  Type = "sticker"
	TypeTemplate Type = "template"
	TypeLocalDir Type = "local-dir"
	TypeNone     Type = "none"
)

// Valid reports whether t is one of the known overlay types.
func (t Type) Valid() bool {
	switch t {
	case TypeVideo, TypeImage, TypeText, TypeSound, TypeCaption,
		TypeSticker, TypeTemplate, TypeLocalDir, TypeNone:
		return true
	}
	return false
}

// Caption is a single timed caption line inside a caption overlay.
type Caption struct {
	Text    string `json:"text"`
	StartMs int    `json:"startMs"`
	EndMs   int    `json:"endMs"`
}

// Overlay is a placed item on the timeline. Time is measured in frames at
// the project frame rate; Row is an independent parallel track index.
type Overlay struct {
	ID               int64 `json:"id"`
	Type             Type  `json:"type"`
	From             int   `json:"from"`
	DurationInFrames int   `json:"durationInFrames"`
	Row              int   `json:"row"`

	// Spatial placement within the video frame. Used by the renderer,
	// not by the timeline engines.
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`

	// IsDragging is set only while the overlay is the subject of an
	// in-progress pointer operation. Never true in a committed collection.
	IsDragging bool `json:"isDragging,omitempty"`

	// IsLoading marks a placeholder awaiting an asynchronous payload,
	// e.g. a detached-audio overlay whose extraction has not resolved.
	IsLoading bool `json:"isLoading,omitempty"`

	// Type-specific payload. Opaque to the timeline engines.
	Src            string                 `json:"src,omitempty"`
	Content        string                 `json:"content,omitempty"`
	Speed          float64                `json:"speed,omitempty"`
	VideoStartTime int                    `json:"videoStartTime,omitempty"`
	StartFromSound int                    `json:"startFromSound,omitempty"`
	AudioDetached  bool                   `json:"audioDetached,omitempty"`
	Captions       []Caption              `json:"captions,omitempty"`
	Styles         map[string]interface{} `json:"styles,omitempty"`
}

// End returns the exclusive end frame, From+DurationInFrames.
func (o Overlay) End() int {
	return o.From + o.DurationInFrames
}

// OverlapsInterval reports whether o's span intersects [from, end).
func (o Overlay) OverlapsInterval(from, end int) bool {
	return o.From < end && from < o.End()
}

// Overlaps reports whether o and other occupy the same row and their
// time spans intersect.
func (o Overlay) Overlaps(other Overlay) bool {
	if o.Row != other.Row {
		return false
	}
	return o.OverlapsInterval(other.From, other.End())
}

// Clone returns a deep copy of the overlay, including the caption list
// and style bag, so that mutating the copy cannot alias the original.
func (o Overlay) Clone() Overlay {
	c := o
	if o.Captions != nil {
		c.Captions = make([]Caption, len(o.Captions))
		copy(c.Captions, o.Captions)
	}
	if o.Styles != nil {
		c.Styles = make(map[string]interface{}, len(o.Styles))
		for k, v := range o.Styles {
			c.Styles[k] = v
		}
	}
	return c
}
