package model

// Point is one sampled pen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen line with its tool settings.
type Stroke struct {
	Tool   string  `json:"tool"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// CanvasData is the freehand ink overlay for one page of one target.
// Version increments on every change for last-write-wins resolution.
type CanvasData struct {
	Lines   []Stroke `json:"lines"`
	Version int      `json:"version"`
}

// CanvasKey addresses one ink overlay.
type CanvasKey struct {
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
	PageIndex  int    `json:"page_index"`
}

// SaveCanvasRequest is the payload for replacing an overlay's strokes.
type SaveCanvasRequest struct {
	Lines []Stroke `json:"lines" binding:"required"`
}
