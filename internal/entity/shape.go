package entity

// CandidateBox is the bounding box of one digit-like connected component.
type CandidateBox struct {
	X      int
	Y      int
	Width  int
	Height int
	Area   int
}

// ShapeMetrics is the local pre-filter verdict for one image. Created once
// per upload by the shape gate and immutable afterward.
type ShapeMetrics struct {
	ImageWidth  int
	ImageHeight int
	Candidates  []CandidateBox // contours inside the digit-like window
	Rejected    int            // contours discarded by the window
	Plausible   bool           // len(Candidates) >= MinContours
}
